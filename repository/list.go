package repository

import "pkg.world.dev/world-engine/multiworld/world"

// ListManager hands out int-keyed entity lists. Removed list IDs are queued and reused first, in
// the order they were freed.
type ListManager struct {
	nextID  int
	freeIDs []int
	lists   *Map[int, []world.Entity]
}

func NewListManager() *ListManager {
	return &ListManager{
		nextID:  0,
		freeIDs: make([]int, 0),
		lists:   NewMap[int, []world.Entity](),
	}
}

func (lm *ListManager) HasList(listID int) bool {
	return lm.lists.Has(listID)
}

// GetList returns the list and whether it exists.
func (lm *ListManager) GetList(listID int) ([]world.Entity, bool) {
	return lm.lists.TryGet(listID)
}

// SetList replaces the contents of an existing list.
func (lm *ListManager) SetList(listID int, entities []world.Entity) error {
	return lm.lists.Update(listID, entities)
}

// CreateList allocates an empty list and returns its ID.
func (lm *ListManager) CreateList() int {
	var id int
	if len(lm.freeIDs) > 0 {
		id = lm.freeIDs[0]
		lm.freeIDs = lm.freeIDs[1:]
	} else {
		id = lm.nextID
		lm.nextID++
	}
	_ = lm.lists.Add(id, make([]world.Entity, 0))
	return id
}

// RemoveList drops the list and frees its ID. Unknown IDs are ignored.
func (lm *ListManager) RemoveList(listID int) {
	if !lm.lists.Remove(listID) {
		return
	}
	lm.freeIDs = append(lm.freeIDs, listID)
}
