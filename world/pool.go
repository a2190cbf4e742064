package world

// localID encodes a 32-bit index in the lower bits and a 32-bit generation in the upper bits.
// Generation increments on destroy so stale handles stop resolving.
type localID uint64

func newLocalID(index uint32, generation uint32) localID {
	return localID(uint64(generation)<<32 | uint64(index))
}

func (id localID) index() uint32      { return uint32(id) }
func (id localID) generation() uint32 { return uint32(id >> 32) }

// entityPool allocates generational indices with a LIFO free list. Generations start at 1 so the
// zero localID never names a live entity.
type entityPool struct {
	generations []uint32
	freeList    []uint32
}

func newEntityPool() entityPool {
	return entityPool{
		generations: make([]uint32, 0, 256),
		freeList:    make([]uint32, 0, 64),
	}
}

func (p *entityPool) create() localID {
	if n := len(p.freeList); n > 0 {
		idx := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return newLocalID(idx, p.generations[idx])
	}
	idx := uint32(len(p.generations))
	p.generations = append(p.generations, 1)
	return newLocalID(idx, 1)
}

func (p *entityPool) alive(id localID) bool {
	idx := id.index()
	if int(idx) >= len(p.generations) {
		return false
	}
	return p.generations[idx] == id.generation()
}

func (p *entityPool) destroy(id localID) bool {
	if !p.alive(id) {
		return false // stale or never allocated
	}
	idx := id.index()
	p.generations[idx]++
	if p.generations[idx] == 0 {
		// Wrapped around; skip the zero generation so the zero localID stays invalid.
		p.generations[idx] = 1
	}
	p.freeList = append(p.freeList, idx)
	return true
}
