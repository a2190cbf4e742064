// Package netsync serializes the component state of networked worlds. Components take part only
// once registered with Register; each is identified on the wire by a hash of its name.
package netsync

import (
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	"github.com/rotisserie/eris"
	"github.com/wI2L/jsondiff"

	"pkg.world.dev/world-engine/multiworld/world"
)

var (
	ErrComponentRegistered = eris.New("component already registered")
	ErrUnknownComponent    = eris.New("component not registered")
	ErrHashCollision       = eris.New("component name hash collision")
	ErrSchemaMismatch      = eris.New("component schema mismatch")
)

// ComponentData is one serialized component.
type ComponentData struct {
	Hash uint64          `json:"hash"`
	Data json.RawMessage `json:"data"`
}

type componentCodec struct {
	name   string
	hash   uint64
	schema []byte
	encode func(world.Component) ([]byte, error)
	decode func([]byte) (world.Component, error)
}

// Registry maps component names and hashes to their codecs.
type Registry struct {
	byName map[string]*componentCodec
	byHash map[uint64]*componentCodec
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*componentCodec),
		byHash: make(map[uint64]*componentCodec),
	}
}

// HashName returns the wire identifier of a component name.
func HashName(name string) uint64 {
	return xxhash.Sum64String(name)
}

// Register adds component type T to the registry.
func Register[T world.Component](r *Registry) error {
	var zero T
	name := zero.Name()
	if _, ok := r.byName[name]; ok {
		return eris.Wrapf(ErrComponentRegistered, "component %q", name)
	}
	hash := HashName(name)
	if other, ok := r.byHash[hash]; ok {
		return eris.Wrapf(ErrHashCollision, "%q and %q", name, other.name)
	}
	schema, err := jsonschema.Reflect(zero).MarshalJSON()
	if err != nil {
		return eris.Wrapf(err, "component %q must be json serializable", name)
	}

	c := &componentCodec{
		name:   name,
		hash:   hash,
		schema: schema,
		encode: func(comp world.Component) ([]byte, error) {
			if _, ok := comp.(T); !ok {
				return nil, eris.Wrapf(world.ErrComponentTypeMismatch, "%q is registered as %T, got %T", name, zero, comp)
			}
			bz, err := json.Marshal(comp)
			if err != nil {
				return nil, eris.Wrap(err, "")
			}
			return bz, nil
		},
		decode: func(bz []byte) (world.Component, error) {
			var comp T
			if err := json.Unmarshal(bz, &comp); err != nil {
				return nil, eris.Wrap(err, "")
			}
			return comp, nil
		},
	}
	r.byName[name] = c
	r.byHash[hash] = c
	return nil
}

// MustRegister is Register that panics on error. For package-level setup.
func MustRegister[T world.Component](r *Registry) {
	if err := Register[T](r); err != nil {
		panic(err)
	}
}

func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names returns the registered component names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NameOf returns the component name behind a wire hash.
func (r *Registry) NameOf(hash uint64) (string, bool) {
	c, ok := r.byHash[hash]
	if !ok {
		return "", false
	}
	return c.name, true
}

func (r *Registry) Encode(comp world.Component) (ComponentData, error) {
	c, ok := r.byName[comp.Name()]
	if !ok {
		return ComponentData{}, eris.Wrapf(ErrUnknownComponent, "component %q", comp.Name())
	}
	bz, err := c.encode(comp)
	if err != nil {
		return ComponentData{}, eris.Wrapf(err, "failed to encode %q", c.name)
	}
	return ComponentData{Hash: c.hash, Data: bz}, nil
}

func (r *Registry) Decode(data ComponentData) (world.Component, error) {
	c, ok := r.byHash[data.Hash]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownComponent, "hash %d", data.Hash)
	}
	comp, err := c.decode(data.Data)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to decode %q", c.name)
	}
	return comp, nil
}

// EncodeEntity serializes every registered component on e, sorted by name. Unregistered
// components are skipped.
func (r *Registry) EncodeEntity(e world.Entity) ([]ComponentData, error) {
	comps := e.Components()
	out := make([]ComponentData, 0, len(comps))
	for _, comp := range comps {
		if !r.Has(comp.Name()) {
			continue
		}
		data, err := r.Encode(comp)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

// DecodeAll decodes every entry of data. Nothing is returned unless all of them decode.
func (r *Registry) DecodeAll(data []ComponentData) ([]world.Component, error) {
	out := make([]world.Component, 0, len(data))
	for _, d := range data {
		comp, err := r.Decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, comp)
	}
	return out, nil
}

// Schema returns the JSON schema of a registered component.
func (r *Registry) Schema(name string) ([]byte, error) {
	c, ok := r.byName[name]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownComponent, "component %q", name)
	}
	return c.schema, nil
}

// Schemas returns the schema of every registered component, keyed by name.
func (r *Registry) Schemas() map[string][]byte {
	out := make(map[string][]byte, len(r.byName))
	for name, c := range r.byName {
		out[name] = c.schema
	}
	return out
}

// ValidateSchema checks that a peer's schema for name matches the local one.
func (r *Registry) ValidateSchema(name string, remote []byte) error {
	local, err := r.Schema(name)
	if err != nil {
		return err
	}
	patch, err := jsondiff.CompareJSON(local, remote)
	if err != nil {
		return eris.Wrapf(err, "failed to compare schema of %q", name)
	}
	if patch.String() != "" {
		return eris.Wrapf(ErrSchemaMismatch, "component %q: %s", name, patch.String())
	}
	return nil
}

// ValidateSchemas checks every schema a peer sent. Components the peer knows but this side does
// not are reported as ErrUnknownComponent.
func (r *Registry) ValidateSchemas(remote map[string][]byte) error {
	names := make([]string, 0, len(remote))
	for name := range remote {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := r.ValidateSchema(name, remote[name]); err != nil {
			return err
		}
	}
	return nil
}
