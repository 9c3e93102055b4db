package fixture

import "sort"

// Registry holds fixture definitions keyed by virtual fixture ID, plus the
// bidirectional virtual-ID / RDM-UID mapping. Like the universe buffer it
// is tick-thread-only and carries no locks.
type Registry struct {
	fixtures     map[int]*Fixture
	rdmToVirtual map[string]int
	virtualToRDM map[int]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fixtures:     make(map[int]*Fixture),
		rdmToVirtual: make(map[string]int),
		virtualToRDM: make(map[int]string),
	}
}

// Register validates and stores a fixture. On any violation the registry
// is left unchanged. A fixture arriving with an RDM UID is mapped
// immediately.
func (r *Registry) Register(f *Fixture) error {
	if f.ChannelCount == 0 {
		f.ChannelCount = DefaultChannelCount(f.Type, f.CustomOffsets)
	}

	if err := ValidateRegister(f, r.List()); err != nil {
		return err
	}

	r.fixtures[f.ID] = f
	if f.RDMUID != "" {
		r.MapRDM(f.ID, f.RDMUID)
	}
	return nil
}

// Unregister removes a fixture and cascades removal of any RDM mapping.
// It returns the removed fixture, or false if the ID was unknown.
func (r *Registry) Unregister(id int) (*Fixture, bool) {
	f, ok := r.fixtures[id]
	if !ok {
		return nil, false
	}

	delete(r.fixtures, id)
	if uid, ok := r.virtualToRDM[id]; ok {
		delete(r.virtualToRDM, id)
		delete(r.rdmToVirtual, uid)
	}
	return f, true
}

// Find returns the fixture with the given virtual ID.
func (r *Registry) Find(id int) (*Fixture, bool) {
	f, ok := r.fixtures[id]
	return f, ok
}

// List returns all registered fixtures ordered by virtual ID.
func (r *Registry) List() []*Fixture {
	out := make([]*Fixture, 0, len(r.fixtures))
	for _, f := range r.fixtures {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListIDs returns all registered virtual IDs in ascending order.
func (r *Registry) ListIDs() []int {
	ids := make([]int, 0, len(r.fixtures))
	for id := range r.fixtures {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Count returns the number of registered fixtures.
func (r *Registry) Count() int {
	return len(r.fixtures)
}

// MapRDM stores both directions of a virtual-ID / RDM-UID pairing,
// replacing any previous pairing for either side.
func (r *Registry) MapRDM(id int, uid string) {
	if old, ok := r.virtualToRDM[id]; ok {
		delete(r.rdmToVirtual, old)
	}
	if oldID, ok := r.rdmToVirtual[uid]; ok {
		delete(r.virtualToRDM, oldID)
	}
	r.virtualToRDM[id] = uid
	r.rdmToVirtual[uid] = id
}

// VirtualIDForUID returns the virtual ID mapped to an RDM UID.
func (r *Registry) VirtualIDForUID(uid string) (int, bool) {
	id, ok := r.rdmToVirtual[uid]
	return id, ok
}

// UIDForVirtualID returns the RDM UID mapped to a virtual ID.
func (r *Registry) UIDForVirtualID(id int) (string, bool) {
	uid, ok := r.virtualToRDM[id]
	return uid, ok
}

// RDMToVirtual returns a copy of the UID-to-virtual-ID map, used by the
// RDM prune pass.
func (r *Registry) RDMToVirtual() map[string]int {
	out := make(map[string]int, len(r.rdmToVirtual))
	for uid, id := range r.rdmToVirtual {
		out[uid] = id
	}
	return out
}
