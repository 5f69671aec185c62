// Package parammem implements parameter memory (spec.md §3): an ordered
// mapping index -> {value, readonly, persistent}, encapsulating
// device-specific parameters such as vendor/product name. Persistent entries are
// snapshotted to/from the external Parameter Storage boundary (spec.md §1,
// §6) as a deterministic CBOR blob, the encode/decode idiom bc/fountain.part
// uses for its UR parts (cbor.CoreDetEncOptions).
package parammem

import (
	"sort"

	"github.com/fxamacker/cbor/v2"

	"iolinke.dev/ioerr"
)

// Param is one parameter memory entry.
type Param struct {
	Index      uint16
	Value      []byte
	ReadOnly   bool
	Persistent bool
}

// snapshotEntry is the CBOR-serializable form of one persistent Param.
type snapshotEntry struct {
	_     struct{} `cbor:",toarray"`
	Index uint16
	Value []byte
}

// Memory is the ordered index -> Param store.
type Memory struct {
	order  []uint16
	params map[uint16]*Param
}

// New builds an empty parameter memory.
func New() *Memory {
	return &Memory{params: make(map[uint16]*Param)}
}

// Define registers a new parameter. Defining an already-present index is a
// programmer error and returns InvalidIndex.
func (m *Memory) Define(index uint16, value []byte, readOnly, persistent bool) error {
	if _, ok := m.params[index]; ok {
		return ioerr.New("parammem.Define", ioerr.InvalidIndex, nil)
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.params[index] = &Param{Index: index, Value: v, ReadOnly: readOnly, Persistent: persistent}
	m.order = append(m.order, index)
	sort.Slice(m.order, func(i, j int) bool { return m.order[i] < m.order[j] })
	return nil
}

// Get returns the current value of index.
func (m *Memory) Get(index uint16) ([]byte, error) {
	p, ok := m.params[index]
	if !ok {
		return nil, ioerr.New("parammem.Get", ioerr.InvalidIndex, nil)
	}
	out := make([]byte, len(p.Value))
	copy(out, p.Value)
	return out, nil
}

// Set overwrites the value of index, honoring its read-only flag.
func (m *Memory) Set(index uint16, value []byte) error {
	p, ok := m.params[index]
	if !ok {
		return ioerr.New("parammem.Set", ioerr.InvalidIndex, nil)
	}
	if p.ReadOnly {
		return ioerr.New("parammem.Set", ioerr.ReadOnlyError, nil)
	}
	p.Value = append(p.Value[:0], value...)
	return nil
}

// Indices returns every defined index in ascending order.
func (m *Memory) Indices() []uint16 {
	out := make([]uint16, len(m.order))
	copy(out, m.order)
	return out
}

// Snapshot encodes every persistent Param as a deterministic CBOR blob
// suitable for handing to the external Parameter Storage backend (spec.md
// §1, §6).
func (m *Memory) Snapshot() ([]byte, error) {
	var entries []snapshotEntry
	for _, idx := range m.order {
		p := m.params[idx]
		if !p.Persistent {
			continue
		}
		entries = append(entries, snapshotEntry{Index: p.Index, Value: p.Value})
	}
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, ioerr.New("parammem.Snapshot", ioerr.FailedToGetParameter, err)
	}
	b, err := enc.Marshal(entries)
	if err != nil {
		return nil, ioerr.New("parammem.Snapshot", ioerr.FailedToGetParameter, err)
	}
	return b, nil
}

// Restore decodes a snapshot produced by Snapshot and overwrites the
// matching persistent parameters. Unknown indices in the blob are ignored
// (the running configuration wins over a stale snapshot); missing indices
// keep their compiled-in default.
func (m *Memory) Restore(blob []byte) error {
	var entries []snapshotEntry
	if err := cbor.Unmarshal(blob, &entries); err != nil {
		return ioerr.New("parammem.Restore", ioerr.FailedToSetParameter, err)
	}
	for _, e := range entries {
		p, ok := m.params[e.Index]
		if !ok || !p.Persistent {
			continue
		}
		p.Value = append(p.Value[:0], e.Value...)
	}
	return nil
}
