// Package subsys implements a per-subsystem log-level gating table.
//
// The table answers "is a message at level L for subsystem S worth
// producing?" on every log call site. The answer is derived from a single
// byte per subsystem, the effective gather level, which is the maximum of the
// subsystem's log and gather levels. Those bytes are packed into a few 64-bit
// words, so a catalog of dozens of subsystems fits into one cache line, while
// the larger per-subsystem records live elsewhere and are only touched on
// configuration reads and writes.
//
// Reads never lock. Writes are expected to be rare and serialized by the
// caller; a reader racing with a write observes either the old or the new
// value, never a torn one.
package subsys

import (
	"fmt"
	"iter"
	"sync/atomic"
)

const levelsPerWord = 8

// Map is the subsystem gating table.
//
// The zero value is not usable, construct with New.
type Map struct {
	// Effective gather levels, eight per word, subsystem i lives in byte
	// i%8 of word i/8.
	//
	// Read on every log call.
	gather []atomic.Uint64

	// Everything else. Access can be slow.
	records []record
	descs   []Descriptor
	index   map[string]ID
	nameLen int
}

// record holds the configured levels of one subsystem packed as
// log<<8 | gather, so both are published with a single store.
type record struct {
	levels atomic.Uint32
}

func (m *record) load() (uint8, uint8) {
	v := m.levels.Load()
	return uint8(v >> 8), uint8(v)
}

func (m *record) store(log uint8, gather uint8) {
	m.levels.Store(uint32(log)<<8 | uint32(gather))
}

// New constructs a new gating table from the given descriptor table.
//
// The table must not be empty, so that every out-of-range read can fall back
// to subsystem 0.
func New(descs []Descriptor) (*Map, error) {
	if err := validate(descs); err != nil {
		return nil, fmt.Errorf("invalid descriptor table: %w", err)
	}

	n := len(descs)
	m := &Map{
		gather:  make([]atomic.Uint64, (n+levelsPerWord-1)/levelsPerWord),
		records: make([]record, n),
		descs:   make([]Descriptor, n),
		index:   make(map[string]ID, n),
	}

	// Ascending order keeps both backing structures aligned by ID.
	for idx, d := range descs {
		d = d.normalize()

		m.descs[idx] = d
		m.index[d.Name] = ID(idx)
		m.nameLen = max(m.nameLen, len(d.Name))
		m.records[idx].store(d.LogLevel, d.GatherLevel)
		m.storeEffective(ID(idx), d.Effective())
		if debugChecks {
			m.hint(ID(idx), int(d.Effective()))
		}
	}

	return m, nil
}

// MustNew is like New, but panics on error.
func MustNew(descs []Descriptor) *Map {
	m, err := New(descs)
	if err != nil {
		panic(err)
	}
	return m
}

// Len returns the number of subsystems.
func (m *Map) Len() int {
	return len(m.records)
}

// MaxNameLen returns the length of the longest subsystem name.
func (m *Map) MaxNameLen() int {
	return m.nameLen
}

// Footprint returns the size of the hot gather table in bytes.
func (m *Map) Footprint() int {
	return len(m.gather) * levelsPerWord
}

func (m *Map) clamp(sub ID) ID {
	if sub >= ID(len(m.records)) {
		return 0
	}
	return sub
}

func (m *Map) mustBeValid(sub ID) {
	if sub >= ID(len(m.records)) {
		panic(fmt.Sprintf("subsystem %d is out of range: must be less than %d", sub, len(m.records)))
	}
}

// Name returns the subsystem name.
func (m *Map) Name(sub ID) string {
	return m.descs[m.clamp(sub)].Name
}

// Descriptor returns the descriptor the subsystem was constructed from.
func (m *Map) Descriptor(sub ID) Descriptor {
	return m.descs[m.clamp(sub)]
}

// Lookup returns the ID of the subsystem with the given name.
func (m *Map) Lookup(name string) (ID, bool) {
	id, ok := m.index[name]
	return id, ok
}

// All iterates over all subsystem descriptors in ID order.
func (m *Map) All() iter.Seq2[ID, Descriptor] {
	return func(yield func(ID, Descriptor) bool) {
		for idx, d := range m.descs {
			if !yield(ID(idx), d) {
				return
			}
		}
	}
}

// LogLevel returns the current log level of the subsystem.
func (m *Map) LogLevel(sub ID) uint8 {
	log, _ := m.records[m.clamp(sub)].load()
	return log
}

// GatherLevel returns the current gather level of the subsystem.
func (m *Map) GatherLevel(sub ID) uint8 {
	_, gather := m.records[m.clamp(sub)].load()
	return gather
}

// EffectiveLevel returns the current effective gather level of the
// subsystem.
func (m *Map) EffectiveLevel(sub ID) uint8 {
	return m.loadEffective(m.clamp(sub))
}

// ShouldGather reports whether a message at the given level for the given
// subsystem should be produced.
func (m *Map) ShouldGather(sub ID, level int) bool {
	if sub >= ID(len(m.records)) {
		sub = 0
	}
	return level <= int(m.loadEffective(sub))
}

// ShouldGatherStatic is ShouldGather for call sites where both the
// subsystem and the level are constants.
//
// Levels <= 0 are always gathered. The function is small enough to be
// inlined, so with a constant level the comparison is folded away entirely.
func (m *Map) ShouldGatherStatic(sub ID, level int) bool {
	if level <= 0 {
		return true
	}
	if debugChecks {
		m.hint(sub, level)
	}
	return m.ShouldGather(sub, level)
}

// SetLogLevel sets the log level of the subsystem.
//
// Panics if the subsystem is out of range.
func (m *Map) SetLogLevel(sub ID, level uint8) {
	m.mustBeValid(sub)

	_, gather := m.records[sub].load()
	m.SetLevels(sub, level, gather)
}

// SetGatherLevel sets the gather level of the subsystem.
//
// Panics if the subsystem is out of range.
func (m *Map) SetGatherLevel(sub ID, level uint8) {
	m.mustBeValid(sub)

	log, _ := m.records[sub].load()
	m.SetLevels(sub, log, level)
}

// SetLevels sets both levels of the subsystem at once.
//
// Panics if the subsystem is out of range.
func (m *Map) SetLevels(sub ID, log uint8, gather uint8) {
	m.mustBeValid(sub)

	m.records[sub].store(log, gather)
	m.storeEffective(sub, max(log, gather))
}

func (m *Map) loadEffective(sub ID) uint8 {
	word := m.gather[sub/levelsPerWord].Load()
	return uint8(word >> (8 * (sub % levelsPerWord)))
}

// storeEffective replaces a single byte of the packed word.
//
// Writers are serialized by the caller, so a plain load/store pair is enough;
// readers only ever see whole words.
func (m *Map) storeEffective(sub ID, level uint8) {
	w := &m.gather[sub/levelsPerWord]
	shift := 8 * (sub % levelsPerWord)

	word := w.Load()
	word &^= 0xff << shift
	word |= uint64(level) << shift
	w.Store(word)
}
