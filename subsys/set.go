package subsys

import (
	"fmt"
	"iter"
	"math/bits"
)

// MaxSetWords specifies the number of 64-bit words in a Set.
const MaxSetWords = 16

// MaxSubsystems is the largest descriptor table a Map accepts.
const MaxSubsystems = 64 * MaxSetWords

// Set is a constant-length set of subsystem IDs.
//
// It is comparable, so it can be used as a map key.
type Set struct {
	words [MaxSetWords]uint64
}

// Count returns the number of subsystems in the set.
func (m *Set) Count() uint {
	count := uint(0)
	for _, word := range m.words {
		count += uint(bits.OnesCount64(word))
	}

	return count
}

// Insert inserts the given subsystem into the set.
func (m *Set) Insert(sub ID) {
	if sub >= MaxSubsystems {
		panic(fmt.Sprintf("subsystem %d is too big: must be less than %d", sub, MaxSubsystems))
	}

	m.words[sub/64] |= 1 << (sub % 64)
}

// Contains reports whether the subsystem is in the set.
func (m *Set) Contains(sub ID) bool {
	if sub >= MaxSubsystems {
		return false
	}
	return m.words[sub/64]&(1<<(sub%64)) != 0
}

// Traverse calls the given function for each subsystem in the set, in
// ascending order, until it returns false.
func (m *Set) Traverse(fn func(ID) bool) {
	for idx, word := range m.words {
		for word > 0 {
			r := bits.TrailingZeros64(word)
			// Clears the lowest set bit, same as "word ^= 1 << r", but
			// compiles to a single "blsr".
			word &= word - 1

			if !fn(ID(64*idx + r)) {
				return
			}
		}
	}
}

// Iter returns an iterator over the subsystems in the set.
func (m *Set) Iter() iter.Seq[ID] {
	return func(yield func(ID) bool) {
		m.Traverse(yield)
	}
}

// AsSlice returns the set as a slice of IDs in ascending order.
func (m *Set) AsSlice() []ID {
	out := make([]ID, 0, m.Count())

	m.Traverse(func(sub ID) bool {
		out = append(out, sub)
		return true
	})

	return out
}
