package subsys

import (
	"sync/atomic"
)

// Gate is a gathering check pre-bound to a fixed subsystem and level.
//
// It is meant to be created once per call site, usually as a package-level
// variable, and then checked on every log call:
//
//	var traceRoutes = logMap.Gate(subRoute, 20)
//
//	if traceRoutes.Open() {
//		...
//	}
//
// A gate for a level <= 0 is open unconditionally and never touches the map.
// Any other gate reads the same byte ShouldGather does, so it follows later
// level changes.
type Gate struct {
	word  *atomic.Uint64
	shift uint
	level int
}

// Gate returns a gate for the given subsystem and level.
//
// An out-of-range subsystem is bound to subsystem 0.
func (m *Map) Gate(sub ID, level int) Gate {
	if level <= 0 {
		return Gate{}
	}
	if debugChecks {
		m.hint(sub, level)
	}

	sub = m.clamp(sub)
	return Gate{
		word:  &m.gather[sub/levelsPerWord],
		shift: uint(8 * (sub % levelsPerWord)),
		level: level,
	}
}

// Open reports whether a message behind this gate should be produced.
func (m Gate) Open() bool {
	if m.word == nil {
		return true
	}
	return m.level <= int(uint8(m.word.Load()>>m.shift))
}
