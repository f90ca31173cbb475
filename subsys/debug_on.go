//go:build subsysdebug

package subsys

import (
	"sync/atomic"
)

const debugChecks = true

var hintMisses atomic.Uint64

// hint counts static checks above the subsystem's MaxDefault. Such checks
// are legal, just unexpected with the default configuration.
//
// New also passes each default effective level through here, so a
// descriptor whose MaxDefault is below its own defaults counts as a miss.
func (m *Map) hint(sub ID, level int) {
	if level > int(m.descs[m.clamp(sub)].MaxDefault) {
		hintMisses.Add(1)
	}
}

// HintMisses returns the number of static checks that asked for a level
// above the subsystem's MaxDefault.
func HintMisses() uint64 {
	return hintMisses.Load()
}
