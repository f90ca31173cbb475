//go:build !subsysdebug

package subsys

const debugChecks = false

func (m *Map) hint(ID, int) {}

// HintMisses returns the number of static checks that asked for a level
// above the subsystem's MaxDefault.
//
// Always zero unless built with the "subsysdebug" tag.
func HintMisses() uint64 {
	return 0
}
