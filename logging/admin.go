package logging

import (
	"fmt"
	"sync"

	"github.com/gobwas/glob"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yanet-platform/logsubsys/subsys"
)

type adminOptions struct {
	Log *zap.SugaredLogger
}

func newAdminOptions() *adminOptions {
	return &adminOptions{
		Log: zap.NewNop().Sugar(),
	}
}

// AdminOption is a function that configures the Admin.
type AdminOption func(*adminOptions)

// WithLog sets the logger the Admin reports applied changes to.
func WithLog(log *zap.SugaredLogger) AdminOption {
	return func(o *adminOptions) {
		o.Log = log
	}
}

// Admin changes logging levels at runtime.
//
// It is the single writer of the gating table: all mutations are serialized
// by its mutex, while readers keep going lock-free.
type Admin struct {
	mu         sync.Mutex
	subsystems *subsys.Map
	atom       *zap.AtomicLevel
	log        *zap.SugaredLogger
}

// NewAdmin creates a new Admin.
//
// The atom may be nil, in which case the sink level cannot be changed.
func NewAdmin(subsystems *subsys.Map, atom *zap.AtomicLevel, options ...AdminOption) *Admin {
	opts := newAdminOptions()
	for _, o := range options {
		o(opts)
	}

	return &Admin{
		subsystems: subsystems,
		atom:       atom,
		log:        opts.Log,
	}
}

// SetLevels sets levels of every subsystem whose name matches the glob
// pattern.
//
// Returns the number of updated subsystems. A pattern that matches nothing is
// an error.
func (m *Admin) SetLevels(pattern string, levels Levels) (int, error) {
	set, err := match(m.subsystems, pattern)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.apply(&set, levels)
	return int(set.Count()), nil
}

// SetLogLevel sets the log level of a single subsystem, keeping its gather
// level.
func (m *Admin) SetLogLevel(name string, level uint8) error {
	id, ok := m.subsystems.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown subsystem %q", name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.subsystems.SetLogLevel(id, level)
	m.log.Infof("updated %q log level to %d", name, level)
	return nil
}

// SetGatherLevel sets the gather level of a single subsystem, keeping its log
// level.
func (m *Admin) SetGatherLevel(name string, level uint8) error {
	id, ok := m.subsystems.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown subsystem %q", name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.subsystems.SetGatherLevel(id, level)
	m.log.Infof("updated %q gather level to %d", name, level)
	return nil
}

// Apply applies the rules in order.
//
// Patterns are validated before anything is changed, so an invalid rule
// leaves the table untouched.
func (m *Admin) Apply(rules Rules) error {
	sets, err := matchRules(m.subsystems, rules)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for idx := range rules {
		m.apply(&sets[idx], rules[idx].Levels)
	}
	return nil
}

// Reload restores the default levels of every subsystem no rule matches and
// then applies the rules, all under a single lock.
//
// This is what a configuration reload wants: subsystems no longer mentioned
// by the configuration fall back to their defaults, while the ones still
// mentioned go straight to their new levels without passing through the
// defaults.
func (m *Admin) Reload(rules Rules) error {
	sets, err := matchRules(m.subsystems, rules)
	if err != nil {
		return err
	}

	matched := subsys.Set{}
	for idx := range sets {
		for id := range sets[idx].Iter() {
			matched.Insert(id)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.reset(&matched)
	for idx := range rules {
		m.apply(&sets[idx], rules[idx].Levels)
	}
	return nil
}

// Reset restores the default levels of every subsystem.
func (m *Admin) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reset(&subsys.Set{})
	m.log.Info("restored default subsystem levels")
}

// reset restores the default levels of every subsystem not in keep.
func (m *Admin) reset(keep *subsys.Set) {
	for id, d := range m.subsystems.All() {
		if keep.Contains(id) {
			continue
		}
		m.subsystems.SetLevels(id, d.LogLevel, d.GatherLevel)
	}
}

// UpdateLevel updates the minimum sink logging level.
func (m *Admin) UpdateLevel(level zapcore.Level) error {
	if m.atom == nil {
		return fmt.Errorf("sink doesn't support setting log level dynamically")
	}

	m.atom.SetLevel(level)
	m.log.Infof("updated log level to %q", level)
	return nil
}

func (m *Admin) apply(set *subsys.Set, levels Levels) {
	ids := set.AsSlice()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		m.subsystems.SetLevels(id, levels.Log, levels.Gather)
		names = append(names, m.subsystems.Name(id))
	}

	m.log.Infow("updated subsystem levels",
		zap.Strings("subsystems", names),
		zap.Stringer("levels", levels),
	)
}

// Entry is a snapshot of a single subsystem's levels.
type Entry struct {
	ID        subsys.ID
	Name      string
	Log       uint8
	Gather    uint8
	Effective uint8
	Default   Levels
}

// Snapshot returns the current levels of every subsystem in ID order.
func (m *Admin) Snapshot() []Entry {
	return Snapshot(m.subsystems)
}

// Snapshot returns the current levels of every subsystem in ID order.
func Snapshot(subsystems *subsys.Map) []Entry {
	out := make([]Entry, 0, subsystems.Len())
	for id, d := range subsystems.All() {
		out = append(out, Entry{
			ID:        id,
			Name:      d.Name,
			Log:       subsystems.LogLevel(id),
			Gather:    subsystems.GatherLevel(id),
			Effective: subsystems.EffectiveLevel(id),
			Default:   Levels{Log: d.LogLevel, Gather: d.GatherLevel},
		})
	}

	return out
}

// match returns the set of subsystems whose names match the glob pattern.
func match(subsystems *subsys.Map, pattern string) (subsys.Set, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return subsys.Set{}, fmt.Errorf("invalid subsystem pattern %q: %w", pattern, err)
	}

	set := subsys.Set{}
	for id, d := range subsystems.All() {
		if g.Match(d.Name) {
			set.Insert(id)
		}
	}
	if set.Count() == 0 {
		return subsys.Set{}, fmt.Errorf("pattern %q matches no subsystem", pattern)
	}

	return set, nil
}

func matchRules(subsystems *subsys.Map, rules Rules) ([]subsys.Set, error) {
	sets := make([]subsys.Set, len(rules))
	for idx, rule := range rules {
		set, err := match(subsystems, rule.Pattern)
		if err != nil {
			return nil, err
		}
		sets[idx] = set
	}

	return sets, nil
}

// applyRules applies the rules to a table nobody else writes to yet.
func applyRules(subsystems *subsys.Map, rules Rules) error {
	sets, err := matchRules(subsystems, rules)
	if err != nil {
		return err
	}

	for idx := range rules {
		for id := range sets[idx].Iter() {
			subsystems.SetLevels(id, rules[idx].Levels.Log, rules[idx].Levels.Gather)
		}
	}
	return nil
}
