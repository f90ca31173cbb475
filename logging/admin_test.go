package logging

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yanet-platform/logsubsys/subsys"
)

func newTestAdmin(t *testing.T) (*Admin, *subsys.Map, *zap.AtomicLevel) {
	t.Helper()

	m := subsys.MustNew(testTable())
	atom := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	admin := NewAdmin(m, &atom, WithLog(zaptest.NewLogger(t).Sugar()))

	return admin, m, &atom
}

func Test_AdminSetLevelsByPattern(t *testing.T) {
	admin, m, _ := newTestAdmin(t)

	n, err := admin.SetLevels("*r*", Levels{Log: 2, Gather: 9})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, uint8(1), m.EffectiveLevel(0))
	assert.Equal(t, uint8(9), m.EffectiveLevel(1))
	assert.Equal(t, uint8(9), m.EffectiveLevel(2))
	assert.Equal(t, uint8(2), m.LogLevel(2))

	n, err = admin.SetLevels("{none,route}", Levels{Log: 0, Gather: 0})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, uint8(0), m.EffectiveLevel(0))
	assert.Equal(t, uint8(0), m.EffectiveLevel(1))
}

func Test_AdminSetLevelsErrors(t *testing.T) {
	admin, m, _ := newTestAdmin(t)

	_, err := admin.SetLevels("nat64", Levels{Log: 1, Gather: 1})
	assert.Error(t, err)

	_, err = admin.SetLevels("[", Levels{Log: 1, Gather: 1})
	assert.Error(t, err)

	assert.Equal(t, uint8(5), m.EffectiveLevel(1))
}

func Test_AdminSetSingleLevels(t *testing.T) {
	admin, m, _ := newTestAdmin(t)

	require.NoError(t, admin.SetGatherLevel("balancer", 10))
	assert.Equal(t, uint8(10), m.EffectiveLevel(2))
	assert.Equal(t, uint8(0), m.LogLevel(2))

	require.NoError(t, admin.SetLogLevel("route", 1))
	assert.Equal(t, uint8(1), m.EffectiveLevel(1))

	assert.Error(t, admin.SetLogLevel("nat64", 1))
	assert.Error(t, admin.SetGatherLevel("nat64", 1))
}

func Test_AdminApplyIsAllOrNothing(t *testing.T) {
	admin, m, _ := newTestAdmin(t)

	err := admin.Apply(Rules{
		{Pattern: "route", Levels: Levels{Log: 20, Gather: 20}},
		{Pattern: "nat64", Levels: Levels{Log: 1, Gather: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, uint8(5), m.EffectiveLevel(1))

	err = admin.Apply(Rules{
		{Pattern: "*", Levels: Levels{Log: 1, Gather: 2}},
		{Pattern: "route", Levels: Levels{Log: 20, Gather: 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, uint8(2), m.EffectiveLevel(0))
	assert.Equal(t, uint8(20), m.EffectiveLevel(1))
	assert.Equal(t, uint8(2), m.EffectiveLevel(2))
}

func Test_AdminReloadRestoresDefaults(t *testing.T) {
	admin, m, _ := newTestAdmin(t)

	require.NoError(t, admin.Apply(Rules{{Pattern: "*", Levels: Levels{Log: 30, Gather: 30}}}))
	require.NoError(t, admin.Reload(Rules{{Pattern: "route", Levels: Levels{Log: 7, Gather: 7}}}))

	assert.Equal(t, uint8(1), m.EffectiveLevel(0))
	assert.Equal(t, uint8(7), m.EffectiveLevel(1))
	assert.Equal(t, uint8(3), m.EffectiveLevel(2))

	admin.Reset()
	assert.Equal(t, uint8(5), m.EffectiveLevel(1))
}

func Test_AdminUpdateLevel(t *testing.T) {
	admin, _, atom := newTestAdmin(t)

	require.NoError(t, admin.UpdateLevel(zapcore.ErrorLevel))
	assert.Equal(t, zapcore.ErrorLevel, atom.Level())

	noAtom := NewAdmin(subsys.MustNew(testTable()), nil)
	assert.Error(t, noAtom.UpdateLevel(zapcore.ErrorLevel))
}

func Test_AdminSnapshot(t *testing.T) {
	admin, _, _ := newTestAdmin(t)
	require.NoError(t, admin.SetGatherLevel("balancer", 10))

	expected := []Entry{
		{ID: 0, Name: "none", Log: 1, Gather: 1, Effective: 1, Default: Levels{Log: 1, Gather: 1}},
		{ID: 1, Name: "route", Log: 5, Gather: 0, Effective: 5, Default: Levels{Log: 5, Gather: 0}},
		{ID: 2, Name: "balancer", Log: 0, Gather: 10, Effective: 10, Default: Levels{Log: 0, Gather: 3}},
	}
	if diff := cmp.Diff(expected, admin.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func Test_AdminConcurrentWriters(t *testing.T) {
	admin, m, _ := newTestAdmin(t)

	wg := sync.WaitGroup{}
	for idx := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for step := range 200 {
				level := uint8(idx*10 + step%10)
				if step%2 == 0 {
					assert.NoError(t, admin.SetGatherLevel("route", level))
				} else {
					assert.NoError(t, admin.SetLogLevel("route", level))
				}
				_ = m.ShouldGather(1, int(level))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, max(m.LogLevel(1), m.GatherLevel(1)), m.EffectiveLevel(1))
}

func Test_AdminLogsMatchedSubsystemsOnce(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	admin := NewAdmin(subsys.MustNew(testTable()), nil, WithLog(zap.New(core).Sugar()))

	n, err := admin.SetLevels("*r*", Levels{Log: 2, Gather: 9})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries := logs.FilterMessage("updated subsystem levels").All()
	require.Len(t, entries, 1)
	assert.Equal(t, []any{"route", "balancer"}, entries[0].ContextMap()["subsystems"])
	assert.Equal(t, "2/9", entries[0].ContextMap()["levels"])
}

func Test_AdminResetKeepsMatched(t *testing.T) {
	admin, m, _ := newTestAdmin(t)
	require.NoError(t, admin.Apply(Rules{{Pattern: "*", Levels: Levels{Log: 30, Gather: 30}}}))

	keep := subsys.Set{}
	keep.Insert(1)
	admin.reset(&keep)

	assert.Equal(t, uint8(1), m.EffectiveLevel(0))
	assert.Equal(t, uint8(30), m.EffectiveLevel(1))
	assert.Equal(t, uint8(3), m.EffectiveLevel(2))
}
