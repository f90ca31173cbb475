package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

func Test_ParseLevels(t *testing.T) {
	cases := map[string]Levels{
		"5":       {Log: 5, Gather: 5},
		"1/5":     {Log: 1, Gather: 5},
		" 0/20 ":  {Log: 0, Gather: 20},
		"255/0":   {Log: 255, Gather: 0},
		"10 / 10": {Log: 10, Gather: 10},
	}

	for in, expected := range cases {
		t.Run(in, func(t *testing.T) {
			levels, err := ParseLevels(in)
			require.NoError(t, err)
			assert.Equal(t, expected, levels)
		})
	}
}

func Test_ParseLevelsErrors(t *testing.T) {
	for _, in := range []string{"", "x", "1/", "/1", "256", "1/256", "-1", "1/2/3"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseLevels(in)
			assert.Error(t, err)
		})
	}
}

func Test_ParseConfig(t *testing.T) {
	data := []byte(`
level: info
recent: 16
subsystems:
  "*": 0/1
  route: 1/5
  bird: 20
`)

	cfg, err := ParseConfig(data)
	require.NoError(t, err)

	assert.Equal(t, zapcore.InfoLevel, cfg.Level)
	assert.Equal(t, 16, cfg.Recent)

	expected := Rules{
		{Pattern: "*", Levels: Levels{Log: 0, Gather: 1}},
		{Pattern: "route", Levels: Levels{Log: 1, Gather: 5}},
		{Pattern: "bird", Levels: Levels{Log: 20, Gather: 20}},
	}
	if diff := cmp.Diff(expected, cfg.Subsystems); diff != "" {
		t.Errorf("rules mismatch (-want +got):\n%s", diff)
	}
}

func Test_ParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
}

func Test_ParseConfigErrors(t *testing.T) {
	cases := map[string]string{
		"bad level":      "subsystems: {route: 1/x}",
		"not a mapping":  "subsystems: [route]",
		"nested levels":  "subsystems: {route: {log: 1}}",
		"negative":       "recent: -1",
		"bad sink level": "level: loud",
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(data))
			assert.Error(t, err)
		})
	}
}

func Test_RulesRoundTripKeepsOrder(t *testing.T) {
	rules := Rules{
		{Pattern: "z*", Levels: Levels{Log: 1, Gather: 2}},
		{Pattern: "a", Levels: Levels{Log: 3, Gather: 3}},
	}

	data, err := yaml.Marshal(Config{Level: zapcore.WarnLevel, Subsystems: rules})
	require.NoError(t, err)

	cfg, err := ParseConfig(data)
	require.NoError(t, err)
	assert.Equal(t, rules, cfg.Subsystems)
	assert.Equal(t, zapcore.WarnLevel, cfg.Level)
}

func Test_LoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logging.yaml")
	require.NoError(t, os.WriteFile(path, []byte("subsystems: {route: 3}\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Rules{{Pattern: "route", Levels: Levels{Log: 3, Gather: 3}}}, cfg.Subsystems)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
