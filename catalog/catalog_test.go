package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanet-platform/logsubsys/subsys"
)

func Test_DefaultIsValid(t *testing.T) {
	m, err := subsys.New(Default())
	require.NoError(t, err)

	assert.Equal(t, int(numDefault), m.Len())
	assert.Equal(t, "none", m.Name(None))
	assert.Equal(t, "route", m.Name(Route))
	assert.Equal(t, "ffi", m.Name(FFI))

	for id, d := range m.All() {
		assert.NotEmpty(t, d.Name, "subsystem %d", id)
	}
}

func Test_DefaultReturnsCopy(t *testing.T) {
	table := Default()
	table[Route].Name = "mangled"

	assert.Equal(t, "route", Default()[Route].Name)
}

func Test_Parse(t *testing.T) {
	data := []byte(`
subsystems:
  - name: none
  - name: osd
    log_level: 1
    gather_level: 5
  - name: ms
    gather_level: 1
    max_default: 20
`)

	table, err := Parse(data)
	require.NoError(t, err)

	expected := []subsys.Descriptor{
		{Name: "none"},
		{Name: "osd", LogLevel: 1, GatherLevel: 5},
		{Name: "ms", GatherLevel: 1, MaxDefault: 20},
	}
	if diff := cmp.Diff(expected, table); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func Test_ParseErrors(t *testing.T) {
	_, err := Parse([]byte(`subsystems: []`))
	assert.Error(t, err)

	_, err = Parse([]byte(`subsystems: [{name: x, log_level: 300}]`))
	assert.Error(t, err)

	_, err = Parse([]byte(`subsystems: {`))
	assert.Error(t, err)
}

func Test_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("subsystems:\n  - name: none\n"), 0o644))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []subsys.Descriptor{{Name: "none"}}, table)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
