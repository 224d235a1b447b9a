package scan

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFs(t *testing.T, paths ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, p := range paths {
		require.NoError(t, afero.WriteFile(fs, p, []byte("x"), 0o644))
	}
	return fs
}

func TestDiscoverRecursive(t *testing.T) {
	fs := memFs(t,
		"case/C/ProgramData/Microsoft/Search/Data/Applications/Windows/Windows.edb",
		"case/D/Search/Windows.db",
		"case/C/notes.txt",
		"case/C/Windows.edb.bak",
	)
	stores, err := Discover(fs, "case")
	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, KindESE, stores[0].Kind)
	assert.Equal(t, "case/C/ProgramData/Microsoft/Search/Data/Applications/Windows/Windows.edb", stores[0].Path)
	assert.Equal(t, KindSQLite, stores[1].Kind)
	assert.Equal(t, "case/D/Search/Windows.db", stores[1].Path)
}

func TestDiscoverCaseInsensitiveName(t *testing.T) {
	fs := memFs(t, "evidence/WINDOWS.EDB")
	stores, err := Discover(fs, "evidence")
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, KindESE, stores[0].Kind)
}

func TestDiscoverSingleFile(t *testing.T) {
	fs := memFs(t, "exported/Windows.db")
	stores, err := Discover(fs, "exported/Windows.db")
	require.NoError(t, err)
	require.Equal(t, []Store{{Path: "exported/Windows.db", Kind: KindSQLite}}, stores)

	fs = memFs(t, "exported/other.bin")
	_, err = Discover(fs, "exported/other.bin")
	assert.Error(t, err)
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := Discover(afero.NewMemMapFs(), "nope")
	assert.Error(t, err)
}

func TestDiscoverEmptyTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("empty/sub", 0o755))
	stores, err := Discover(fs, "empty")
	require.NoError(t, err)
	assert.Empty(t, stores)
}

func TestStoreKindString(t *testing.T) {
	assert.Equal(t, "ese", KindESE.String())
	assert.Equal(t, "sqlite", KindSQLite.String())
}
