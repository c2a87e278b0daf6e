package discovery_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ctffs/ctf/discovery"
)

func writeMetadata(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata"), []byte("trace {};"), 0o644))
}

func TestDiscoverFindsNestedTraces(t *testing.T) {
	root := t.TempDir()
	writeMetadata(t, filepath.Join(root, "session-a", "trace-1"))
	writeMetadata(t, filepath.Join(root, "session-b", "trace-2"))

	traces, err := discovery.Discover(root, nil)
	require.NoError(t, err)
	require.Len(t, traces, 2)

	names := map[string]bool{}
	for _, tr := range traces {
		names[tr.Name] = true
		assert.DirExists(t, tr.Path)
	}
	assert.True(t, names["session-a/trace-1"])
	assert.True(t, names["session-b/trace-2"])
}

func TestDiscoverSingleTraceNameIsLeaf(t *testing.T) {
	root := t.TempDir()
	writeMetadata(t, filepath.Join(root, "only-trace"))

	traces, err := discovery.Discover(root, nil)
	require.NoError(t, err)
	require.Len(t, traces, 1)
	assert.Equal(t, "only-trace", traces[0].Name)
}

func TestDiscoverDoesNotRecurseIntoTraceDirectories(t *testing.T) {
	root := t.TempDir()
	writeMetadata(t, root)
	// A nested "metadata" file under the root trace must not be picked up
	// as a second trace: the root itself is already a trace directory.
	writeMetadata(t, filepath.Join(root, "nested"))

	traces, err := discovery.Discover(root, nil)
	require.NoError(t, err)
	require.Len(t, traces, 1)
	assert.Equal(t, root, traces[0].Path)
}

func TestDiscoverEmptyRootIsError(t *testing.T) {
	root := t.TempDir()
	_, err := discovery.Discover(root, nil)
	assert.Error(t, err)
}

func TestDiscoverRejectsFilesystemRoot(t *testing.T) {
	_, err := discovery.Discover("/", nil)
	assert.Error(t, err)
}

func TestDeriveNamesUniqueAcrossDistinctPaths(t *testing.T) {
	names := discovery.DeriveNames([]string{
		"/data/ctf/host-a/trace",
		"/data/ctf/host-b/trace",
	})
	require.Len(t, names, 2)
	assert.NotEqual(t, names[0], names[1])
	assert.Equal(t, "host-a/trace", names[0])
	assert.Equal(t, "host-b/trace", names[1])
}
