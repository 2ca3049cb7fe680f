package agent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactName(t *testing.T) {
	assert.Equal(t, "phase_1_ui.html", artifactName(1))
	assert.Equal(t, "phase_8_ui.html", artifactName(8))
}

func TestWriteArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	path, err := writeArtifact(dir, 3, "<html></html>")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "phase_3_ui.html"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))

	// A second write for the same phase overwrites.
	_, err = writeArtifact(dir, 3, "<p>new</p>")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<p>new</p>", string(data))
}

func TestWriteArtifact_DirIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := writeArtifact(file, 1, "<html></html>")
	assert.Error(t, err)
}
