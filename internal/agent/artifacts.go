// internal/agent/artifacts.go
package agent

import (
	"fmt"
	"os"
	"path/filepath"
)

// artifactName is the file the final snapshot of phase n is written to.
func artifactName(phase int) string {
	return fmt.Sprintf("phase_%d_ui.html", phase)
}

// writeArtifact persists snapshot under dir and returns its path.
func writeArtifact(dir string, phase int, snapshot string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	path := filepath.Join(dir, artifactName(phase))
	if err := os.WriteFile(path, []byte(snapshot), 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot artifact: %w", err)
	}
	return path, nil
}
