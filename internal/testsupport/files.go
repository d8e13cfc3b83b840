package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TouchFile creates path (and its parent directories) and sets its
// modification time to modTime.
func TouchFile(t testing.TB, path string, modTime time.Time) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("monitored\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}
