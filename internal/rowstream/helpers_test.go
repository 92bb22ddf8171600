package rowstream

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// writeTempFile writes content to a file in a fresh temp directory and returns its path.
func writeTempFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write temp file %s: %v", path, err)
	}
	return path
}

// recorder is an Observer that keeps an ordered log of notifications.
type recorder struct {
	mu     sync.Mutex
	events []string
	rows   []Row
	errs   []error
}

func (r *recorder) OnRow(row Row, index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("row:%d", index))
	r.rows = append(r.rows, row)
}

func (r *recorder) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "error")
	r.errs = append(r.errs, err)
}

func (r *recorder) OnDone() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "done")
}
