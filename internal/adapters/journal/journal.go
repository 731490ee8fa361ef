package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileJournal appends "<RFC3339 time>;<status>;<message>" lines to a file
type FileJournal struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewFileJournal creates a new file journal
func NewFileJournal(path string) *FileJournal {
	return &FileJournal{path: path, now: time.Now}
}

// Append writes one line. The file is opened per call so external rotation works.
func (j *FileJournal) Append(ctx context.Context, status, message string) error {
	line := fmt.Sprintf("%s;%s;%s\n", j.now().Format(time.RFC3339), status, oneLine(message))

	j.mu.Lock()
	defer j.mu.Unlock()

	if dir := filepath.Dir(j.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create journal directory: %w", err)
		}
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return f.Close()
}

func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
