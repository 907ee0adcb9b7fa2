// Package auditlog sets up the per-run append-only log file. Every run
// gets its own timestamped file; nothing is ever rewritten.
package auditlog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
)

// Open creates the run's log file under dir and returns a structured
// logger writing to it. The caller owns closing the file once the run
// ends.
func Open(dir string, now time.Time) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, errors.Wrap(err, "creating log directory")
	}

	name := fmt.Sprintf("org_deletion_%s.log", now.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating log file")
	}

	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return logger, f, nil
}
