package analytics

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	logx "github.com/trade-chatbot/server/pkg/logger"
)

// QueryLogger appends one JSON line per answered question to a local file
// through a dedicated zerolog instance. It exists for offline analysis of
// what users ask; it must never affect the response path, so every failure
// is swallowed.
type QueryLogger struct {
	log      zerolog.Logger
	disabled bool
}

// NewQueryLogger opens (or creates) the JSONL file. When the file cannot be
// opened the logger degrades to a no-op instead of failing startup.
func NewQueryLogger(path string) *QueryLogger {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logx.Warn().Err(err).Str("path", path).Msg("query log directory unavailable, disabling query log")
		return &QueryLogger{disabled: true}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logx.Warn().Err(err).Str("path", path).Msg("query log file unavailable, disabling query log")
		return &QueryLogger{disabled: true}
	}
	return &QueryLogger{log: zerolog.New(f).With().Timestamp().Logger()}
}

// Log writes one event. Never returns an error and never panics.
func (q *QueryLogger) Log(event map[string]any) {
	if q == nil || q.disabled {
		return
	}
	defer func() {
		_ = recover()
	}()
	q.log.Log().Fields(event).Send()
}
