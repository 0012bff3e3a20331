package utils

import (
	"io"
	"strings"
	"sync"

	"github.com/decred/slog"
)

// Subsystem tags.
const (
	SubsystemGame   = "GAME"
	SubsystemActor  = "ACTR"
	SubsystemServer = "SRVR"
	SubsystemRelay  = "RLAY"
	SubsystemStore  = "STOR"
	SubsystemChain  = "CHAN"
)

// LogBackend hands out one logger per subsystem, all sharing a writer and a level.
type LogBackend struct {
	backend *slog.Backend
	level   slog.Level

	mu      sync.Mutex
	loggers map[string]slog.Logger
}

// NewLogBackend builds a backend writing to w. Unknown level strings fall
// back to info.
func NewLogBackend(w io.Writer, level string) *LogBackend {
	lvl, ok := slog.LevelFromString(strings.ToLower(level))
	if !ok {
		lvl = slog.LevelInfo
	}
	return &LogBackend{
		backend: slog.NewBackend(w),
		level:   lvl,
		loggers: make(map[string]slog.Logger),
	}
}

// Logger returns the logger for a subsystem, creating it on first use.
func (b *LogBackend) Logger(subsystem string) slog.Logger {
	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok := b.loggers[subsystem]; ok {
		return l
	}
	l := b.backend.Logger(subsystem)
	l.SetLevel(b.level)
	b.loggers[subsystem] = l
	return l
}

// OrDisabled substitutes the discarding logger for nil.
func OrDisabled(l slog.Logger) slog.Logger {
	if l == nil {
		return slog.Disabled
	}
	return l
}
