// Package jobs contains background maintenance tasks.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/meghkala/api/internal/domain"
)

// DefaultCleanupInterval is how often expired sessions are purged.
const DefaultCleanupInterval = time.Hour

// SessionCleaner periodically deletes expired sessions. Expired tokens
// already fail authentication; this only keeps the table from growing.
type SessionCleaner struct {
	sessions domain.SessionStore
	interval time.Duration
	logger   *slog.Logger
}

func NewSessionCleaner(sessions domain.SessionStore, interval time.Duration, logger *slog.Logger) *SessionCleaner {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionCleaner{sessions: sessions, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled, purging on each tick. Failures are
// logged and retried on the next tick.
func (c *SessionCleaner) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.sessions.DeleteExpired(ctx, time.Now()); err != nil {
				c.logger.Warn("session cleanup failed", "error", err)
				continue
			}
			c.logger.Debug("expired sessions purged")
		}
	}
}
