package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/ryanchen0/depthview/internal/domain"
)

// StatusSource is the slice of the session controller the watcher observes.
type StatusSource interface {
	Status() (domain.Status, string)
	SessionID() string
}

// SessionWatcher polls the session and raises an alert on transitions into or
// out of the error state and whenever the session ID changes. Polling keeps
// the controller free of any notification concern.
type SessionWatcher struct {
	source   StatusSource
	notifier *Notifier
	interval time.Duration
	logger   *slog.Logger
}

// NewSessionWatcher creates a watcher polling source at the given interval.
func NewSessionWatcher(source StatusSource, notifier *Notifier, interval time.Duration, logger *slog.Logger) *SessionWatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &SessionWatcher{
		source:   source,
		notifier: notifier,
		interval: interval,
		logger:   logger.With(slog.String("component", "session_watcher")),
	}
}

// Run blocks until ctx is cancelled, alerting on state changes between polls.
func (w *SessionWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	lastStatus, _ := w.source.Status()
	lastID := w.source.SessionID()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			lastStatus, lastID = w.check(ctx, lastStatus, lastID)
		}
	}
}

// check compares the current session state against the previous poll and
// fires the matching alerts. It returns the observed state for the next poll.
func (w *SessionWatcher) check(ctx context.Context, prevStatus domain.Status, prevID string) (domain.Status, string) {
	status, errMsg := w.source.Status()
	id := w.source.SessionID()

	if status == domain.StatusError && prevStatus != domain.StatusError {
		if err := w.notifier.Notify(ctx, EventSessionError,
			"Depth session error", errMsg); err != nil {
			w.logger.WarnContext(ctx, "alert delivery failed",
				slog.String("error", err.Error()),
			)
		}
	}
	if status == domain.StatusOpen && prevStatus == domain.StatusError {
		if err := w.notifier.Notify(ctx, EventSessionRecovered,
			"Depth session recovered", "session "+id+" is open"); err != nil {
			w.logger.WarnContext(ctx, "alert delivery failed",
				slog.String("error", err.Error()),
			)
		}
	}
	// A reconnect out of the error state is already covered by the
	// recovered alert above.
	recovered := status == domain.StatusOpen && prevStatus == domain.StatusError
	if id != prevID && prevID != "" && status != domain.StatusError && !recovered {
		if err := w.notifier.Notify(ctx, EventSessionRestarted,
			"Depth session restarted", "new session "+id); err != nil {
			w.logger.WarnContext(ctx, "alert delivery failed",
				slog.String("error", err.Error()),
			)
		}
	}

	return status, id
}
