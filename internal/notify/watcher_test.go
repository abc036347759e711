package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanchen0/depthview/internal/domain"
)

type fakeSource struct {
	status domain.Status
	errMsg string
	id     string
}

func (f *fakeSource) Status() (domain.Status, string) { return f.status, f.errMsg }
func (f *fakeSource) SessionID() string               { return f.id }

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(ctx context.Context, title, message string) error {
	r.titles = append(r.titles, title)
	return nil
}

func (r *recordingSender) Name() string { return "recording" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newWatcher(source *fakeSource, sender Sender, events []string) *SessionWatcher {
	notifier := NewNotifier([]Sender{sender}, events, testLogger())
	return NewSessionWatcher(source, notifier, 0, testLogger())
}

func TestWatcherAlertsOnErrorTransition(t *testing.T) {
	source := &fakeSource{status: domain.StatusOpen, id: "s1"}
	sender := &recordingSender{}
	w := newWatcher(source, sender, nil)

	ctx := context.Background()
	prevStatus, prevID := source.status, source.id

	// No transition, no alert.
	prevStatus, prevID = w.check(ctx, prevStatus, prevID)
	assert.Empty(t, sender.titles)

	// Open -> error fires once.
	source.status = domain.StatusError
	source.errMsg = "binance: stream read failed"
	prevStatus, prevID = w.check(ctx, prevStatus, prevID)
	require.Len(t, sender.titles, 1)
	assert.Equal(t, "Depth session error", sender.titles[0])

	// Staying in error does not re-alert.
	prevStatus, prevID = w.check(ctx, prevStatus, prevID)
	assert.Len(t, sender.titles, 1)

	// Error -> open fires the recovery alert, even with a new session ID.
	source.status = domain.StatusOpen
	source.errMsg = ""
	source.id = "s2"
	w.check(ctx, prevStatus, prevID)
	require.Len(t, sender.titles, 2)
	assert.Equal(t, "Depth session recovered", sender.titles[1])
}

func TestWatcherAlertsOnRestart(t *testing.T) {
	source := &fakeSource{status: domain.StatusOpen, id: "s1"}
	sender := &recordingSender{}
	w := newWatcher(source, sender, nil)

	source.id = "s2"
	w.check(context.Background(), domain.StatusOpen, "s1")

	require.Len(t, sender.titles, 1)
	assert.Equal(t, "Depth session restarted", sender.titles[0])
}

func TestWatcherEventFilter(t *testing.T) {
	source := &fakeSource{status: domain.StatusError, errMsg: "boom", id: "s1"}
	sender := &recordingSender{}
	w := newWatcher(source, sender, []string{EventSessionRestarted})

	w.check(context.Background(), domain.StatusOpen, "s1")

	assert.Empty(t, sender.titles)
}
