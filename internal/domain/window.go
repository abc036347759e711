package domain

import (
	"fmt"
	"time"
)

// Window is the trailing duration whose entries are considered current. Only
// the four fixed durations below are valid; anything else fails validation.
type Window time.Duration

// Allowed window selections.
const (
	Window1m  = Window(1 * time.Minute)
	Window5m  = Window(5 * time.Minute)
	Window15m = Window(15 * time.Minute)
	Window1h  = Window(1 * time.Hour)
)

// MaxWindow is the widest selectable window. The session controller prunes
// entries older than this regardless of the currently selected window so a
// later switch to a wider window can still see them.
const MaxWindow = Window1h

// Valid reports whether w is one of the fixed window selections.
func (w Window) Valid() bool {
	switch w {
	case Window1m, Window5m, Window15m, Window1h:
		return true
	}
	return false
}

// Millis returns the window length in milliseconds.
func (w Window) Millis() int64 {
	return time.Duration(w).Milliseconds()
}

// Contains reports whether an entry with the given timestamp (unix ms) is
// inside the window as observed at now (unix ms). The comparison is strict:
// an entry aged exactly the window length is already outside.
func (w Window) Contains(timestamp, now int64) bool {
	return now-timestamp < w.Millis()
}

func (w Window) String() string {
	return time.Duration(w).String()
}

// ParseWindow maps a selector such as "5m" or "1h" to its Window. Anything
// outside the fixed set is an error.
func ParseWindow(s string) (Window, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("domain: parse window %q: %w", s, err)
	}
	w := Window(d)
	if !w.Valid() {
		return 0, fmt.Errorf("domain: window %q is not a supported selection", s)
	}
	return w, nil
}
