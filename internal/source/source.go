package source

import (
	"context"
	"time"

	"pmpayout/internal/normalize"
)

// VideoSource yields raw video payloads created within a window.
type VideoSource interface {
	Fetch(ctx context.Context, window Window) ([]normalize.Raw, error)
}

// Window is an inclusive range of calendar dates in UTC.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow truncates start and end to their UTC calendar dates.
func NewWindow(start, end time.Time) Window {
	return Window{Start: dateOf(start), End: dateOf(end)}
}

// Contains reports whether ts falls on a date inside the window.
func (w Window) Contains(ts time.Time) bool {
	day := dateOf(ts)
	return !day.Before(w.Start) && !day.After(w.End)
}

func dateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
