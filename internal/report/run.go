package report

import (
	"context"
	"errors"
	"time"

	"pmpayout/internal/payout"
	"pmpayout/internal/video"
)

// DateLayout is the layout used for run date ranges everywhere they are
// rendered.
const DateLayout = "2006-01-02"

// Stats counts records at each pipeline stage.
type Stats struct {
	Fetched           int   `json:"fetched"`
	Dropped           int   `json:"dropped"`
	Valid             int   `json:"valid"`
	DuplicatesRemoved int   `json:"duplicates_removed"`
	Unresolved        int   `json:"unresolved"`
	Paired            int   `json:"paired"`
	Unpaired          int   `json:"unpaired"`
	SignatureFailures int   `json:"signature_failures"`
	Exceptions        int   `json:"exceptions"`
	TotalPayout       int64 `json:"total_payout"`
}

// Run is one completed payout computation. StartedAt and FinishedAt are the
// only wall-clock values; everything else is a pure function of the input.
type Run struct {
	RunID      string                    `json:"run_id"`
	Start      time.Time                 `json:"-"`
	End        time.Time                 `json:"-"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt time.Time                 `json:"finished_at"`
	Stats      Stats                     `json:"stats"`
	Aggregates []payout.CreatorAggregate `json:"creators"`
	Units      []payout.Unit             `json:"units"`
	Exceptions []video.Exception         `json:"exceptions"`
}

// Range renders the run's inclusive creation-date range.
func (r Run) Range() (string, string) {
	return r.Start.Format(DateLayout), r.End.Format(DateLayout)
}

// Sink consumes a finished run.
type Sink interface {
	Write(ctx context.Context, run *Run) error
}

// Multi writes to every sink in order and joins their errors. A failing sink
// does not prevent later sinks from receiving the run.
type Multi []Sink

// Write implements Sink.
func (m Multi) Write(ctx context.Context, run *Run) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Write(ctx, run); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
