package report_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pmpayout/internal/payout"
	"pmpayout/internal/report"
	"pmpayout/internal/video"
)

func sampleRun() *report.Run {
	tt := video.Record{Platform: video.TikTok, Username: "alice", Link: "https://t/1", Views: 12_000, DurationSeconds: 10}
	ig := video.Record{Platform: video.Instagram, Username: "alice", Link: "https://i/1", Views: 8_000, DurationSeconds: 10}
	unit := payout.NewPair("Alice", tt, ig, payout.MethodSequence, nil)
	return &report.Run{
		RunID:      "run-1",
		Start:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		Units:      []payout.Unit{unit},
		Exceptions: []video.Exception{},
		Aggregates: payout.Summarize([]string{"Alice"}, []payout.Unit{unit}, nil),
	}
}

func TestJSONFileWritesNamedReport(t *testing.T) {
	dir := t.TempDir()
	sink := report.NewJSONFile(dir)
	run := sampleRun()

	if err := sink.Write(context.Background(), run); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	want := filepath.Join(dir, "payout_2026-09-01_to_2026-09-30.json")
	if sink.LastPath() != want {
		t.Fatalf("unexpected path %q", sink.LastPath())
	}

	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var doc struct {
		Start    string           `json:"start"`
		End      string           `json:"end"`
		RunID    string           `json:"run_id"`
		Creators []map[string]any `json:"creators"`
		Units    []map[string]any `json:"units"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if doc.Start != "2026-09-01" || doc.End != "2026-09-30" || doc.RunID != "run-1" {
		t.Fatalf("unexpected header: %+v", doc)
	}
	if len(doc.Units) != 1 || doc.Units[0]["payout"] != float64(50) {
		t.Fatalf("unexpected units: %v", doc.Units)
	}
	if len(doc.Creators) != 1 || doc.Creators[0]["total_payout"] != float64(50) {
		t.Fatalf("unexpected creators: %v", doc.Creators)
	}
}

func TestJSONFileHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := report.NewJSONFile(t.TempDir()).Write(ctx, sampleRun()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type recordingSink struct {
	runs []string
	err  error
}

func (r *recordingSink) Write(_ context.Context, run *report.Run) error {
	r.runs = append(r.runs, run.RunID)
	return r.err
}

func TestMultiDeliversToEverySink(t *testing.T) {
	failing := &recordingSink{err: errors.New("disk full")}
	ok := &recordingSink{}
	multi := report.Multi{failing, nil, ok}

	err := multi.Write(context.Background(), sampleRun())
	if err == nil || err.Error() != "disk full" {
		t.Fatalf("expected joined sink error, got %v", err)
	}
	if len(ok.runs) != 1 {
		t.Fatal("later sink should still receive the run")
	}
}
