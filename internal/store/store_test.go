package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"pmpayout/internal/payout"
	"pmpayout/internal/report"
	"pmpayout/internal/store"
	"pmpayout/internal/testsupport"
	"pmpayout/internal/video"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	return testsupport.MustOpenStore(t, testsupport.NewConfig(t))
}

func sampleRun(id string, startedAt time.Time) *report.Run {
	created := time.Date(2026, 9, 3, 12, 0, 0, 0, time.UTC)
	tt := video.Record{Platform: video.TikTok, Username: "alice", Link: "https://t/1", Creator: "Alice", CreatedAt: created, DurationSeconds: 10, Views: 1_500_000}
	ig := video.Record{Platform: video.Instagram, Username: "alice", Link: "https://i/1", Creator: "Alice", CreatedAt: created.Add(time.Hour), DurationSeconds: 10, Views: 900}
	distance := 3
	units := []payout.Unit{payout.NewPair("Alice", tt, ig, payout.MethodSequence, &distance)}
	exceptions := []video.Exception{
		video.NewException(video.Record{Platform: video.Instagram, Username: "ghost", Link: "https://i/9", CreatedAt: created}, video.ReasonNotInCreatorList),
	}
	aggregates := payout.Summarize([]string{"Alice", "Bob"}, units, exceptions)
	return &report.Run{
		RunID:      id,
		Start:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(time.Minute),
		Stats:      report.Stats{Fetched: 3, Valid: 3, Paired: 1, Exceptions: 1, TotalPayout: payout.Total(aggregates)},
		Aggregates: aggregates,
		Units:      units,
		Exceptions: exceptions,
	}
}

func TestWriteAndGetRunRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	run := sampleRun("run-1", time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC))

	if err := s.Write(ctx, run); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected run to be found")
	}
	if diff := cmp.Diff(run, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteReplacesExistingRun(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	run := sampleRun("run-1", time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC))
	if err := s.Write(ctx, run); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	run.Exceptions = []video.Exception{}
	if err := s.Write(ctx, run); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}
	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if len(got.Exceptions) != 0 {
		t.Fatalf("expected replaced run to have no exceptions, got %d", len(got.Exceptions))
	}
}

func TestGetRunUnknown(t *testing.T) {
	s := openStore(t)
	got, err := s.GetRun(context.Background(), "missing")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil for unknown run, got %v %v", got, err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	offsets := []struct {
		id     string
		offset time.Duration
	}{
		{"old", 0},
		{"new", 2 * time.Hour},
		{"mid", time.Hour},
	}
	for _, o := range offsets {
		if err := s.Write(ctx, sampleRun(o.id, base.Add(o.offset))); err != nil {
			t.Fatalf("Write %s failed: %v", o.id, err)
		}
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"new", "mid", "old"}, ids); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if runs[0].UnitCount != 1 || runs[0].ExceptionCount != 1 || runs[0].TotalPayout != 700 {
		t.Fatalf("unexpected summary %+v", runs[0])
	}

	limited, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(limited))
	}
}

func TestSignatureCache(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, ok, err := s.LookupSignature(ctx, "https://t/1"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	// The high bit exercises the signed storage round trip.
	const hash = uint64(0xfedcba9876543210)
	if err := s.SaveSignature(ctx, " https://t/1 ", hash); err != nil {
		t.Fatalf("SaveSignature failed: %v", err)
	}
	got, ok, err := s.LookupSignature(ctx, "https://t/1")
	if err != nil || !ok || got != hash {
		t.Fatalf("expected %x, got %x ok=%v err=%v", hash, got, ok, err)
	}
	if err := s.SaveSignature(ctx, "https://t/1", 7); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if got, _, _ := s.LookupSignature(ctx, "https://t/1"); got != 7 {
		t.Fatalf("expected overwrite to win, got %d", got)
	}
	if n, err := s.CountSignatures(ctx); err != nil || n != 1 {
		t.Fatalf("expected 1 cached signature, got %d %v", n, err)
	}
	if removed, err := s.ClearSignatures(ctx); err != nil || removed != 1 {
		t.Fatalf("expected 1 removed, got %d %v", removed, err)
	}
	if err := s.SaveSignature(ctx, "  ", 1); err == nil {
		t.Fatal("expected error for empty link")
	}
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pmpayout.db")
	s, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	_ = s.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := store.OpenPath(path); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
