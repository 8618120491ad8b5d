package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"pmpayout/internal/contentid"
	"pmpayout/internal/identity"
	"pmpayout/internal/normalize"
	"pmpayout/internal/payout"
	"pmpayout/internal/pipeline"
	"pmpayout/internal/services"
	"pmpayout/internal/source"
	"pmpayout/internal/testsupport"
	"pmpayout/internal/video"
)

var (
	march  = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	window = pipeline.Request{
		Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}
)

type staticSource struct {
	rows  []map[string]any
	calls int
}

func (s *staticSource) Fetch(_ context.Context, _ source.Window) ([]normalize.Raw, error) {
	s.calls++
	out := make([]normalize.Raw, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, normalize.Raw(row))
	}
	return out, nil
}

type captureSink struct {
	runs []*pipeline.Result
	err  error
}

func (c *captureSink) Write(_ context.Context, run *pipeline.Result) error {
	c.runs = append(c.runs, run)
	return c.err
}

func creators() *identity.HandleMap {
	return identity.NewHandleMap([]identity.Creator{
		{Name: "alice", TikTokHandle: "alice.tt", InstagramHandle: "alice.ig"},
		{Name: "bob", TikTokHandle: "bob.tt", InstagramHandle: "bob.ig"},
	}, nil)
}

// aliceRows pairs TikTok#1 with Instagram#1 by sequence and leaves the second
// videos on each side without a same-length partner.
func aliceRows() []map[string]any {
	return []map[string]any{
		testsupport.Video("tiktok", "alice.tt", "tt-a1", march, 10, 1_500_000),
		testsupport.Video("tiktok", "alice.tt", "tt-a2", march.Add(48*time.Hour), 20, 40_000),
		testsupport.Video("instagram", "alice.ig", "ig-a1", march.Add(time.Hour), 10, 12_000),
		testsupport.Video("instagram", "alice.ig", "ig-a2", march.Add(49*time.Hour), 99, 7_000),
	}
}

func aliceSignatures() *testsupport.FakeSignatures {
	return testsupport.NewFakeSignatures().
		Set("tt-a1", 0).
		Set("ig-a1", 0b111).
		Set("tt-a2", 0xFFFF_0000_FFFF_0000).
		Set("ig-a2", 0x0F0F_0F0F_0F0F_0F0F)
}

func newRunner(src source.VideoSource, sigs *testsupport.FakeSignatures, opts ...pipeline.Option) *pipeline.Runner {
	matcher := contentid.NewMatcher(sigs, nil)
	return pipeline.NewRunner(src, creators(), matcher, nil, opts...)
}

func exceptionReasons(excs []video.Exception) []video.Reason {
	out := make([]video.Reason, 0, len(excs))
	for _, exc := range excs {
		out = append(out, exc.Reason)
	}
	return out
}

func TestRunAliceScenario(t *testing.T) {
	sink := &captureSink{}
	runner := newRunner(&staticSource{rows: aliceRows()}, aliceSignatures(), pipeline.WithSinks(sink))

	result, err := runner.Run(context.Background(), window)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Units) != 1 {
		t.Fatalf("expected one unit, got %d", len(result.Units))
	}
	unit := result.Units[0]
	if unit.Kind != payout.KindPaired || unit.Method != payout.MethodSequence {
		t.Fatalf("unexpected unit kind/method: %s/%s", unit.Kind, unit.Method)
	}
	if unit.Primary.Link != "tt-a1" || unit.Secondary == nil || unit.Secondary.Link != "ig-a1" {
		t.Fatalf("unexpected pair: %s + %v", unit.Primary.Link, unit.Secondary)
	}
	if unit.HashDistance == nil || *unit.HashDistance != 3 {
		t.Fatalf("expected hash distance 3, got %v", unit.HashDistance)
	}
	if unit.Payout != 700 {
		t.Fatalf("payout = %d, want 700", unit.Payout)
	}

	unpaired := map[string]bool{}
	for _, exc := range result.Exceptions {
		if exc.Reason != video.ReasonUnpaired {
			t.Fatalf("unexpected exception reason %q for %s", exc.Reason, exc.Link)
		}
		if exc.Creator != "alice" {
			t.Fatalf("exception creator = %q, want alice", exc.Creator)
		}
		unpaired[exc.Link] = true
	}
	if !unpaired["tt-a2"] || !unpaired["ig-a2"] || len(unpaired) != 2 {
		t.Fatalf("expected tt-a2 and ig-a2 unpaired, got %v", unpaired)
	}

	wantAggs := []payout.CreatorAggregate{
		{Creator: "alice", TotalPayout: 700, QualifiedUnits: 1, PairedUnits: 1, Exceptions: 2},
	}
	if diff := cmp.Diff(wantAggs, result.Aggregates); diff != "" {
		t.Fatalf("aggregates mismatch (-want +got):\n%s", diff)
	}
	if result.Stats.Fetched != 4 || result.Stats.Valid != 4 || result.Stats.Paired != 1 ||
		result.Stats.Unpaired != 2 || result.Stats.Exceptions != 2 || result.Stats.TotalPayout != 700 {
		t.Fatalf("unexpected stats: %+v", result.Stats)
	}
	if len(sink.runs) != 1 || sink.runs[0] != result {
		t.Fatalf("sink should receive the result exactly once, got %d", len(sink.runs))
	}
	if result.RunID == "" {
		t.Fatal("expected a run id")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	rows := append(aliceRows(),
		testsupport.Video("tiktok", "bob.tt", "tt-b1", march, 30, 500),
		testsupport.Video("instagram", "bob.ig", "ig-b1", march.Add(time.Minute), 30, 800),
		testsupport.Video("tiktok", "stranger", "tt-x1", march, 30, 5_000),
	)
	sigs := aliceSignatures().Set("tt-b1", 42).Set("ig-b1", 42)
	runner := newRunner(&staticSource{rows: rows}, sigs, pipeline.WithCreatorConcurrency(3))

	first, err := runner.Run(context.Background(), window)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := runner.Run(context.Background(), window)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if diff := cmp.Diff(first.Units, second.Units); diff != "" {
		t.Fatalf("units differ between runs:\n%s", diff)
	}
	if diff := cmp.Diff(first.Exceptions, second.Exceptions); diff != "" {
		t.Fatalf("exceptions differ between runs:\n%s", diff)
	}
	if diff := cmp.Diff(first.Aggregates, second.Aggregates); diff != "" {
		t.Fatalf("aggregates differ between runs:\n%s", diff)
	}
	if diff := cmp.Diff(first.Stats, second.Stats); diff != "" {
		t.Fatalf("stats differ between runs:\n%s", diff)
	}
	if first.RunID == second.RunID {
		t.Fatal("each run should get its own id")
	}
}

func TestRunCreatorWithoutQualifyingUnitsStillAppears(t *testing.T) {
	rows := []map[string]any{
		testsupport.Video("tiktok", "bob.tt", "tt-b1", march, 30, 500),
		testsupport.Video("instagram", "bob.ig", "ig-b1", march.Add(time.Minute), 30, 800),
	}
	sigs := testsupport.NewFakeSignatures().Set("tt-b1", 42).Set("ig-b1", 42)

	result, err := newRunner(&staticSource{rows: rows}, sigs).Run(context.Background(), window)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []payout.CreatorAggregate{{Creator: "bob", PairedUnits: 1}}
	if diff := cmp.Diff(want, result.Aggregates); diff != "" {
		t.Fatalf("aggregates mismatch (-want +got):\n%s", diff)
	}
}

func TestRunExceptionsFollowStageOrder(t *testing.T) {
	private := testsupport.Video("tiktok", "alice.tt", "tt-private", march, 10, 100)
	private["private"] = true
	rows := []map[string]any{
		testsupport.Video("instagram", "stranger", "ig-x1", march, 30, 5_000),
		testsupport.Video("youtube", "alice.yt", "yt-1", march, 30, 5_000),
		testsupport.Video("tiktok", "alice.tt", "tt-dup", march, 15, 1_000),
		testsupport.Video("tiktok", "alice.tt", "tt-dup", march, 15, 2_000),
		testsupport.Video("tiktok", "alice.tt", "tt-dup", march, 15, 2_000),
		private,
	}
	sigs := testsupport.NewFakeSignatures()

	result, err := newRunner(&staticSource{rows: rows}, sigs).Run(context.Background(), window)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []video.Reason{
		video.ReasonPrivate,
		video.ReasonDuplicateConflict,
		video.ReasonNotInCreatorList,
		video.ReasonUnpaired,
	}
	if diff := cmp.Diff(want, exceptionReasons(result.Exceptions)); diff != "" {
		t.Fatalf("exception order mismatch (-want +got):\n%s", diff)
	}
	if result.Stats.Dropped != 1 || result.Stats.DuplicatesRemoved != 1 || result.Stats.Unresolved != 1 {
		t.Fatalf("unexpected stats: %+v", result.Stats)
	}
	if sigs.TotalCalls() != 0 {
		t.Fatalf("a one-sided pool should not look up signatures, got %d calls", sigs.TotalCalls())
	}
}

func TestRunRejectsInvertedRange(t *testing.T) {
	src := &staticSource{rows: aliceRows()}
	req := pipeline.Request{Start: window.End, End: window.Start}

	_, err := newRunner(src, aliceSignatures()).Run(context.Background(), req)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if src.calls != 0 {
		t.Fatal("source should not be called for an invalid range")
	}
}

func TestRunPreflightFailureStopsBeforeFetch(t *testing.T) {
	src := &staticSource{rows: aliceRows()}
	sentinel := errors.New("missing yt-dlp")
	runner := newRunner(src, aliceSignatures(), pipeline.WithPreflight(func(context.Context) error {
		return sentinel
	}))

	if _, err := runner.Run(context.Background(), window); !errors.Is(err, sentinel) {
		t.Fatalf("expected preflight error, got %v", err)
	}
	if src.calls != 0 {
		t.Fatal("source should not be called when preflight fails")
	}
}

func TestRunSinkFailureReturnsResult(t *testing.T) {
	broken := &captureSink{err: errors.New("disk full")}
	healthy := &captureSink{}
	runner := newRunner(&staticSource{rows: aliceRows()}, aliceSignatures(), pipeline.WithSinks(broken, healthy))

	result, err := runner.Run(context.Background(), window)
	if err == nil {
		t.Fatal("expected sink error")
	}
	if result == nil || len(result.Units) != 1 {
		t.Fatalf("expected the computed result alongside the error, got %+v", result)
	}
	if len(healthy.runs) != 1 {
		t.Fatal("later sinks should still receive the run")
	}
}

func TestRunWithoutSignatureProviderIsConfigurationError(t *testing.T) {
	runner := pipeline.NewRunner(&staticSource{rows: aliceRows()}, creators(), contentid.NewMatcher(nil, nil), nil)
	_, err := runner.Run(context.Background(), window)
	if !errors.Is(err, services.ErrConfiguration) || !errors.Is(err, contentid.ErrNoSignatureProvider) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunUsesInjectedClockAndIDs(t *testing.T) {
	tick := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick = tick.Add(time.Second)
		return tick
	}
	runner := newRunner(&staticSource{rows: aliceRows()}, aliceSignatures(),
		pipeline.WithClock(clock),
		pipeline.WithRunIDs(func() string { return "run-fixed" }),
	)

	result, err := runner.Run(context.Background(), window)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.RunID != "run-fixed" {
		t.Fatalf("run id = %q", result.RunID)
	}
	if got := result.FinishedAt.Sub(result.StartedAt); got != time.Second {
		t.Fatalf("elapsed = %s, want 1s", got)
	}
	if start, end := result.Range(); start != "2026-03-01" || end != "2026-03-31" {
		t.Fatalf("range = %s..%s", start, end)
	}
}

type gatedMatcher struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (g *gatedMatcher) Match(ctx context.Context, pool identity.Pool) (contentid.Outcome, error) {
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	if creator, ok := services.CreatorFromContext(ctx); !ok || creator != pool.Creator {
		return contentid.Outcome{}, errors.New("creator missing from context")
	}
	return contentid.Outcome{Creator: pool.Creator}, nil
}

func TestRunBoundsCreatorConcurrency(t *testing.T) {
	var rows []map[string]any
	var list []identity.Creator
	for _, name := range []string{"c1", "c2", "c3", "c4", "c5", "c6"} {
		list = append(list, identity.Creator{Name: name, TikTokHandle: name})
		rows = append(rows, testsupport.Video("tiktok", name, "tt-"+name, march, 10, 100))
	}
	matcher := &gatedMatcher{}
	runner := pipeline.NewRunner(&staticSource{rows: rows}, identity.NewHandleMap(list, nil), matcher, nil,
		pipeline.WithCreatorConcurrency(2))

	result, err := runner.Run(context.Background(), window)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if peak := matcher.peak.Load(); peak > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", peak)
	}
	var names []string
	for _, agg := range result.Aggregates {
		names = append(names, agg.Creator)
	}
	if diff := cmp.Diff([]string{"c1", "c2", "c3", "c4", "c5", "c6"}, names); diff != "" {
		t.Fatalf("creator order mismatch:\n%s", diff)
	}
}
