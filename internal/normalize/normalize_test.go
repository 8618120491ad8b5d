package normalize

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"pmpayout/internal/video"
)

func baseRaw() Raw {
	return Raw{
		"platform":          "TikTok",
		"username":          " alice ",
		"ad_link":           "https://www.tiktok.com/@alice/video/1",
		"ad_id":             "1",
		"uploaded_at":       "2026-03-01",
		"created_at":        "2026-03-01T10:00:00Z",
		"latest_updated_at": "2026-03-02T10:00:00Z",
		"video_length":      json.Number("21"),
		"latest_views":      json.Number("15000"),
	}
}

func TestOneAcceptsValidRecord(t *testing.T) {
	rec, exc, ok := One(baseRaw())
	if !ok || exc != nil {
		t.Fatalf("expected valid record, ok=%v exc=%+v", ok, exc)
	}
	if rec.Platform != video.TikTok {
		t.Fatalf("platform = %q", rec.Platform)
	}
	if rec.Username != "alice" {
		t.Fatalf("username = %q, want trimmed", rec.Username)
	}
	if rec.DurationSeconds != 21 || rec.Views != 15000 {
		t.Fatalf("duration/views = %d/%d", rec.DurationSeconds, rec.Views)
	}
	want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if !rec.CreatedAt.Equal(want) {
		t.Fatalf("created_at = %v, want %v", rec.CreatedAt, want)
	}
	if !rec.HasUploadDate() || rec.UploadDate.Day() != 1 {
		t.Fatalf("upload date = %v", rec.UploadDate)
	}
}

func TestOneDropsUnsupportedPlatform(t *testing.T) {
	raw := baseRaw()
	raw["platform"] = "youtube"
	if _, exc, ok := One(raw); ok || exc != nil {
		t.Fatalf("expected silent drop, ok=%v exc=%+v", ok, exc)
	}
}

func TestOneCoercesNumericForms(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  int64
	}{
		{"json number", json.Number("42"), 42},
		{"float", float64(42), 42},
		{"fractional float", 42.9, 42},
		{"int", 42, 42},
		{"numeric string", " 42 ", 42},
		{"float string", "42.7", 42},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := baseRaw()
			raw["latest_views"] = tc.value
			rec, exc, ok := One(raw)
			if !ok || exc != nil {
				t.Fatalf("unexpected rejection: %+v", exc)
			}
			if rec.Views != tc.want {
				t.Fatalf("views = %d, want %d", rec.Views, tc.want)
			}
		})
	}
}

func TestOneRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(Raw)
		want   video.Reason
	}{
		{"private", func(r Raw) { r["private"] = true }, video.ReasonPrivate},
		{"private string", func(r Raw) { r["private"] = "true" }, video.ReasonPrivate},
		{"removed", func(r Raw) { r["removed"] = json.Number("1") }, video.ReasonRemoved},
		{"private before removed", func(r Raw) { r["private"] = true; r["removed"] = true }, video.ReasonPrivate},
		{"missing duration", func(r Raw) { delete(r, "video_length") }, video.ReasonMissingDuration},
		{"null duration", func(r Raw) { r["video_length"] = nil }, video.ReasonMissingDuration},
		{"unparseable duration", func(r Raw) { r["video_length"] = "n/a" }, video.ReasonMissingDuration},
		{"zero duration", func(r Raw) { r["video_length"] = 0 }, video.ReasonInvalidDuration},
		{"missing views", func(r Raw) { delete(r, "latest_views") }, video.ReasonMissingViews},
		{"negative views", func(r Raw) { r["latest_views"] = -3 }, video.ReasonInvalidViews},
		{"missing created", func(r Raw) { delete(r, "created_at") }, video.ReasonMissingCreatedAt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := baseRaw()
			tc.mutate(raw)
			_, exc, ok := One(raw)
			if !ok {
				t.Fatal("expected classification, got drop")
			}
			if exc == nil {
				t.Fatal("expected exception")
			}
			if exc.Reason != tc.want {
				t.Fatalf("reason = %q, want %q", exc.Reason, tc.want)
			}
			if !exc.Reason.Valid() {
				t.Fatalf("reason %q outside closed set", exc.Reason)
			}
		})
	}
}

func TestOneZeroViewsIsValid(t *testing.T) {
	raw := baseRaw()
	raw["latest_views"] = json.Number("0")
	rec, exc, ok := One(raw)
	if !ok || exc != nil {
		t.Fatalf("explicit zero views must be accepted, exc=%+v", exc)
	}
	if rec.Views != 0 {
		t.Fatalf("views = %d", rec.Views)
	}
}

func TestOneExceptionKeepsKnownFields(t *testing.T) {
	raw := baseRaw()
	delete(raw, "latest_views")
	_, exc, _ := One(raw)
	if exc == nil {
		t.Fatal("expected exception")
	}
	if exc.DurationSeconds == nil || *exc.DurationSeconds != 21 {
		t.Fatalf("duration not carried: %+v", exc.DurationSeconds)
	}
	if exc.Views != nil {
		t.Fatalf("views should be nil, got %d", *exc.Views)
	}
	if !strings.HasSuffix(exc.Link, "/video/1") {
		t.Fatalf("link = %q", exc.Link)
	}
}

func TestBatchPartitions(t *testing.T) {
	good := baseRaw()
	bad := baseRaw()
	bad["removed"] = true
	other := baseRaw()
	other["platform"] = "youtube"

	result := Batch([]Raw{good, bad, other}, nil)
	if len(result.Records) != 1 || len(result.Exceptions) != 1 || result.Dropped != 1 {
		t.Fatalf("unexpected partition: records=%d exceptions=%d dropped=%d",
			len(result.Records), len(result.Exceptions), result.Dropped)
	}
}
