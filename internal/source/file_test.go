package source_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pmpayout/internal/services"
	"pmpayout/internal/source"
)

func september() source.Window {
	return source.NewWindow(
		time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
	)
}

func writeDoc(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "videos.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWindowContainsWholeDays(t *testing.T) {
	w := september()
	cases := []struct {
		ts   time.Time
		want bool
	}{
		{time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2026, 9, 30, 23, 59, 59, 0, time.UTC), true},
		{time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC), false},
		{time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		if got := w.Contains(tc.ts); got != tc.want {
			t.Fatalf("Contains(%s)=%v want %v", tc.ts, got, tc.want)
		}
	}
}

func TestFileReadsArrayAndFiltersWindow(t *testing.T) {
	path := writeDoc(t, `[
  {"platform": "tiktok", "ad_link": "a", "created_at": "2026-09-02T10:00:00Z", "latest_views": 12345678901},
  {"platform": "tiktok", "ad_link": "b", "created_at": "2026-10-02T10:00:00Z"},
  {"platform": "instagram", "ad_link": "c"}
]`)
	rows, err := source.NewFile(path).Fetch(context.Background(), september())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected in-window row and undated row, got %d", len(rows))
	}
	if rows[0]["ad_link"] != "a" || rows[1]["ad_link"] != "c" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if _, ok := rows[0]["latest_views"].(interface{ Int64() (int64, error) }); !ok {
		t.Fatalf("expected numbers to decode as json.Number, got %T", rows[0]["latest_views"])
	}
}

func TestFileReadsEnvelope(t *testing.T) {
	path := writeDoc(t, `{"data": [{"platform": "tiktok", "ad_link": "a", "created_at": "2026-09-02T10:00:00Z"}], "pagination": {"total": 1}}`)
	rows, err := source.NewFile(path).Fetch(context.Background(), september())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
}

func TestFileErrors(t *testing.T) {
	_, err := source.NewFile(filepath.Join(t.TempDir(), "missing.json")).Fetch(context.Background(), september())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	for _, body := range []string{"", "42", "[{"} {
		_, err := source.NewFile(writeDoc(t, body)).Fetch(context.Background(), september())
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("body %q: expected ErrValidation, got %v", body, err)
		}
	}
}
