package testsupport

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pmpayout/internal/identity"
)

// Video builds a raw upstream row with the fields every valid record needs.
// created is formatted as RFC 3339.
func Video(platform, username, link string, created time.Time, durationSeconds, views int64) map[string]any {
	return map[string]any{
		"platform":     platform,
		"username":     username,
		"ad_link":      link,
		"created_at":   created.UTC().Format(time.RFC3339),
		"video_length": durationSeconds,
		"latest_views": views,
	}
}

// WriteVideos writes rows as a JSON array to path.
func WriteVideos(t testing.TB, path string, rows []map[string]any) {
	t.Helper()
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		t.Fatalf("marshal videos: %v", err)
	}
	writeFile(t, path, data)
}

// WriteCreators writes a creator handle map CSV with a header row.
func WriteCreators(t testing.TB, path string, creators []identity.Creator) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows := [][]string{{"creator", "tiktok_handle", "instagram_handle"}}
	for _, c := range creators {
		rows = append(rows, []string{c.Name, c.TikTokHandle, c.InstagramHandle})
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
