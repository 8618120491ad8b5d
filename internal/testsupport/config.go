package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"pmpayout/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig returns a default config whose directories live under a fresh
// t.TempDir. Source paths point at videos.json and creators.csv in the same
// root; the files themselves are not created.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()
	cfg := config.Default()
	b := &configBuilder{t: t, baseDir: t.TempDir(), cfg: &cfg}
	under := func(name string) string { return filepath.Join(b.baseDir, name) }

	cfg.Paths = config.Paths{DataDir: under("data"), LogDir: under("logs"), ReportDir: under("reports")}
	cfg.Source.VideosFile = under("videos.json")
	cfg.Source.CreatorsFile = under("creators.csv")
	for _, opt := range opts {
		opt(b)
	}
	return b.cfg
}

// WithMatching lets a test adjust matching settings in place.
func WithMatching(fn func(*config.Matching)) ConfigOption {
	return func(b *configBuilder) {
		fn(&b.cfg.Matching)
	}
}

// WithoutSignatureCache disables the SQLite signature cache.
func WithoutSignatureCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Signature.CacheEnabled = false
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, yt-dlp and ffmpeg are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"yt-dlp", "ffmpeg"}
		}
		bin := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			StubBinary(b.t, bin, name, "#!/bin/sh\nexit 0\n")
		}
		prependPath(b.t, bin)
	}
}

// WithEmptyPath points PATH at an empty directory so no external binaries
// resolve.
func WithEmptyPath() ConfigOption {
	return func(b *configBuilder) {
		empty := filepath.Join(b.baseDir, "empty-bin")
		if err := os.MkdirAll(empty, 0o755); err != nil {
			b.t.Fatalf("mkdir empty bin: %v", err)
		}
		b.t.Setenv("PATH", empty)
	}
}

func prependPath(t testing.TB, dir string) {
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// StubBinary writes an executable script named name into dir and returns its
// path.
func StubBinary(t testing.TB, dir, name, script string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
