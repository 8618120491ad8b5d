package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"pmpayout/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "pmpayout")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "pmpayout.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Paths.ReportDir != filepath.Join(tempHome, "pmpayout-reports") {
		t.Fatalf("unexpected report dir: %q", cfg.Paths.ReportDir)
	}
	if cfg.Matching.HashThreshold != 10 {
		t.Fatalf("unexpected hash threshold: %d", cfg.Matching.HashThreshold)
	}
	if cfg.Matching.FallbackStrategy != "phash" {
		t.Fatalf("unexpected fallback strategy: %q", cfg.Matching.FallbackStrategy)
	}
	if !cfg.Signature.CacheEnabled {
		t.Fatal("expected signature cache enabled by default")
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	configPath := filepath.Join(tempHome, "config.toml")
	content := `
[paths]
data_dir = "~/payout-data"

[source]
videos_file = "~/exports/videos.json"
creators_file = "~/exports/creators.csv"

[signature]
concurrency = 8
ytdlp_binary = " /opt/bin/yt-dlp "

[matching]
hash_threshold = 6
fallback_strategy = " Upload_Date "
emit_solo_units = true

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "payout-data") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Source.VideosFile != filepath.Join(tempHome, "exports", "videos.json") {
		t.Fatalf("unexpected videos file: %q", cfg.Source.VideosFile)
	}
	if cfg.Signature.Concurrency != 8 || cfg.Signature.YTDLPBinary != "/opt/bin/yt-dlp" {
		t.Fatalf("unexpected signature section: %+v", cfg.Signature)
	}
	if cfg.Signature.DownloadTimeoutSeconds != 60 {
		t.Fatalf("expected default download timeout, got %d", cfg.Signature.DownloadTimeoutSeconds)
	}
	if cfg.Matching.HashThreshold != 6 || cfg.Matching.FallbackStrategy != "upload_date" || !cfg.Matching.EmitSoloUnits {
		t.Fatalf("unexpected matching section: %+v", cfg.Matching)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging section: %+v", cfg.Logging)
	}
	if err := cfg.ValidateSources(); err != nil {
		t.Fatalf("ValidateSources: %v", err)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[matching]\nthreshold = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to fail parsing")
	}
}

func TestSourceEnvFallbackAndDotEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	workDir := t.TempDir()
	t.Chdir(workDir)
	t.Setenv("PMPAYOUT_VIDEOS_FILE", "/data/videos.json")
	if err := os.WriteFile(filepath.Join(workDir, ".env"),
		[]byte("PMPAYOUT_VIDEOS_FILE=/ignored.json\nPMPAYOUT_CREATORS_FILE=/data/creators.csv\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("PMPAYOUT_CREATORS_FILE") })

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.VideosFile != "/data/videos.json" {
		t.Fatalf("environment must win over .env, got %q", cfg.Source.VideosFile)
	}
	if cfg.Source.CreatorsFile != "/data/creators.csv" {
		t.Fatalf("expected creators file from .env, got %q", cfg.Source.CreatorsFile)
	}
}

func TestValidateSourcesRequiresFiles(t *testing.T) {
	cfg := config.Default()
	err := cfg.ValidateSources()
	if err == nil || !strings.Contains(err.Error(), "source.videos_file or source.api_url is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateSourcesAPIRequiresKey(t *testing.T) {
	cfg := config.Default()
	cfg.Source.APIURL = "https://api.example.com"
	cfg.Source.CreatorsFile = "/data/creators.csv"
	err := cfg.ValidateSources()
	if err == nil || !strings.Contains(err.Error(), "source.api_key is required") {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Source.APIKey = "secret"
	if err := cfg.ValidateSources(); err != nil {
		t.Fatalf("expected API source to validate, got %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"concurrency", func(c *config.Config) { c.Signature.Concurrency = 0 }, "signature.concurrency must be positive"},
		{"threshold", func(c *config.Config) { c.Matching.HashThreshold = 65 }, "matching.hash_threshold must be between 1 and 64"},
		{"strategy", func(c *config.Config) { c.Matching.FallbackStrategy = "closest" }, "matching.fallback_strategy must be"},
		{"level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level must be one of"},
		{"timeouts", func(c *config.Config) { c.Signature.LookupTimeoutSeconds = 5 }, "signature.lookup_timeout_seconds"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}

func TestSampleConfigParsesAndValidates(t *testing.T) {
	var cfg config.Config
	if err := toml.Unmarshal([]byte(config.SampleConfig()), &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config does not validate: %v", err)
	}
	defaults := config.Default()
	if cfg.Signature != defaults.Signature || cfg.Matching != defaults.Matching || cfg.Source != defaults.Source {
		t.Fatalf("sample config drifted from defaults:\n%+v\n%+v", cfg, defaults)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[matching]") {
		t.Fatal("sample missing matching section")
	}
}
