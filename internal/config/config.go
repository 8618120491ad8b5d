package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	LogDir    string `toml:"log_dir"`
	ReportDir string `toml:"report_dir"`
}

// Source names the inputs for a payout run. Videos come from the export API
// when api_url is set, otherwise from videos_file.
type Source struct {
	VideosFile        string `toml:"videos_file"`
	CreatorsFile      string `toml:"creators_file"`
	APIURL            string `toml:"api_url"`
	APIKey            string `toml:"api_key"`
	PageSize          int    `toml:"page_size"`
	APITimeoutSeconds int    `toml:"api_timeout_seconds"`
	MaxRetries        int    `toml:"max_retries"`
}

// Signature configures first-frame perceptual hashing.
type Signature struct {
	YTDLPBinary            string `toml:"ytdlp_binary"`
	FFmpegBinary           string `toml:"ffmpeg_binary"`
	DownloadTimeoutSeconds int    `toml:"download_timeout_seconds"`
	ExtractTimeoutSeconds  int    `toml:"extract_timeout_seconds"`
	LookupTimeoutSeconds   int    `toml:"lookup_timeout_seconds"`
	Concurrency            int    `toml:"concurrency"`
	CacheEnabled           bool   `toml:"cache_enabled"`
}

// Matching configures the cross-platform matcher.
type Matching struct {
	HashThreshold      int    `toml:"hash_threshold"`
	FallbackStrategy   string `toml:"fallback_strategy"`
	EmitSoloUnits      bool   `toml:"emit_solo_units"`
	CreatorConcurrency int    `toml:"creator_concurrency"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for pmpayout.
//
// Configuration sections by subsystem:
//   - Paths: run history database, logs, and reports
//   - Source: video export and creator list files
//   - Signature: yt-dlp/ffmpeg tooling, timeouts, and the signature cache
//   - Matching: hash threshold and fallback strategy
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Source    Source    `toml:"source"`
	Signature Signature `toml:"signature"`
	Matching  Matching  `toml:"matching"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// Load reads the config file, applies defaults for every omitted key,
// normalizes paths and environment fallbacks, and validates the result.
// It also reports the resolved path and whether a file was found there.
// Unknown keys are rejected.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}
	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// locate resolves an explicit path as given. Without one it tries the
// per-user file, then pmpayout.toml in the working directory, and falls back
// to the per-user path when neither exists.
func locate(explicit string) (string, bool, error) {
	if explicit != "" {
		path, err := ExpandPath(explicit)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(path)
		return path, exists, err
	}
	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	local, err := filepath.Abs("pmpayout.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, local} {
		if ok, _ := isFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	}
	return !info.IsDir(), nil
}

// EnsureDirectories creates the data, log, and report directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.ReportDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite run history location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "pmpayout.db")
}

// LockPath returns the file used to serialize payout runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "pmpayout.lock")
}

// LogPath returns the log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "pmpayout.log")
}

// DownloadTimeout returns the yt-dlp timeout.
func (c *Config) DownloadTimeout() time.Duration { return seconds(c.Signature.DownloadTimeoutSeconds) }

// ExtractTimeout returns the ffmpeg timeout.
func (c *Config) ExtractTimeout() time.Duration { return seconds(c.Signature.ExtractTimeoutSeconds) }

// APITimeout returns the per-request timeout for the export API.
func (c *Config) APITimeout() time.Duration { return seconds(c.Source.APITimeoutSeconds) }

// LookupTimeout bounds one complete signature lookup.
func (c *Config) LookupTimeout() time.Duration { return seconds(c.Signature.LookupTimeoutSeconds) }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// ExpandPath turns a "~" prefix into the home directory and returns the
// cleaned absolute path. The empty string is returned unchanged.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = home + strings.TrimPrefix(p, "~")
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders cfg as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
