package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

func (c *Config) normalize() error {
	loadDotEnv()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSource(); err != nil {
		return err
	}
	c.normalizeSignature()
	c.normalizeMatching()
	c.normalizeLogging()
	return nil
}

// loadDotEnv reads ./.env when present. Variables already set in the
// environment win.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	_ = godotenv.Load(".env")
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ReportDir) == "" {
		c.Paths.ReportDir = defaultReportDir
	}
	if c.Paths.ReportDir, err = ExpandPath(c.Paths.ReportDir); err != nil {
		return fmt.Errorf("paths.report_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSource() error {
	var err error
	c.Source.VideosFile = strings.TrimSpace(c.Source.VideosFile)
	if c.Source.VideosFile == "" {
		if value, ok := os.LookupEnv(envVideosFile); ok {
			c.Source.VideosFile = strings.TrimSpace(value)
		}
	}
	if c.Source.VideosFile, err = ExpandPath(c.Source.VideosFile); err != nil {
		return fmt.Errorf("source.videos_file: %w", err)
	}
	c.Source.CreatorsFile = strings.TrimSpace(c.Source.CreatorsFile)
	if c.Source.CreatorsFile == "" {
		if value, ok := os.LookupEnv(envCreatorsFile); ok {
			c.Source.CreatorsFile = strings.TrimSpace(value)
		}
	}
	if c.Source.CreatorsFile, err = ExpandPath(c.Source.CreatorsFile); err != nil {
		return fmt.Errorf("source.creators_file: %w", err)
	}
	c.Source.APIURL = strings.TrimRight(strings.TrimSpace(c.Source.APIURL), "/")
	c.Source.APIKey = strings.TrimSpace(c.Source.APIKey)
	if c.Source.APIKey == "" {
		if value, ok := os.LookupEnv(envAPIKey); ok {
			c.Source.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Source.PageSize <= 0 || c.Source.PageSize > maxPageSize {
		c.Source.PageSize = defaultPageSize
	}
	if c.Source.APITimeoutSeconds <= 0 {
		c.Source.APITimeoutSeconds = defaultAPITimeoutSeconds
	}
	if c.Source.MaxRetries < 0 {
		c.Source.MaxRetries = 0
	}
	return nil
}

func (c *Config) normalizeSignature() {
	c.Signature.YTDLPBinary = strings.TrimSpace(c.Signature.YTDLPBinary)
	if c.Signature.YTDLPBinary == "" {
		c.Signature.YTDLPBinary = defaultYTDLPBinary
	}
	c.Signature.FFmpegBinary = strings.TrimSpace(c.Signature.FFmpegBinary)
	if c.Signature.FFmpegBinary == "" {
		c.Signature.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Signature.DownloadTimeoutSeconds <= 0 {
		c.Signature.DownloadTimeoutSeconds = defaultDownloadTimeoutSeconds
	}
	if c.Signature.ExtractTimeoutSeconds <= 0 {
		c.Signature.ExtractTimeoutSeconds = defaultExtractTimeoutSeconds
	}
	if c.Signature.LookupTimeoutSeconds <= 0 {
		c.Signature.LookupTimeoutSeconds = defaultLookupTimeoutSeconds
	}
}

func (c *Config) normalizeMatching() {
	c.Matching.FallbackStrategy = strings.ToLower(strings.TrimSpace(c.Matching.FallbackStrategy))
	if c.Matching.FallbackStrategy == "" {
		c.Matching.FallbackStrategy = defaultFallbackStrategy
	}
	if c.Matching.CreatorConcurrency <= 0 {
		c.Matching.CreatorConcurrency = defaultCreatorConcurrency
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if value, ok := os.LookupEnv(envLogLevel); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(value))
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
