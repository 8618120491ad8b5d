package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSignature(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateSources checks the input files needed by a payout run. It is
// separate from Validate so commands that never read inputs can run without
// them.
func (c *Config) ValidateSources() error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	if strings.TrimSpace(c.Source.APIURL) != "" {
		if _, err := url.ParseRequestURI(c.Source.APIURL); err != nil {
			return fmt.Errorf("source.api_url is not a valid URL: %w", err)
		}
		if strings.TrimSpace(c.Source.APIKey) == "" {
			return fmt.Errorf("source.api_key is required when source.api_url is set. Set %s or edit %s", envAPIKey, defaultPath)
		}
	} else if strings.TrimSpace(c.Source.VideosFile) == "" {
		return fmt.Errorf("source.videos_file or source.api_url is required. Set %s or edit %s (create with 'pmpayout config init')", envVideosFile, defaultPath)
	}
	if strings.TrimSpace(c.Source.CreatorsFile) == "" {
		return fmt.Errorf("source.creators_file is required. Set %s or edit %s (create with 'pmpayout config init')", envCreatorsFile, defaultPath)
	}
	return nil
}

func (c *Config) validateSignature() error {
	if c.Signature.Concurrency <= 0 {
		return errors.New("signature.concurrency must be positive")
	}
	if c.Signature.LookupTimeoutSeconds < c.Signature.DownloadTimeoutSeconds {
		return errors.New("signature.lookup_timeout_seconds must be at least signature.download_timeout_seconds")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.HashThreshold < 1 || c.Matching.HashThreshold > 64 {
		return errors.New("matching.hash_threshold must be between 1 and 64")
	}
	switch c.Matching.FallbackStrategy {
	case "phash", "upload_date":
	default:
		return fmt.Errorf("matching.fallback_strategy must be \"phash\" or \"upload_date\", got %q", c.Matching.FallbackStrategy)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
