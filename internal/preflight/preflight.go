package preflight

import (
	"context"
	"fmt"
	"strings"

	"pmpayout/internal/config"
	"pmpayout/internal/deps"
	"pmpayout/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes the readiness checks for the given config. The video API
// is only checked when it is the configured source.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Report directory", cfg.Paths.ReportDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	if cfg.Source.APIURL != "" {
		results = append(results, CheckVideoAPI(ctx, cfg.Source.APIURL, cfg.Source.APIKey))
	} else {
		results = append(results, CheckFileReadable("Videos file", cfg.Source.VideosFile))
	}
	results = append(results, CheckFileReadable("Creators file", cfg.Source.CreatorsFile))

	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

// MissingDependenciesError lists required binaries that could not be resolved.
// It matches services.ErrConfiguration under errors.Is.
type MissingDependenciesError struct {
	Missing []deps.Status
}

func (e *MissingDependenciesError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, status := range e.Missing {
		part := fmt.Sprintf("%s (%s)", status.Name, status.Command)
		if status.Description != "" {
			part += ": " + status.Description
		}
		if status.Detail != "" {
			part += " [" + status.Detail + "]"
		}
		parts = append(parts, part)
	}
	return "missing required dependencies: " + strings.Join(parts, "; ")
}

// Is reports whether target is the configuration error marker.
func (e *MissingDependenciesError) Is(target error) bool {
	return target == services.ErrConfiguration
}

// RequireSignatureDeps returns a MissingDependenciesError when yt-dlp or
// ffmpeg cannot be resolved.
func RequireSignatureDeps(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "signature deps", "configuration unavailable", nil)
	}
	if missing := deps.Missing(CheckSignatureDeps(ctx, cfg)); len(missing) > 0 {
		return &MissingDependenciesError{Missing: missing}
	}
	return nil
}
