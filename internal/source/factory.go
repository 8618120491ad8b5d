package source

import (
	"log/slog"
	"strings"

	"pmpayout/internal/config"
)

// FromConfig selects the export API when source.api_url is set and the JSON
// file otherwise.
func FromConfig(cfg *config.Config, logger *slog.Logger) (VideoSource, error) {
	if strings.TrimSpace(cfg.Source.APIURL) == "" {
		return NewFile(cfg.Source.VideosFile), nil
	}
	return NewHTTP(HTTPConfig{
		BaseURL:    cfg.Source.APIURL,
		APIKey:     cfg.Source.APIKey,
		PageSize:   cfg.Source.PageSize,
		MaxRetries: cfg.Source.MaxRetries,
		HTTPClient: newHTTPClient(cfg.APITimeout()),
	}, logger)
}
