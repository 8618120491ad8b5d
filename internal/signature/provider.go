package signature

import (
	"log/slog"

	"pmpayout/internal/config"
)

// NewProvider assembles the production lookup chain:
//
//	Memo -> Cached -> Limited -> FrameHasher
//
// The cache layer is skipped when cache is nil or caching is disabled in
// configuration. Memo sits outermost so cache hits are shared too.
func NewProvider(cfg *config.Config, cache Cache, logger *slog.Logger) Provider {
	opts := FrameOptions{}
	concurrency := 0
	enableCache := cache != nil
	if cfg != nil {
		opts = FrameOptions{
			YTDLPBinary:     cfg.Signature.YTDLPBinary,
			FFmpegBinary:    cfg.Signature.FFmpegBinary,
			DownloadTimeout: cfg.DownloadTimeout(),
			ExtractTimeout:  cfg.ExtractTimeout(),
		}
		concurrency = cfg.Signature.Concurrency
		enableCache = enableCache && cfg.Signature.CacheEnabled
	}

	var provider Provider = NewLimited(NewFrameHasher(opts, logger), concurrency)
	if enableCache {
		provider = NewCached(provider, cache, logger)
	}
	return NewMemo(provider)
}
