package contentid

import (
	"strings"
	"time"
)

// FallbackStrategy selects the rule set for the fallback phase.
type FallbackStrategy string

const (
	FallbackPHash      FallbackStrategy = "phash"
	FallbackUploadDate FallbackStrategy = "upload_date"
)

// ParseFallbackStrategy reports whether value names a known strategy.
func ParseFallbackStrategy(value string) (FallbackStrategy, bool) {
	switch FallbackStrategy(strings.ToLower(strings.TrimSpace(value))) {
	case FallbackPHash:
		return FallbackPHash, true
	case FallbackUploadDate:
		return FallbackUploadDate, true
	default:
		return "", false
	}
}

// Policy centralizes matching thresholds and strategy rules.
type Policy struct {
	// HashThreshold is the largest Hamming distance treated as the same video.
	HashThreshold int
	Fallback      FallbackStrategy
	// EmitSoloUnits also emits unpaired records as zero-payout units.
	EmitSoloUnits     bool
	LookupConcurrency int
	LookupTimeout     time.Duration
}

// DefaultPolicy returns the production matching rules.
func DefaultPolicy() Policy {
	return Policy{
		HashThreshold:     10,
		Fallback:          FallbackPHash,
		LookupConcurrency: 4,
		LookupTimeout:     90 * time.Second,
	}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()

	if p.HashThreshold <= 0 || p.HashThreshold > 64 {
		p.HashThreshold = d.HashThreshold
	}
	if strategy, ok := ParseFallbackStrategy(string(p.Fallback)); ok {
		p.Fallback = strategy
	} else {
		p.Fallback = d.Fallback
	}
	if p.LookupConcurrency <= 0 {
		p.LookupConcurrency = d.LookupConcurrency
	}
	if p.LookupTimeout < 0 {
		p.LookupTimeout = 0
	}

	return p
}
