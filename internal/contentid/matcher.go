package contentid

import (
	"context"
	"errors"
	"log/slog"

	"pmpayout/internal/identity"
	"pmpayout/internal/logging"
	"pmpayout/internal/payout"
	"pmpayout/internal/video"
)

// ErrNoSignatureProvider is returned by Match when the matcher was built
// without a SignatureProvider.
var ErrNoSignatureProvider = errors.New("contentid: signature provider not configured")

// Matcher pairs cross-platform videos for one creator at a time. A Matcher
// holds no per-creator state and may be shared across goroutines.
type Matcher struct {
	policy   Policy
	provider SignatureProvider
	logger   *slog.Logger
}

// Option customises the Matcher.
type Option func(*Matcher)

// WithPolicy overrides the default matching policy. Invalid fields fall back
// to their defaults.
func WithPolicy(policy Policy) Option {
	return func(m *Matcher) {
		m.policy = policy.normalized()
	}
}

// NewMatcher constructs a matcher that confirms pairs with provider.
func NewMatcher(provider SignatureProvider, logger *slog.Logger, opts ...Option) *Matcher {
	m := &Matcher{
		policy:   DefaultPolicy(),
		provider: provider,
		logger:   logging.NewComponentLogger(logger, "contentid"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Policy returns the effective policy.
func (m *Matcher) Policy() Policy {
	return m.policy
}

// Outcome is the result of matching one creator.
type Outcome struct {
	Creator    string
	Units      []payout.Unit
	Exceptions []video.Exception

	SequencePairs     int
	FallbackPairs     int
	Unpaired          int
	SignatureFailures int
}

// creatorRun carries the mutable state of one Match call.
type creatorRun struct {
	policy     Policy
	provider   SignatureProvider
	logger     *slog.Logger
	pool       *matchPool
	signatures map[string]lookupResult
	out        *Outcome
}

// Match runs both matching phases over pool. Signature failures become
// exceptions; the only error returned is context cancellation or a missing
// provider.
func (m *Matcher) Match(ctx context.Context, pool identity.Pool) (Outcome, error) {
	out := Outcome{Creator: pool.Creator}
	if m == nil || m.provider == nil {
		return out, ErrNoSignatureProvider
	}
	run := &creatorRun{
		policy:     m.policy,
		provider:   m.provider,
		logger:     m.logger.With(logging.String(logging.FieldCreator, pool.Creator)),
		pool:       newMatchPool(pool),
		signatures: make(map[string]lookupResult),
		out:        &out,
	}

	if err := run.sequencePhase(ctx); err != nil {
		return Outcome{Creator: pool.Creator}, err
	}
	var err error
	switch m.policy.Fallback {
	case FallbackUploadDate:
		err = run.fallbackUploadDate(ctx)
	default:
		err = run.fallbackPHash(ctx)
	}
	if err != nil {
		return Outcome{Creator: pool.Creator}, err
	}
	run.finish()

	run.logger.Debug("creator matched",
		logging.Int("tiktok", len(pool.TikTok)),
		logging.Int("instagram", len(pool.Instagram)),
		logging.Int("sequence_pairs", out.SequencePairs),
		logging.Int("fallback_pairs", out.FallbackPairs),
		logging.Int("unpaired", out.Unpaired),
		logging.Int("signature_failures", out.SignatureFailures),
	)
	return out, nil
}

// pair consumes both slots and emits a paired unit.
func (r *creatorRun) pair(tiktokIdx, instagramIdx int, method payout.Method, distance *int) error {
	if err := r.pool.consume(tiktokIdx, instagramIdx); err != nil {
		return err
	}
	tt := r.pool.tiktok[tiktokIdx].rec
	ig := r.pool.instagram[instagramIdx].rec
	unit := payout.NewPair(r.pool.creator, tt, ig, method, distance)
	if method == payout.MethodFallback && distance == nil {
		unit.Notes = "fallback match: same length, same upload date"
	}
	r.out.Units = append(r.out.Units, unit)
	if method == payout.MethodSequence {
		r.out.SequencePairs++
	} else {
		r.out.FallbackPairs++
	}
	r.logger.Debug("videos paired",
		logging.String("method", string(method)),
		logging.String("tiktok", tt.Key()),
		logging.String("instagram", ig.Key()),
	)
	return nil
}

// fail routes an unmatched slot to the frame extraction exception bucket.
func (r *creatorRun) fail(platform video.Platform, idx int, cause error) {
	if !r.pool.exclude(platform, idx, video.ReasonFrameExtraction) {
		return
	}
	rec := r.pool.side(platform)[idx].rec
	r.out.Exceptions = append(r.out.Exceptions, video.NewException(rec, video.ReasonFrameExtraction))
	r.out.SignatureFailures++
	attrs := []logging.Attr{
		logging.String(logging.FieldPlatform, string(platform)),
		logging.String(logging.FieldLink, rec.Key()),
		logging.String(logging.FieldImpact, "video excluded from matching and payout"),
		logging.String(logging.FieldErrorHint, "verify the video is public and yt-dlp/ffmpeg can fetch it"),
	}
	if cause != nil {
		attrs = append(attrs, logging.Error(cause))
	}
	logging.WarnWithContext(r.logger, "signature lookup failed", logging.EventSignatureLookupFailed, attrs...)
}

// finish converts every still-unmatched slot into an unpaired exception.
func (r *creatorRun) finish() {
	for _, platform := range []video.Platform{video.TikTok, video.Instagram} {
		for _, idx := range r.pool.unmatched(platform) {
			if !r.pool.exclude(platform, idx, video.ReasonUnpaired) {
				continue
			}
			rec := r.pool.side(platform)[idx].rec
			r.out.Exceptions = append(r.out.Exceptions, video.NewException(rec, video.ReasonUnpaired))
			r.out.Unpaired++
			if r.policy.EmitSoloUnits {
				r.out.Units = append(r.out.Units, payout.NewSolo(r.pool.creator, rec))
			}
		}
	}
}
