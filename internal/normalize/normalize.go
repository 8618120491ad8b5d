package normalize

import (
	"log/slog"

	"pmpayout/internal/logging"
	"pmpayout/internal/video"
)

// Result partitions a batch of raw payloads.
type Result struct {
	Records    []video.Record
	Exceptions []video.Exception
	// Dropped counts payloads from unsupported platforms.
	Dropped int
}

// Batch classifies every payload in raws, preserving input order within
// Records and Exceptions.
func Batch(raws []Raw, logger *slog.Logger) Result {
	logger = logging.NewComponentLogger(logger, "normalize")
	var result Result
	for _, raw := range raws {
		rec, exc, ok := One(raw)
		switch {
		case !ok:
			result.Dropped++
			logger.Debug("dropped unsupported platform",
				logging.String(logging.FieldPlatform, raw.text("platform")),
				logging.String(logging.FieldLink, raw.text("link")),
			)
		case exc != nil:
			result.Exceptions = append(result.Exceptions, *exc)
		default:
			result.Records = append(result.Records, rec)
		}
	}
	return result
}

// One classifies a single payload. ok is false when the platform is not
// supported and the payload should be ignored. When exc is non-nil the
// payload was rejected and rec must not be used.
func One(raw Raw) (rec video.Record, exc *video.Exception, ok bool) {
	platform, ok := video.ParsePlatform(raw.text("platform"))
	if !ok {
		return video.Record{}, nil, false
	}

	duration, hasDuration := raw.integer("duration")
	views, hasViews := raw.integer("views")

	rec = video.Record{
		Platform:        platform,
		Username:        raw.text("username"),
		Link:            raw.text("link"),
		ID:              raw.text("id"),
		UploadDate:      raw.date("uploaded"),
		CreatedAt:       raw.timestamp("created"),
		UpdatedAt:       raw.timestamp("updated"),
		DurationSeconds: duration,
		Views:           views,
		Title:           raw.text("title"),
	}

	reason := classify(raw, rec, hasDuration, hasViews)
	if reason == "" {
		return rec, nil, true
	}

	rejected := video.Exception{
		Platform:   rec.Platform,
		Username:   rec.Username,
		Link:       rec.Link,
		ID:         rec.ID,
		UploadDate: rec.UploadDate,
		CreatedAt:  rec.CreatedAt,
		Reason:     reason,
	}
	if hasDuration {
		rejected.DurationSeconds = &duration
	}
	if hasViews {
		rejected.Views = &views
	}
	return video.Record{}, &rejected, true
}

func classify(raw Raw, rec video.Record, hasDuration, hasViews bool) video.Reason {
	switch {
	case raw.flag("private"):
		return video.ReasonPrivate
	case raw.flag("removed"):
		return video.ReasonRemoved
	case !hasDuration:
		return video.ReasonMissingDuration
	case rec.DurationSeconds <= 0:
		return video.ReasonInvalidDuration
	case !hasViews:
		return video.ReasonMissingViews
	case rec.Views < 0:
		return video.ReasonInvalidViews
	case rec.CreatedAt.IsZero():
		return video.ReasonMissingCreatedAt
	default:
		return ""
	}
}
