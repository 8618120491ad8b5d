package payout

import (
	"fmt"

	"pmpayout/internal/video"
)

// Kind distinguishes matched pairs from standalone videos.
type Kind string

const (
	KindPaired   Kind = "paired"
	KindUnpaired Kind = "unpaired"
)

// Method names the matcher phase that produced a pair.
type Method string

const (
	MethodSequence Method = "sequence"
	MethodFallback Method = "fallback"
)

// Confidence grades how strongly a pair is believed to be the same video.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
)

// Status reports whether a unit cleared the minimum view threshold.
type Status string

const (
	StatusQualified    Status = "qualified"
	StatusNotQualified Status = "not qualified"
)

// Unit is one pricing subject. For pairs Primary is the TikTok record and
// Secondary the Instagram record; solo units have no Secondary.
type Unit struct {
	Creator      string         `json:"creator"`
	Kind         Kind           `json:"kind"`
	Primary      video.Record   `json:"primary"`
	Secondary    *video.Record  `json:"secondary,omitempty"`
	Method       Method         `json:"match_method,omitempty"`
	Confidence   Confidence     `json:"confidence,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	HashDistance *int           `json:"hash_distance,omitempty"`
	BestPlatform video.Platform `json:"best_platform"`
	Outcome
}

// NewPair builds a paired unit. distance is nil when the pairing strategy does
// not compare signatures.
func NewPair(creator string, tiktok, instagram video.Record, method Method, distance *int) Unit {
	unit := Unit{
		Creator:      creator,
		Kind:         KindPaired,
		Primary:      tiktok,
		Secondary:    &instagram,
		Method:       method,
		HashDistance: distance,
		BestPlatform: video.TikTok,
	}
	if instagram.Views > tiktok.Views {
		unit.BestPlatform = video.Instagram
	}
	switch method {
	case MethodSequence:
		unit.Confidence = ConfidenceHigh
		unit.Notes = describe("sequence match", distance)
	default:
		unit.Confidence = ConfidenceMedium
		unit.Notes = describe("fallback match: same length", distance)
	}
	unit.Outcome = Quote(unit.ChosenViews())
	return unit
}

// NewSolo builds an unpaired unit. Solo units are never paid.
func NewSolo(creator string, rec video.Record) Unit {
	unit := Unit{
		Creator:      creator,
		Kind:         KindUnpaired,
		Primary:      rec,
		BestPlatform: rec.Platform,
		Notes:        "unpaired",
	}
	unit.Outcome = Quote(rec.Views)
	unit.Payout = 0
	unit.Status = StatusNotQualified
	return unit
}

// ChosenViews returns the larger view count across the unit's records.
func (u Unit) ChosenViews() int64 {
	views := u.Primary.Views
	if u.Secondary != nil && u.Secondary.Views > views {
		views = u.Secondary.Views
	}
	return views
}

// Records returns the records consumed by the unit.
func (u Unit) Records() []video.Record {
	if u.Secondary == nil {
		return []video.Record{u.Primary}
	}
	return []video.Record{u.Primary, *u.Secondary}
}

// Qualified reports whether the unit's chosen views reach the minimum tier.
func (u Unit) Qualified() bool {
	return u.Kind == KindPaired && u.Chosen >= MinQualifyingViews
}

func describe(prefix string, distance *int) string {
	if distance == nil {
		return prefix
	}
	return fmt.Sprintf("%s, phash distance: %d", prefix, *distance)
}
