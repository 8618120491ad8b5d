package video

import (
	"strconv"
	"strings"
	"time"
)

// Platform identifies the source platform of a video.
type Platform string

const (
	TikTok    Platform = "tiktok"
	Instagram Platform = "instagram"
)

// ParsePlatform lowercases and trims value, reporting whether it names a
// supported platform.
func ParsePlatform(value string) (Platform, bool) {
	switch Platform(strings.ToLower(strings.TrimSpace(value))) {
	case TikTok:
		return TikTok, true
	case Instagram:
		return Instagram, true
	default:
		return "", false
	}
}

// Record is a validated, canonical view of a single platform video.
type Record struct {
	Platform        Platform  `json:"platform"`
	Username        string    `json:"username"`
	Link            string    `json:"link"`
	ID              string    `json:"id,omitempty"`
	Creator         string    `json:"creator,omitempty"`
	UploadDate      time.Time `json:"upload_date,omitzero"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
	DurationSeconds int64     `json:"duration_seconds"`
	Views           int64     `json:"views"`
	Title           string    `json:"title,omitempty"`
}

// HasUploadDate reports whether the upload calendar date is known.
func (r Record) HasUploadDate() bool {
	return !r.UploadDate.IsZero()
}

// HasCreator reports whether a creator identity has been resolved.
func (r Record) HasCreator() bool {
	return strings.TrimSpace(r.Creator) != ""
}

// Key returns a stable identifier for the record used in logs and ordering.
// The link is preferred; the platform id is used when no link is present.
func (r Record) Key() string {
	if link := strings.TrimSpace(r.Link); link != "" {
		return link
	}
	if id := strings.TrimSpace(r.ID); id != "" {
		return string(r.Platform) + ":" + id
	}
	return string(r.Platform) + ":" + r.Username + "@" + strconv.FormatInt(r.CreatedAt.UnixNano(), 10)
}

// Before orders records ascending by creation time, breaking ties by link and
// then platform id so the order never depends on input position.
func (r Record) Before(other Record) bool {
	if !r.CreatedAt.Equal(other.CreatedAt) {
		return r.CreatedAt.Before(other.CreatedAt)
	}
	if r.Link != other.Link {
		return r.Link < other.Link
	}
	return r.ID < other.ID
}
