package video

import "time"

// Exception records a video that was rejected by some stage of the pipeline.
// Exceptions never re-enter the pipeline.
type Exception struct {
	Platform        Platform  `json:"platform"`
	Username        string    `json:"username"`
	Link            string    `json:"link"`
	ID              string    `json:"id,omitempty"`
	Creator         string    `json:"creator,omitempty"`
	UploadDate      time.Time `json:"upload_date,omitzero"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	DurationSeconds *int64    `json:"duration_seconds,omitempty"`
	Views           *int64    `json:"views,omitempty"`
	Reason          Reason    `json:"reason"`
}

// NewException captures the key fields of a validated record together with reason.
func NewException(rec Record, reason Reason) Exception {
	duration := rec.DurationSeconds
	views := rec.Views
	return Exception{
		Platform:        rec.Platform,
		Username:        rec.Username,
		Link:            rec.Link,
		ID:              rec.ID,
		Creator:         rec.Creator,
		UploadDate:      rec.UploadDate,
		CreatedAt:       rec.CreatedAt,
		DurationSeconds: &duration,
		Views:           &views,
		Reason:          reason,
	}
}
