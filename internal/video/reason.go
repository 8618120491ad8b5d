package video

// Reason is the closed set of causes for routing a video to the exception list.
type Reason string

const (
	ReasonPrivate           Reason = "video marked private"
	ReasonRemoved           Reason = "video removed"
	ReasonMissingDuration   Reason = "missing video length"
	ReasonInvalidDuration   Reason = "invalid video length"
	ReasonMissingViews      Reason = "missing view data"
	ReasonInvalidViews      Reason = "invalid view count"
	ReasonMissingCreatedAt  Reason = "missing creation timestamp"
	ReasonNotInCreatorList  Reason = "not in creator list"
	ReasonDuplicateConflict Reason = "duplicate row with conflicting values"
	ReasonFrameExtraction   Reason = "first frame extraction failed"
	ReasonUnpaired          Reason = "unpaired — no cross-platform match found"
)

// Reasons lists every reason in the order stages can emit them.
func Reasons() []Reason {
	return []Reason{
		ReasonPrivate,
		ReasonRemoved,
		ReasonMissingDuration,
		ReasonInvalidDuration,
		ReasonMissingViews,
		ReasonInvalidViews,
		ReasonMissingCreatedAt,
		ReasonNotInCreatorList,
		ReasonDuplicateConflict,
		ReasonFrameExtraction,
		ReasonUnpaired,
	}
}

// Valid reports whether r belongs to the closed reason set.
func (r Reason) Valid() bool {
	for _, known := range Reasons() {
		if r == known {
			return true
		}
	}
	return false
}
