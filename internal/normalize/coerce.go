package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Raw is a single undecoded video payload keyed by upstream field name.
type Raw map[string]any

var fieldAliases = map[string][]string{
	"platform": {"platform"},
	"username": {"username", "handle"},
	"link":     {"ad_link", "link", "url"},
	"id":       {"ad_id", "id"},
	"uploaded": {"uploaded_at", "upload_date"},
	"created":  {"created_at"},
	"updated":  {"latest_updated_at", "updated_at"},
	"duration": {"video_length", "duration"},
	"views":    {"latest_views", "views"},
	"private":  {"private"},
	"removed":  {"removed"},
	"title":    {"title"},
}

func (r Raw) lookup(field string) (any, bool) {
	for _, key := range fieldAliases[field] {
		if value, ok := r[key]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

func (r Raw) text(field string) string {
	value, ok := r.lookup(field)
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// integer coerces field to an int64. The second result is false when the field
// is absent, null, or not a number.
func (r Raw) integer(field string) (int64, bool) {
	value, ok := r.lookup(field)
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case float64:
		return truncate(v)
	case float32:
		return truncate(float64(v))
	case json.Number:
		return parseInteger(v.String())
	case string:
		return parseInteger(v)
	default:
		return 0, false
	}
}

func parseInteger(text string) (int64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return truncate(f)
}

func truncate(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(math.Trunc(f)), true
}

func (r Raw) flag(field string) bool {
	value, ok := r.lookup(field)
	if !ok {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && parsed
	case json.Number:
		n, err := v.Int64()
		return err == nil && n != 0
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
}

func (r Raw) timestamp(field string) time.Time {
	text := r.text(field)
	if text == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

func (r Raw) date(field string) time.Time {
	text := r.text(field)
	if len(text) < len(time.DateOnly) {
		return time.Time{}
	}
	parsed, err := time.Parse(time.DateOnly, text[:len(time.DateOnly)])
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// CreatedAt returns the payload's creation timestamp in UTC. The zero time
// means the field is missing or unparseable.
func (r Raw) CreatedAt() time.Time {
	return r.timestamp("created")
}
