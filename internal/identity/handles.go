package identity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"pmpayout/internal/logging"
	"pmpayout/internal/services"
	"pmpayout/internal/video"
)

// Resolver maps a platform handle to a creator identity.
type Resolver interface {
	Resolve(platform video.Platform, username string) (creator string, ok bool)
}

// Creator is one row of the handle map.
type Creator struct {
	Name            string `json:"name"`
	TikTokHandle    string `json:"tiktok_handle,omitempty"`
	InstagramHandle string `json:"instagram_handle,omitempty"`
}

var folder = cases.Fold()

// NormalizeHandle returns the comparison key for a platform handle.
func NormalizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	handle = strings.TrimPrefix(handle, "@")
	handle = norm.NFC.String(handle)
	return folder.String(handle)
}

// HandleMap is an in-memory Resolver. The zero value resolves nothing.
type HandleMap struct {
	creators []Creator
	handles  map[video.Platform]map[string]string
}

// NewHandleMap builds a HandleMap from creators. When two creators claim the
// same handle on one platform the first claim wins; conflicts are reported
// through logger.
func NewHandleMap(creators []Creator, logger *slog.Logger) *HandleMap {
	logger = logging.NewComponentLogger(logger, "identity")
	m := &HandleMap{
		handles: map[video.Platform]map[string]string{
			video.TikTok:    {},
			video.Instagram: {},
		},
	}
	for _, c := range creators {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		c.Name = name
		m.creators = append(m.creators, c)
		m.claim(video.TikTok, c.TikTokHandle, name, logger)
		m.claim(video.Instagram, c.InstagramHandle, name, logger)
	}
	return m
}

func (m *HandleMap) claim(platform video.Platform, handle, creator string, logger *slog.Logger) {
	key := NormalizeHandle(handle)
	if key == "" {
		return
	}
	if existing, ok := m.handles[platform][key]; ok {
		if existing != creator {
			logging.WarnWithContext(logger, "duplicate handle in creator list", "duplicate_handle",
				logging.String(logging.FieldPlatform, string(platform)),
				logging.String("handle", key),
				logging.String("kept_creator", existing),
				logging.String("ignored_creator", creator),
				logging.String(logging.FieldImpact, "videos from this handle are attributed to the first creator"),
				logging.String(logging.FieldErrorHint, "remove the duplicate row from the creator list"),
			)
		}
		return
	}
	m.handles[platform][key] = creator
}

// Resolve implements Resolver.
func (m *HandleMap) Resolve(platform video.Platform, username string) (string, bool) {
	if m == nil || m.handles == nil {
		return "", false
	}
	creator, ok := m.handles[platform][NormalizeHandle(username)]
	return creator, ok
}

// Creators returns the loaded creators in file order.
func (m *HandleMap) Creators() []Creator {
	if m == nil {
		return nil
	}
	out := make([]Creator, len(m.creators))
	copy(out, m.creators)
	return out
}

// Len reports the number of resolvable handles on platform.
func (m *HandleMap) Len(platform video.Platform) int {
	if m == nil || m.handles == nil {
		return 0
	}
	return len(m.handles[platform])
}

// ErrMissingColumn is returned when the CSV header lacks a required column.
var ErrMissingColumn = errors.New("creator list missing required column")

// LoadCSV parses a handle map from r. The first row must be a header; column
// names are matched case-insensitively and may appear in any order.
func LoadCSV(r io.Reader, logger *slog.Logger) (*HandleMap, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, services.Wrap(services.ErrValidation, "identity", "read header", "Creator list is empty", err)
		}
		return nil, services.Wrap(services.ErrValidation, "identity", "read header", "Creator list is not valid CSV", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := columns[key]; !seen {
			columns[key] = i
		}
	}
	nameCol, ok := columns["creator"]
	if !ok {
		return nil, fmt.Errorf("%w: creator", ErrMissingColumn)
	}
	tiktokCol, hasTikTok := columns["tiktok_handle"]
	instagramCol, hasInstagram := columns["instagram_handle"]
	if !hasTikTok && !hasInstagram {
		return nil, fmt.Errorf("%w: tiktok_handle or instagram_handle", ErrMissingColumn)
	}

	cell := func(row []string, idx int, present bool) string {
		if !present || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var creators []Creator
	skipped := 0
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "identity", "read row", fmt.Sprintf("Creator list row %d is not valid CSV", line), err)
		}
		name := cell(row, nameCol, true)
		if name == "" {
			skipped++
			continue
		}
		creators = append(creators, Creator{
			Name:            name,
			TikTokHandle:    cell(row, tiktokCol, hasTikTok),
			InstagramHandle: cell(row, instagramCol, hasInstagram),
		})
	}

	m := NewHandleMap(creators, logger)
	logging.NewComponentLogger(logger, "identity").Info("creator list loaded",
		logging.Int("creators", len(m.creators)),
		logging.Int("tiktok_handles", m.Len(video.TikTok)),
		logging.Int("instagram_handles", m.Len(video.Instagram)),
		logging.Int("skipped_rows", skipped),
	)
	return m, nil
}

// LoadFile opens path and parses it with LoadCSV.
func LoadFile(path string, logger *slog.Logger) (*HandleMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "identity", "open creator list", "Could not open creator list", err)
	}
	defer f.Close()
	return LoadCSV(f, logger)
}
