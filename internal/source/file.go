package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"pmpayout/internal/normalize"
	"pmpayout/internal/services"
)

// File reads a JSON export. The document is either an array of rows or an
// API-style envelope with the rows under "data". Rows whose creation time
// falls outside the window are skipped; rows without a parseable creation
// time are kept so the normalizer can report them.
type File struct {
	Path string
}

// NewFile returns a File source for path.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Fetch implements VideoSource.
func (f *File) Fetch(ctx context.Context, window Window) ([]normalize.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "source", "read", "videos file "+f.Path, err)
		}
		return nil, services.Wrap(services.ErrConfiguration, "source", "read", "videos file "+f.Path, err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "source", "decode", f.Path, err)
	}

	return createdWithin(rows, window), nil
}

// createdWithin keeps rows created inside window. Rows without a parseable
// creation time are kept so the normalizer can report them.
func createdWithin(rows []normalize.Raw, window Window) []normalize.Raw {
	out := make([]normalize.Raw, 0, len(rows))
	for _, row := range rows {
		if created := row.CreatedAt(); created.IsZero() || window.Contains(created) {
			out = append(out, row)
		}
	}
	return out
}

func decodeRows(data []byte) ([]normalize.Raw, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty document")
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	switch trimmed[0] {
	case '[':
		var rows []normalize.Raw
		if err := dec.Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode rows: %w", err)
		}
		return rows, nil
	case '{':
		var envelope struct {
			Data []normalize.Raw `json:"data"`
		}
		if err := dec.Decode(&envelope); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		return envelope.Data, nil
	default:
		return nil, errors.New("expected a JSON array or an object with a data array")
	}
}
