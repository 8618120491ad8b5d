package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// LookupSignature returns the cached perceptual hash for link.
func (s *Store) LookupSignature(ctx context.Context, link string) (uint64, bool, error) {
	var stored int64
	err := s.db.QueryRowContext(ctx, "SELECT hash FROM signatures WHERE link = ?", strings.TrimSpace(link)).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup signature: %w", err)
	}
	// SQLite integers are signed; the hash round-trips through its bit pattern.
	return uint64(stored), true, nil
}

// SaveSignature stores hash for link, replacing any earlier value.
func (s *Store) SaveSignature(ctx context.Context, link string, hash uint64) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return errors.New("save signature: empty link")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO signatures (link, hash, computed_at) VALUES (?, ?, ?)
         ON CONFLICT(link) DO UPDATE SET hash = excluded.hash, computed_at = excluded.computed_at`,
		link,
		int64(hash),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save signature: %w", err)
	}
	return nil
}

// CountSignatures returns the number of cached hashes.
func (s *Store) CountSignatures(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM signatures").Scan(&n); err != nil {
		return 0, fmt.Errorf("count signatures: %w", err)
	}
	return n, nil
}

// ClearSignatures removes every cached hash.
func (s *Store) ClearSignatures(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM signatures")
	if err != nil {
		return 0, fmt.Errorf("clear signatures: %w", err)
	}
	return res.RowsAffected()
}
