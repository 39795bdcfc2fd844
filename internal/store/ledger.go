package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// Render is one cached render artifact: a WAV file on disk plus the
// parameters it was rendered from.
type Render struct {
	ParamsHash    string
	Path          string
	SampleRate    int
	Channels      int
	DurationMs    int64
	EngineVersion string
	CreatedAt     time.Time
}

// Record upserts a completed render.
//
// Renders are content-addressed by params hash, so two rows can never
// describe different audio for the same hash - replacing an existing
// row with a fresh artifact path is always correct. Callers must write
// the artifact to its final path BEFORE recording it; the ledger must
// never point at a file that does not exist yet.
func (s *Store) Record(ctx context.Context, r Render) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO renders
		(params_hash, path, sample_rate, channels, duration_ms, engine_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(params_hash) DO UPDATE SET
			path = excluded.path,
			sample_rate = excluded.sample_rate,
			channels = excluded.channels,
			duration_ms = excluded.duration_ms,
			engine_version = excluded.engine_version,
			created_at = excluded.created_at
	`,
		r.ParamsHash,
		r.Path,
		r.SampleRate,
		r.Channels,
		r.DurationMs,
		r.EngineVersion,
		r.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record render: %w", err)
	}

	return nil
}

// Lookup returns the cached render for the given params hash.
// Returns ok=false when the hash has never been rendered - that is a
// cache miss, not an error.
//
// Note: a hit only means a row exists. Callers must stat the artifact
// path before trusting it; the file may have been deleted out from
// under the ledger.
func (s *Store) Lookup(ctx context.Context, paramsHash string) (Render, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT params_hash, path, sample_rate, channels, duration_ms, engine_version, created_at
		FROM renders
		WHERE params_hash = ?
	`, paramsHash)

	var r Render
	var createdAt int64
	err := row.Scan(
		&r.ParamsHash,
		&r.Path,
		&r.SampleRate,
		&r.Channels,
		&r.DurationMs,
		&r.EngineVersion,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Render{}, false, nil
	}
	if err != nil {
		return Render{}, false, fmt.Errorf("lookup render: %w", err)
	}

	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	return r, true, nil
}

// Delete removes one ledger row, typically after its artifact was found
// missing on disk. Deleting an absent hash is a no-op.
func (s *Store) Delete(ctx context.Context, paramsHash string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM renders WHERE params_hash = ?
	`, paramsHash)
	if err != nil {
		return fmt.Errorf("delete render: %w", err)
	}
	return nil
}

// Count returns the number of rows in the ledger.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM renders`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count renders: %w", err)
	}
	return n, nil
}

// PruneVersions deletes every render produced by an engine version
// other than keep, removing artifacts from disk as it goes. Returns the
// number of ledger rows dropped.
//
// Artifact removal is best effort: a file that is already gone is the
// goal state, not a failure.
func (s *Store) PruneVersions(ctx context.Context, keep string) (int64, error) {
	paths, err := s.collectPaths(ctx, `SELECT path FROM renders WHERE engine_version != ?`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune versions: %w", err)
	}

	for _, p := range paths {
		os.Remove(p)
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM renders WHERE engine_version != ?
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune versions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune versions: rows affected: %w", err)
	}
	return n, nil
}

// PruneMissing drops every row whose artifact no longer exists on disk.
// Returns the number of rows dropped.
func (s *Store) PruneMissing(ctx context.Context) (int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT params_hash, path FROM renders`)
	if err != nil {
		return 0, fmt.Errorf("prune missing: %w", err)
	}

	var stale []string
	for rows.Next() {
		var hash, path string
		if err := rows.Scan(&hash, &path); err != nil {
			rows.Close()
			return 0, fmt.Errorf("prune missing: scan: %w", err)
		}
		if _, err := os.Stat(path); err != nil {
			stale = append(stale, hash)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("prune missing: %w", err)
	}

	for _, hash := range stale {
		if err := s.Delete(ctx, hash); err != nil {
			return 0, fmt.Errorf("prune missing: %w", err)
		}
	}

	return int64(len(stale)), nil
}

// collectPaths runs a single-column query and gathers the results.
func (s *Store) collectPaths(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
