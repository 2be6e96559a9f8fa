package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"reel/internal/services"
)

const footageColumns = `id, path, content_hash, length_ms, has_audio, has_video, notes, logged, preview, original_filename, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFootage(row rowScanner) (*Footage, error) {
	var (
		f                    Footage
		lengthMS             int64
		hasAudio, hasVideo   int
		logged               int
		createdAt, updatedAt string
	)
	if err := row.Scan(&f.ID, &f.Path, &f.ContentHash, &lengthMS, &hasAudio, &hasVideo, &f.Notes, &logged, &f.Preview, &f.OriginalFilename, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	f.Length = time.Duration(lengthMS) * time.Millisecond
	f.HasAudio = hasAudio != 0
	f.HasVideo = hasVideo != 0
	f.Logged = logged != 0
	f.CreatedAt = parseTimestamp(createdAt)
	f.UpdatedAt = parseTimestamp(updatedAt)
	return &f, nil
}

// CreateFootage inserts a new footage record and assigns its ID. Content
// fields start empty; they are filled by ApplyContent.
func (s *Store) CreateFootage(ctx context.Context, f *Footage) error {
	if f == nil || strings.TrimSpace(f.Path) == "" {
		return services.Wrap(services.ErrValidation, "catalog", "create footage", "path is required", nil)
	}
	now := s.timestamp()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO footage (path, notes, logged, original_filename, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		f.Path, f.Notes, boolToInt(f.Logged), f.OriginalFilename, now, now,
	)
	if err != nil {
		return classifyWrite(err, "create footage", f.Path)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("footage id: %w", err)
	}
	f.ID = id
	f.CreatedAt = parseTimestamp(now)
	f.UpdatedAt = f.CreatedAt
	return nil
}

// GetFootage fetches a footage record by ID.
func (s *Store) GetFootage(ctx context.Context, id int64) (*Footage, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+footageColumns+` FROM footage WHERE id = ?`, id)
	f, err := scanFootage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "get footage", fmt.Sprintf("footage %d", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get footage %d: %w", id, err)
	}
	return f, nil
}

// FindFootageByPath returns the footage stored at path, or nil when none is.
func (s *Store) FindFootageByPath(ctx context.Context, path string) (*Footage, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+footageColumns+` FROM footage WHERE path = ?`, path)
	f, err := scanFootage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find footage by path: %w", err)
	}
	return f, nil
}

// ListFootage returns footage ordered by path.
func (s *Store) ListFootage(ctx context.Context, filter LoggedFilter) ([]*Footage, error) {
	query := `SELECT ` + footageColumns + ` FROM footage`
	switch filter {
	case LoggedOnly:
		query += ` WHERE logged = 1`
	case UnloggedOnly:
		query += ` WHERE logged = 0`
	}
	query += ` ORDER BY path`

	rows, err := s.db.QueryContext(ensureContext(ctx), query)
	if err != nil {
		return nil, fmt.Errorf("list footage: %w", err)
	}
	defer rows.Close()

	var items []*Footage
	for rows.Next() {
		f, err := scanFootage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan footage: %w", err)
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

// UpdateFootageDetails writes the user-editable fields.
func (s *Store) UpdateFootageDetails(ctx context.Context, id int64, notes string, logged bool) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE footage SET notes = ?, logged = ?, updated_at = ? WHERE id = ?`,
		notes, boolToInt(logged), s.timestamp(), id,
	)
	if err != nil {
		return fmt.Errorf("update footage %d: %w", id, err)
	}
	return requireAffected(res, "update footage")
}

// UpdateFootagePath records a new location after a successful move.
func (s *Store) UpdateFootagePath(ctx context.Context, id int64, path string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE footage SET path = ?, updated_at = ? WHERE id = ?`,
		path, s.timestamp(), id,
	)
	if err != nil {
		return classifyWrite(err, "update footage path", path)
	}
	return requireAffected(res, "update footage path")
}

// ApplyContent writes derived content fields only if the stored hash still
// equals expectedHash. A mismatch means another reconcile already advanced
// the record and yields services.ErrConflict.
func (s *Store) ApplyContent(ctx context.Context, id int64, expectedHash string, update ContentUpdate) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE footage
		    SET content_hash = ?, length_ms = ?, has_audio = ?, has_video = ?, preview = ?, updated_at = ?
		  WHERE id = ? AND content_hash = ?`,
		update.ContentHash, update.Length.Milliseconds(), boolToInt(update.HasAudio), boolToInt(update.HasVideo),
		update.Preview, s.timestamp(), id, expectedHash,
	)
	if err != nil {
		return fmt.Errorf("apply content to footage %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.GetFootage(ctx, id); err != nil {
		return err
	}
	return services.Wrap(services.ErrConflict, "catalog", "apply content",
		fmt.Sprintf("footage %d no longer has hash %q", id, expectedHash), nil)
}

// DeleteFootage removes the record; links and comments cascade.
func (s *Store) DeleteFootage(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM footage WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete footage %d: %w", id, err)
	}
	return requireAffected(res, "delete footage")
}

// PreviewReferences counts footage other than excludeID that use preview.
func (s *Store) PreviewReferences(ctx context.Context, preview string, excludeID int64) (int, error) {
	if preview == "" {
		return 0, nil
	}
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(*) FROM footage WHERE preview = ? AND id != ?`, preview, excludeID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count preview references: %w", err)
	}
	return count, nil
}

// Ratings aggregates the ratings of takes linked to footage id. Footage with
// no linked takes yields zero values.
func (s *Store) Ratings(ctx context.Context, id int64) (Ratings, error) {
	var (
		avg       sql.NullFloat64
		maxRating sql.NullInt64
		count     int
	)
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT AVG(t.rating), MAX(t.rating), COUNT(t.rating)
		   FROM footage_takes ft
		   JOIN takes t ON t.scene = ft.scene AND t.shot = ft.shot AND t.take_no = ft.take_no
		  WHERE ft.footage_id = ?`, id,
	).Scan(&avg, &maxRating, &count)
	if err != nil {
		return Ratings{}, fmt.Errorf("footage ratings: %w", err)
	}
	return Ratings{Average: avg.Float64, Max: int(maxRating.Int64), Count: count}, nil
}
