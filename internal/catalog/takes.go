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

const takeColumns = `t.scene, t.shot, t.take_no, t.marked_scene, t.marked_shot, t.marked_take, t.rating, t.notes`

func scanTake(row rowScanner, extra ...any) (Take, error) {
	var (
		take                    Take
		markedScene, markedTake sql.NullInt64
		markedShot              sql.NullString
	)
	dest := append([]any{&take.Scene, &take.Shot, &take.TakeNo, &markedScene, &markedShot, &markedTake, &take.Rating, &take.Notes}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Take{}, err
	}
	take.MarkedScene = int(markedScene.Int64)
	take.MarkedShot = markedShot.String
	take.MarkedTake = int(markedTake.Int64)
	return take, nil
}

// fillMarked copies the true identity into every marked field left unset.
func fillMarked(take *Take) {
	if take.MarkedScene == 0 {
		take.MarkedScene = take.Scene
	}
	if take.MarkedShot == "" {
		take.MarkedShot = take.Shot
	}
	if take.MarkedTake == 0 {
		take.MarkedTake = take.TakeNo
	}
}

func validateTakeKey(key TakeKey, op string) error {
	switch {
	case key.Scene <= 0:
		return services.Wrap(services.ErrValidation, "catalog", op, "scene must be positive", nil)
	case strings.TrimSpace(key.Shot) == "":
		return services.Wrap(services.ErrValidation, "catalog", op, "shot name is required", nil)
	case key.TakeNo <= 0:
		return services.Wrap(services.ErrValidation, "catalog", op, "take number must be positive", nil)
	}
	return nil
}

// CreateTake inserts a take after checking that its parent shot exists.
// Marked fields left unset are filled from the true identity; this happens
// only here, never on update. The stored take is returned.
func (s *Store) CreateTake(ctx context.Context, take Take) (Take, error) {
	if err := validateTakeKey(take.TakeKey, "create take"); err != nil {
		return Take{}, err
	}
	if _, err := s.GetShot(ctx, take.Scene, take.Shot); err != nil {
		return Take{}, services.Wrap(services.ErrValidation, "catalog", "create take",
			fmt.Sprintf("take %s references a missing shot", formatKey(take.TakeKey)), err)
	}
	fillMarked(&take)
	_, err := s.execWithRetry(ctx,
		`INSERT INTO takes (scene, shot, take_no, marked_scene, marked_shot, marked_take, rating, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		take.Scene, take.Shot, take.TakeNo,
		nullInt(take.MarkedScene), nullString(take.MarkedShot), nullInt(take.MarkedTake),
		take.Rating, take.Notes,
	)
	if err != nil {
		return Take{}, classifyWrite(err, "create take", formatKey(take.TakeKey))
	}
	return take, nil
}

// GetTake fetches a take by its composite key.
func (s *Store) GetTake(ctx context.Context, key TakeKey) (*Take, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+takeColumns+` FROM takes t WHERE t.scene = ? AND t.shot = ? AND t.take_no = ?`,
		key.Scene, key.Shot, key.TakeNo,
	)
	take, err := scanTake(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "get take", formatKey(key), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get take %s: %w", formatKey(key), err)
	}
	return &take, nil
}

// ListTakes returns all takes ordered by (scene, shot, take).
func (s *Store) ListTakes(ctx context.Context) ([]Take, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+takeColumns+` FROM takes t ORDER BY t.scene, t.shot, t.take_no`)
	if err != nil {
		return nil, fmt.Errorf("list takes: %w", err)
	}
	defer rows.Close()
	var takes []Take
	for rows.Next() {
		take, err := scanTake(rows)
		if err != nil {
			return nil, fmt.Errorf("scan take: %w", err)
		}
		takes = append(takes, take)
	}
	return takes, rows.Err()
}

// UpdateTake rewrites marked identity, rating and notes exactly as given.
// Cleared marked fields stay cleared.
func (s *Store) UpdateTake(ctx context.Context, take Take) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE takes SET marked_scene = ?, marked_shot = ?, marked_take = ?, rating = ?, notes = ?
		  WHERE scene = ? AND shot = ? AND take_no = ?`,
		nullInt(take.MarkedScene), nullString(take.MarkedShot), nullInt(take.MarkedTake),
		take.Rating, take.Notes, take.Scene, take.Shot, take.TakeNo,
	)
	if err != nil {
		return fmt.Errorf("update take %s: %w", formatKey(take.TakeKey), err)
	}
	return requireAffected(res, "update take")
}

// DeleteTake removes a take and its footage links.
func (s *Store) DeleteTake(ctx context.Context, key TakeKey) error {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM takes WHERE scene = ? AND shot = ? AND take_no = ?`, key.Scene, key.Shot, key.TakeNo)
	if err != nil {
		return fmt.Errorf("delete take %s: %w", formatKey(key), err)
	}
	return requireAffected(res, "delete take")
}

// EnsureTake returns the take for key, creating its shot and the take itself
// when missing. The scene must already exist.
func (s *Store) EnsureTake(ctx context.Context, key TakeKey) (Take, error) {
	if err := validateTakeKey(key, "ensure take"); err != nil {
		return Take{}, err
	}
	if existing, err := s.GetTake(ctx, key); err == nil {
		return *existing, nil
	} else if !errors.Is(err, services.ErrNotFound) {
		return Take{}, err
	}
	if _, err := s.GetShot(ctx, key.Scene, key.Shot); errors.Is(err, services.ErrNotFound) {
		if err := s.CreateShot(ctx, Shot{Scene: key.Scene, Name: key.Shot}); err != nil && !errors.Is(err, services.ErrConflict) {
			return Take{}, err
		}
	} else if err != nil {
		return Take{}, err
	}
	take, err := s.CreateTake(ctx, Take{TakeKey: key})
	if errors.Is(err, services.ErrConflict) {
		existing, getErr := s.GetTake(ctx, key)
		if getErr != nil {
			return Take{}, getErr
		}
		return *existing, nil
	}
	return take, err
}

// LinkTake links footage to an existing take, or updates the start time of an
// existing link.
func (s *Store) LinkTake(ctx context.Context, link FootageTake) error {
	if _, err := s.GetFootage(ctx, link.FootageID); err != nil {
		return err
	}
	if _, err := s.GetTake(ctx, link.TakeKey); err != nil {
		return err
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO footage_takes (footage_id, scene, shot, take_no, start_time_ms) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (footage_id, scene, shot, take_no) DO UPDATE SET start_time_ms = excluded.start_time_ms`,
		link.FootageID, link.Scene, link.Shot, link.TakeNo, link.StartTime.Milliseconds(),
	)
	return classifyWrite(err, "link take", fmt.Sprintf("footage %d to %s", link.FootageID, formatKey(link.TakeKey)))
}

// UnlinkTake removes only the link row.
func (s *Store) UnlinkTake(ctx context.Context, footageID int64, key TakeKey) error {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM footage_takes WHERE footage_id = ? AND scene = ? AND shot = ? AND take_no = ?`,
		footageID, key.Scene, key.Shot, key.TakeNo,
	)
	if err != nil {
		return fmt.Errorf("unlink take: %w", err)
	}
	return requireAffected(res, "unlink take")
}

// TakesForFootage returns the takes linked to footage, ordered by
// (scene, shot, take). ShotMissing is set for takes whose shot row is gone.
func (s *Store) TakesForFootage(ctx context.Context, footageID int64) ([]LinkedTake, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+takeColumns+`, ft.start_time_ms, sh.name IS NULL
		   FROM footage_takes ft
		   JOIN takes t ON t.scene = ft.scene AND t.shot = ft.shot AND t.take_no = ft.take_no
		   LEFT JOIN shots sh ON sh.scene = t.scene AND sh.name = t.shot
		  WHERE ft.footage_id = ?
		  ORDER BY t.scene, t.shot, t.take_no`, footageID)
	if err != nil {
		return nil, fmt.Errorf("takes for footage %d: %w", footageID, err)
	}
	defer rows.Close()

	var linked []LinkedTake
	for rows.Next() {
		var (
			startMS     int64
			shotMissing bool
		)
		take, err := scanTake(rows, &startMS, &shotMissing)
		if err != nil {
			return nil, fmt.Errorf("scan linked take: %w", err)
		}
		linked = append(linked, LinkedTake{
			Take:        take,
			StartTime:   time.Duration(startMS) * time.Millisecond,
			ShotMissing: shotMissing,
		})
	}
	return linked, rows.Err()
}

func formatKey(key TakeKey) string {
	return fmt.Sprintf("%d%s-%d", key.Scene, key.Shot, key.TakeNo)
}
