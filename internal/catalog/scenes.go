package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"reel/internal/services"
)

// CreateScene inserts a scene. Script numbers must be positive.
func (s *Store) CreateScene(ctx context.Context, scene Scene) error {
	if scene.Number <= 0 {
		return services.Wrap(services.ErrValidation, "catalog", "create scene", "script number must be positive", nil)
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO scenes (script_number, title, description) VALUES (?, ?, ?)`,
		scene.Number, scene.Title, scene.Description,
	)
	return classifyWrite(err, "create scene", fmt.Sprintf("scene %d", scene.Number))
}

// GetScene fetches a scene by script number.
func (s *Store) GetScene(ctx context.Context, number int) (*Scene, error) {
	var scene Scene
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT script_number, title, description FROM scenes WHERE script_number = ?`, number,
	).Scan(&scene.Number, &scene.Title, &scene.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "get scene", fmt.Sprintf("scene %d", number), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get scene %d: %w", number, err)
	}
	return &scene, nil
}

// ListScenes returns all scenes ordered by script number.
func (s *Store) ListScenes(ctx context.Context) ([]Scene, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT script_number, title, description FROM scenes ORDER BY script_number`)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()
	var scenes []Scene
	for rows.Next() {
		var scene Scene
		if err := rows.Scan(&scene.Number, &scene.Title, &scene.Description); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		scenes = append(scenes, scene)
	}
	return scenes, rows.Err()
}

// UpdateScene rewrites a scene's title and description.
func (s *Store) UpdateScene(ctx context.Context, scene Scene) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE scenes SET title = ?, description = ? WHERE script_number = ?`,
		scene.Title, scene.Description, scene.Number,
	)
	if err != nil {
		return fmt.Errorf("update scene %d: %w", scene.Number, err)
	}
	return requireAffected(res, "update scene")
}

// DeleteScene removes a scene and, by cascade, its shots, takes and links.
func (s *Store) DeleteScene(ctx context.Context, number int) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM scenes WHERE script_number = ?`, number)
	if err != nil {
		return fmt.Errorf("delete scene %d: %w", number, err)
	}
	return requireAffected(res, "delete scene")
}

// CreateShot inserts a shot under an existing scene.
func (s *Store) CreateShot(ctx context.Context, shot Shot) error {
	shot.Name = strings.TrimSpace(shot.Name)
	if shot.Name == "" {
		return services.Wrap(services.ErrValidation, "catalog", "create shot", "shot name is required", nil)
	}
	if _, err := s.GetScene(ctx, shot.Scene); err != nil {
		return err
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO shots (scene, name, description) VALUES (?, ?, ?)`,
		shot.Scene, shot.Name, shot.Description,
	)
	return classifyWrite(err, "create shot", fmt.Sprintf("shot %d%s", shot.Scene, shot.Name))
}

// GetShot fetches a shot by its composite key.
func (s *Store) GetShot(ctx context.Context, scene int, name string) (*Shot, error) {
	var shot Shot
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT scene, name, description FROM shots WHERE scene = ? AND name = ?`, scene, name,
	).Scan(&shot.Scene, &shot.Name, &shot.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "get shot", fmt.Sprintf("shot %d%s", scene, name), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get shot %d%s: %w", scene, name, err)
	}
	return &shot, nil
}

// ListShots returns shots ordered by (scene, name). A zero scene lists all.
func (s *Store) ListShots(ctx context.Context, scene int) ([]Shot, error) {
	query := `SELECT scene, name, description FROM shots`
	var args []any
	if scene != 0 {
		query += ` WHERE scene = ?`
		args = append(args, scene)
	}
	query += ` ORDER BY scene, name`
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shots: %w", err)
	}
	defer rows.Close()
	var shots []Shot
	for rows.Next() {
		var shot Shot
		if err := rows.Scan(&shot.Scene, &shot.Name, &shot.Description); err != nil {
			return nil, fmt.Errorf("scan shot: %w", err)
		}
		shots = append(shots, shot)
	}
	return shots, rows.Err()
}

// UpdateShot rewrites a shot's description.
func (s *Store) UpdateShot(ctx context.Context, shot Shot) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE shots SET description = ? WHERE scene = ? AND name = ?`,
		shot.Description, shot.Scene, shot.Name,
	)
	if err != nil {
		return fmt.Errorf("update shot %d%s: %w", shot.Scene, shot.Name, err)
	}
	return requireAffected(res, "update shot")
}

// DeleteShot removes a shot and, by cascade, its takes and their links.
func (s *Store) DeleteShot(ctx context.Context, scene int, name string) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM shots WHERE scene = ? AND name = ?`, scene, name)
	if err != nil {
		return fmt.Errorf("delete shot %d%s: %w", scene, name, err)
	}
	return requireAffected(res, "delete shot")
}
