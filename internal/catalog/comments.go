package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reel/internal/services"
)

// AddComment attaches a comment to footage and assigns its ID.
func (s *Store) AddComment(ctx context.Context, c *Comment) error {
	if c == nil || strings.TrimSpace(c.Body) == "" {
		return services.Wrap(services.ErrValidation, "catalog", "add comment", "comment body is required", nil)
	}
	if _, err := s.GetFootage(ctx, c.FootageID); err != nil {
		return err
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO comments (footage_id, time_ms, body) VALUES (?, ?, ?)`,
		c.FootageID, c.Time.Milliseconds(), c.Body,
	)
	if err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("comment id: %w", err)
	}
	c.ID = id
	return nil
}

// ListComments returns the comments on footage ordered by time.
func (s *Store) ListComments(ctx context.Context, footageID int64) ([]Comment, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, footage_id, time_ms, body FROM comments WHERE footage_id = ? ORDER BY time_ms, id`, footageID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()
	var comments []Comment
	for rows.Next() {
		var (
			c      Comment
			timeMS int64
		)
		if err := rows.Scan(&c.ID, &c.FootageID, &timeMS, &c.Body); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.Time = time.Duration(timeMS) * time.Millisecond
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// UpdateComment rewrites a comment's time and body.
func (s *Store) UpdateComment(ctx context.Context, c Comment) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE comments SET time_ms = ?, body = ? WHERE id = ?`, c.Time.Milliseconds(), c.Body, c.ID)
	if err != nil {
		return fmt.Errorf("update comment %d: %w", c.ID, err)
	}
	return requireAffected(res, "update comment")
}

// DeleteComment removes a comment.
func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comment %d: %w", id, err)
	}
	return requireAffected(res, "delete comment")
}
