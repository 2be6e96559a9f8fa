package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrContentUnreadable = errors.New("content unreadable")
	ErrMediaUnreadable   = errors.New("media unreadable")
	ErrTranscodeFailure  = errors.New("transcode failure")
	ErrDirectoryCreate   = errors.New("directory create failure")
	ErrMoveFailure       = errors.New("move failure")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation error")
	ErrConfiguration     = errors.New("configuration error")
	ErrConflict          = errors.New("conflict")
)

// Wrap builds an error message that includes operation context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a stable classification string for err, suitable for batch
// reports, metrics labels, and HTTP status mapping.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrContentUnreadable):
		return "content_unreadable"
	case errors.Is(err, ErrMediaUnreadable):
		return "media_unreadable"
	case errors.Is(err, ErrTranscodeFailure):
		return "transcode_failure"
	case errors.Is(err, ErrDirectoryCreate):
		return "directory_create_failure"
	case errors.Is(err, ErrMoveFailure):
		return "move_failure"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
