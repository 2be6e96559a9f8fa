package preview

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"reel/internal/fileutil"
	"reel/internal/services"
)

// Store keeps preview artifacts in a single directory, named by content hash.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory holding artifacts.
func (s *Store) Dir() string {
	return s.dir
}

// NameFor returns the content-addressed artifact name for hash and ext.
func NameFor(hash, ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return hash
	}
	return hash + "." + ext
}

// Path resolves an artifact name inside the store.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Exists reports whether a non-empty artifact called name is present.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Open returns a reader for the artifact along with its size.
func (s *Store) Open(name string) (io.ReadSeekCloser, int64, error) {
	f, err := os.Open(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, services.Wrap(services.ErrNotFound, "preview", "open", name, err)
		}
		return nil, 0, fmt.Errorf("open preview %s: %w", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat preview %s: %w", name, err)
	}
	return f, info.Size(), nil
}

// Remove deletes the artifact, ignoring absence.
func (s *Store) Remove(name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	return fileutil.RemoveIfExists(s.Path(name))
}

// stagingPath returns a hidden sibling path for in-progress renders. The
// extension is kept so ffmpeg can infer the muxer.
func (s *Store) stagingPath(name string) string {
	return filepath.Join(s.dir, ".partial-"+filepath.Base(name))
}

// ContentType maps an artifact extension to the MIME type served for playback.
func ContentType(name string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "mp4":
		return "video/mp4"
	case "mp3":
		return "audio/mp3"
	default:
		return "application/octet-stream"
	}
}
