// Package fileutil provides the filesystem primitives the footage lifecycle and
// organizer rely on: verified copies, idempotent directory creation, and
// collision-safe moves.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"reel/internal/services"
)

// renameFunc and removeFunc are swapped in tests to simulate cross-device
// renames and undeletable sources.
var (
	renameFunc = os.Rename
	removeFunc = os.Remove
)

// EnsureDirectory creates path and any missing parents. An existing directory
// is success; an existing non-directory or any I/O failure is tagged with
// services.ErrDirectoryCreate.
func EnsureDirectory(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return services.Wrap(services.ErrDirectoryCreate, "fileutil", "mkdir", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrDirectoryCreate, "fileutil", "stat", path, err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrDirectoryCreate, "fileutil", "mkdir", path+" is not a directory", nil)
	}
	return nil
}

// MoveFile renames oldPath to newPath. Moving a file onto itself is a no-op.
// The destination is never overwritten: an existing different file yields
// services.ErrMoveFailure wrapping os.ErrExist. Cross-device renames fall back
// to a verified copy followed by removal of the source.
func MoveFile(oldPath, newPath string) error {
	oldPath = filepath.Clean(oldPath)
	newPath = filepath.Clean(newPath)
	if oldPath == newPath {
		return nil
	}

	srcInfo, err := os.Stat(oldPath)
	if err != nil {
		return services.Wrap(services.ErrMoveFailure, "fileutil", "stat source", oldPath, err)
	}
	if dstInfo, err := os.Stat(newPath); err == nil {
		// Case-only renames on case-insensitive filesystems resolve to the same file.
		if !os.SameFile(srcInfo, dstInfo) {
			return services.Wrap(services.ErrMoveFailure, "fileutil", "check destination", newPath, os.ErrExist)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return services.Wrap(services.ErrMoveFailure, "fileutil", "stat destination", newPath, err)
	}

	if err := renameFunc(oldPath, newPath); err != nil {
		if !isCrossDevice(err) {
			return services.Wrap(services.ErrMoveFailure, "fileutil", "rename", oldPath+" -> "+newPath, err)
		}
		if err := CopyFileVerified(oldPath, newPath); err != nil {
			return services.Wrap(services.ErrMoveFailure, "fileutil", "copy across devices", oldPath+" -> "+newPath, err)
		}
		if err := removeFunc(oldPath); err != nil {
			// The source stays authoritative; drop the copy so a retry is not blocked.
			_ = os.Remove(newPath)
			return services.Wrap(services.ErrMoveFailure, "fileutil", "remove source after copy", oldPath, err)
		}
	}
	return nil
}

// UniquePath returns dir/name, or dir/stem_N.ext for the first N that does not
// exist yet.
func UniquePath(dir, name string) (string, error) {
	const maxAttempts = 10000
	candidate := filepath.Join(dir, name)
	if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
		return candidate, nil
	} else if err != nil {
		return "", err
	}
	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, attempt, ext))
		if _, err := os.Lstat(candidate); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return candidate, nil
			}
			return "", err
		}
	}
	return "", fmt.Errorf("exhausted filename slots for %s in %s", name, dir)
}

// RemoveIfExists deletes path, treating absence as success.
func RemoveIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return errors.Is(linkErr.Err, syscall.EXDEV)
	}
	return errors.Is(err, syscall.EXDEV)
}

// CopyFile streams src to dst using io.Copy with default permissions (0o644).
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// CopyFileVerified streams src to dst with SHA256 + size integrity verification.
// Removes dst on mismatch.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, dstHasher), io.TeeReader(in, srcHasher))
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}

	if written != srcInfo.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return nil
}
