// Package contenthash computes the content digest that ties a footage record
// to the exact bytes at its path.
//
// Digests are lowercase hex MD5. They detect change, they do not authenticate
// content.
package contenthash

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"

	"reel/internal/services"
)

// Bytes returns the digest of data.
func Bytes(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Reader streams r into the digest.
func Reader(r io.Reader) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// File returns the digest of the file at path. Open and read failures are
// tagged with services.ErrContentUnreadable.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrContentUnreadable, "hash", "open", path, err)
	}
	defer f.Close()

	digest, err := Reader(f)
	if err != nil {
		return "", services.Wrap(services.ErrContentUnreadable, "hash", "read", path, err)
	}
	return digest, nil
}

// Changed hashes the file at path and reports whether it differs from stored.
// An empty stored digest always counts as changed.
func Changed(path, stored string) (string, bool, error) {
	digest, err := File(path)
	if err != nil {
		return "", false, err
	}
	return digest, stored == "" || digest != stored, nil
}
