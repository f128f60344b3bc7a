package sink

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// DigestSuffix is appended to a file path to name its
// digest sidecar.
const DigestSuffix = ".digest"

// FileDigest computes the SHA-256 hex digest of the file at
// path. A missing file yields an empty digest and no error.
func FileDigest(path string) (result string, retErr error) {
	const errCtx = "calculating digest"

	fi, err := os.Open(path) //nolint:gosec // path comes from configuration
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if closeErr := fi.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("%s: %w", errCtx, closeErr)
		}
	}()

	ha := sha256.New()

	if _, err := io.Copy(ha, fi); err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return hex.EncodeToString(ha.Sum(nil)), nil
}

// SaveDigest writes the digest of path to its sidecar and
// returns it.
func SaveDigest(path string) (string, error) {
	const errCtx = "saving digest"

	digest, err := FileDigest(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	if digest == "" {
		return "", fmt.Errorf("%s: %s: %w", errCtx, path, os.ErrNotExist)
	}

	if err := os.WriteFile(path+DigestSuffix, []byte(digest), 0o600); err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return digest, nil
}
