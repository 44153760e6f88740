package mediameta

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/code19m/errx"
)

// Hash computes the SHA-256 digest of the file at path as a hex string.
// The file is read in a single streaming pass; it is never held in memory
// as a whole.
func (e *Extractor) Hash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errx.Wrap(err)
	}
	defer f.Close()

	return e.HashReader(f)
}

// HashReader computes the SHA-256 digest of everything read from r.
func (e *Extractor) HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", errx.Wrap(err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyIntegrity recomputes the digest of the file at path and compares it
// with the expected one. A mismatch is a false return, never an error;
// callers choose the remediation.
func (e *Extractor) VerifyIntegrity(path, expectedHash string) (bool, error) {
	actual, err := e.Hash(path)
	if err != nil {
		return false, errx.Wrap(err)
	}
	return actual == expectedHash, nil
}
