package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize128 provides 128 bits of entropy (22 chars base64url).
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	TokenSize256 = 32
)

// GenerateToken creates a cryptographically secure random token of the
// specified byte length, returned base64url-encoded without padding.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token.
// Used to store hashed tokens and backup codes so lookups never need the
// original value.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GenerateBackupCode returns a human-enterable backup code in the form
// XXXX-XXXX-XXXX using an unambiguous alphabet (no 0/O, 1/I/L).
func GenerateBackupCode() (string, error) {
	const charset = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
	const groups, groupLen = 3, 4

	out := make([]byte, 0, groups*groupLen+groups-1)
	for g := range groups {
		if g > 0 {
			out = append(out, '-')
		}
		for range groupLen {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
			if err != nil {
				return "", fmt.Errorf("failed to generate backup code: %w", err)
			}
			out = append(out, charset[n.Int64()])
		}
	}
	return string(out), nil
}
