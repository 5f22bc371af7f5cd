package app

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/freshcounty/adminauth/pkg/jwtx"
)

// InitSigner loads the Ed25519 signing key from disk, generating and
// persisting one on first start. The key id is derived from the key
// material so tokens survive process restarts but not key replacement.
func InitSigner(cfg Config, logger *slog.Logger) (*jwtx.EdDSASigner, error) {
	pemKey, err := os.ReadFile(cfg.SigningKey)
	if os.IsNotExist(err) {
		pemKey, err = jwtx.GenerateKeyPEM()
		if err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		if err := os.WriteFile(cfg.SigningKey, pemKey, 0o600); err != nil {
			return nil, fmt.Errorf("failed to persist signing key: %w", err)
		}
		logger.Info("generated new signing key", "path", cfg.SigningKey)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}

	sum := sha256.Sum256(pemKey)
	kid := hex.EncodeToString(sum[:8])

	signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}

	logger.Info("signing key loaded", "kid", kid)
	return signer, nil
}
