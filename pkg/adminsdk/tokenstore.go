package adminsdk

import (
	"os"
	"strings"
)

// TokenStore persists a bearer token between process runs.
type TokenStore interface {
	Save(token string) error
	Load() (string, error)
	Clear() error
}

// FileTokenStore keeps the token in a single file with owner-only
// permissions. Suitable for CLI tools and desktop clients.
type FileTokenStore struct {
	Path string
}

func (f *FileTokenStore) Save(token string) error {
	return os.WriteFile(f.Path, []byte(token), 0o600)
}

func (f *FileTokenStore) Load() (string, error) {
	raw, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func (f *FileTokenStore) Clear() error {
	err := os.Remove(f.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
