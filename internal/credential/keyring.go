package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "taskflow"

var ErrNoToken = errors.New("no stored session token")

// Store keeps session tokens per API base URL.
type Store struct {
	ring keyring.Keyring
}

// Open returns a Store backed by the system keyring, falling back to an
// encrypted file.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/taskflow/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("taskflow-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

func tokenKey(apiURL string) string {
	return "session:" + apiURL
}

func (s *Store) Token(apiURL string) (string, error) {
	item, err := s.ring.Get(tokenKey(apiURL))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("getting token for %s: %w", apiURL, err)
	}
	return string(item.Data), nil
}

func (s *Store) SaveToken(apiURL, token string) error {
	err := s.ring.Set(keyring.Item{
		Key:         tokenKey(apiURL),
		Data:        []byte(token),
		Label:       "TaskFlow session",
		Description: apiURL,
	})
	if err != nil {
		return fmt.Errorf("saving token for %s: %w", apiURL, err)
	}
	return nil
}

// DeleteToken forgets the token for apiURL. A missing token is not an error.
func (s *Store) DeleteToken(apiURL string) error {
	err := s.ring.Remove(tokenKey(apiURL))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting token for %s: %w", apiURL, err)
	}
	return nil
}
