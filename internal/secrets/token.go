package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups the engine's secrets in the OS keychain.
	KeyringService = "jobfinder"

	// APITokenAccount holds the bearer token clients send to the HTTP API.
	APITokenAccount = "api-token"

	APITokenEnv = "JOBFINDER_API_TOKEN"
)

var ErrNoAPIToken = errors.New("API token not found (set " + APITokenEnv + " or store it in the keychain)")

// APIToken returns the HTTP API token from the environment, falling back
// to the OS keychain.
func APIToken() (string, error) {
	if v := strings.TrimSpace(os.Getenv(APITokenEnv)); v != "" {
		return v, nil
	}
	tok, err := keyring.Get(KeyringService, APITokenAccount)
	if err == nil && strings.TrimSpace(tok) != "" {
		return strings.TrimSpace(tok), nil
	}
	return "", ErrNoAPIToken
}

func SetAPIToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(KeyringService, APITokenAccount, strings.TrimSpace(token))
}

func DeleteAPIToken() error {
	return keyring.Delete(KeyringService, APITokenAccount)
}
