package secrets_test

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"

	"jobfinder-engine/internal/secrets"
)

func TestAPIToken_EnvWins(t *testing.T) {
	keyring.MockInit()
	t.Setenv(secrets.APITokenEnv, " env-token ")
	if err := secrets.SetAPIToken("keychain-token"); err != nil {
		t.Fatal(err)
	}

	got, err := secrets.APIToken()
	if err != nil || got != "env-token" {
		t.Fatalf("APIToken = %q, %v", got, err)
	}
}

func TestAPIToken_KeychainFallback(t *testing.T) {
	keyring.MockInit()
	t.Setenv(secrets.APITokenEnv, "")

	if _, err := secrets.APIToken(); !errors.Is(err, secrets.ErrNoAPIToken) {
		t.Fatalf("expected ErrNoAPIToken, got %v", err)
	}
	if err := secrets.SetAPIToken("keychain-token"); err != nil {
		t.Fatal(err)
	}
	got, err := secrets.APIToken()
	if err != nil || got != "keychain-token" {
		t.Fatalf("APIToken = %q, %v", got, err)
	}

	if err := secrets.DeleteAPIToken(); err != nil {
		t.Fatal(err)
	}
	if _, err := secrets.APIToken(); err == nil {
		t.Fatal("token should be gone")
	}
}

func TestSetAPIToken_RejectsEmpty(t *testing.T) {
	keyring.MockInit()
	if err := secrets.SetAPIToken("  "); err == nil {
		t.Fatal("expected error")
	}
}
