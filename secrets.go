package jobplace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups the stored API keys in the OS keychain.
	KeyringService = "jobplace"

	// KeyringOpenAI and KeyringPlaces are the keychain accounts.
	KeyringOpenAI = "openai"
	KeyringPlaces = "gplaces"
)

// keyringAccounts maps credential env vars to their keychain account.
var keyringAccounts = map[string]string{
	EnvOpenAIKey: KeyringOpenAI,
	EnvPlacesKey: KeyringPlaces,
}

// KeyringAccount resolves a user-facing name ("openai", "gplaces" or the
// env var name) to a keychain account.
func KeyringAccount(name string) (string, error) {
	name = strings.TrimSpace(name)
	if acct, ok := keyringAccounts[strings.ToUpper(name)]; ok {
		return acct, nil
	}
	switch strings.ToLower(name) {
	case KeyringOpenAI:
		return KeyringOpenAI, nil
	case KeyringPlaces, "places", "google":
		return KeyringPlaces, nil
	}
	return "", fmt.Errorf("unknown credential %q (want %s or %s)", name, KeyringOpenAI, KeyringPlaces)
}

// GetSecret reads a key from the OS keychain.
func GetSecret(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", errors.New("keyring account name is empty")
	}
	v, err := keyring.Get(KeyringService, account)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return "", keyring.ErrNotFound
	}
	return v, nil
}

// SetSecret stores a key in the OS keychain.
func SetSecret(account, value string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, account, value)
}

// DeleteSecret removes a key from the OS keychain.
func DeleteSecret(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}
