package jobplace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

// isolateEnv clears every variable Load reads and points the default config
// path at an empty directory.
func isolateEnv(t *testing.T) {
	t.Helper()
	keyring.MockInit()
	for _, k := range []string{
		EnvOpenAIKey, EnvOpenAIOrg, EnvOpenAIBase, EnvPlacesKey,
		EnvAzureKey, EnvAzureBase, EnvAzureAPIVersion, EnvConfigPath,
	} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
}

func TestLoadDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	AssertEqual(t, DefaultModel, cfg.OpenAI.Model, "model")
	AssertEqual(t, 2, cfg.OpenAI.MaxRetries, "max retries")
	AssertEqual(t, DefaultMaxTurns, cfg.Agent.MaxTurns, "max turns")
	AssertEqual(t, 2*time.Minute, cfg.Agent.PostingTimeout, "posting timeout")
	AssertEqual(t, 5, cfg.Places.TopK, "top k")

	if !errors.Is(cfg.RequireCredentials(), ErrMissingCredentials) {
		t.Error("expected missing credentials")
	}
	msg := cfg.RequireCredentials().Error()
	if !strings.Contains(msg, EnvOpenAIKey) || !strings.Contains(msg, EnvPlacesKey) {
		t.Errorf("expected both keys named, got %q", msg)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	isolateEnv(t)
	t.Setenv("JOBPLACE_TEST_ORG", "org-from-env")

	path := filepath.Join(t.TempDir(), "jobplace.yaml")
	yamlText := `openai:
  model: gpt-4o-mini
  organization: ${JOBPLACE_TEST_ORG}
  timeout: 45s
places:
  top_k: 3
  language: da
agent:
  max_turns: 6
  posting_timeout: 30s
log_level: debug
`
	if err := os.WriteFile(path, []byte(yamlText), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	AssertEqual(t, "gpt-4o-mini", cfg.OpenAI.Model, "model")
	AssertEqual(t, "org-from-env", cfg.OpenAI.Organization, "expanded org")
	AssertEqual(t, 45*time.Second, cfg.OpenAI.Timeout, "timeout")
	AssertEqual(t, 2, cfg.OpenAI.MaxRetries, "untouched default")
	AssertEqual(t, 3, cfg.Places.TopK, "top k")
	AssertEqual(t, "da", cfg.Places.Language, "language")
	AssertEqual(t, 6, cfg.Agent.MaxTurns, "max turns")
	AssertEqual(t, 30*time.Second, cfg.Agent.PostingTimeout, "posting timeout")
	AssertEqual(t, "debug", cfg.LogLevel, "log level")
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "env.yaml")
	if err := os.WriteFile(path, []byte("openai:\n  model: gpt-4o\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	AssertEqual(t, "gpt-4o", cfg.OpenAI.Model, "model from JOBPLACE_CONFIG")
}

func TestLoadErrors(t *testing.T) {
	isolateEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	AssertError(t, err, "explicit missing file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("agent:\n  max_turns: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = Load(path)
	AssertError(t, err, "invalid max_turns")

	if err := os.WriteFile(path, []byte("openai: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = Load(path)
	AssertError(t, err, "invalid yaml")
}

func TestCredentialPrecedence(t *testing.T) {
	isolateEnv(t)

	// keyring only
	AssertNoError(t, SetSecret(KeyringOpenAI, "sk-keyring"), "SetSecret openai")
	AssertNoError(t, SetSecret(KeyringPlaces, "places-keyring"), "SetSecret places")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	AssertEqual(t, "sk-keyring", cfg.OpenAI.APIKey, "openai from keyring")
	AssertEqual(t, "places-keyring", cfg.Places.APIKey, "places from keyring")
	AssertNoError(t, cfg.RequireCredentials(), "credentials present")

	// .env beats keyring, the real environment beats .env
	envPath := filepath.Join(t.TempDir(), ".env")
	dotenv := "OPENAI_API_KEY=sk-dotenv\nGPLACES_API_KEY=places-dotenv\nOPENAI_API_BASE=https://proxy.example.com/v1/\n"
	if err := os.WriteFile(envPath, []byte(dotenv), 0o644); err != nil {
		t.Fatal(err)
	}
	os.Unsetenv(EnvOpenAIKey)
	os.Unsetenv(EnvPlacesKey)
	os.Unsetenv(EnvOpenAIBase)
	t.Setenv(EnvPlacesKey, "places-env")

	AssertNoError(t, LoadDotEnv(envPath), "LoadDotEnv")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	AssertEqual(t, "sk-dotenv", cfg.OpenAI.APIKey, "openai from .env")
	AssertEqual(t, "places-env", cfg.Places.APIKey, "real env not overridden")
	AssertEqual(t, "https://proxy.example.com/v1/", cfg.OpenAI.BaseURL, "base url from .env")
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	AssertNoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")), "missing .env is skipped")
}

func TestAzureFromEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvAzureKey, "azure-key")
	t.Setenv(EnvAzureBase, "https://example.openai.azure.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	opts := cfg.OpenAIOptions()
	AssertEqual(t, "azure-key", opts.APIKey, "api key")
	AssertEqual(t, "https://example.openai.azure.com", opts.AzureEndpoint, "endpoint")
}

func TestPlacesClientConfig(t *testing.T) {
	cfg := Default()
	cfg.Places.APIKey = "places-key"
	cfg.Places.Language = "da"

	pc := cfg.PlacesClientConfig(nil)
	AssertEqual(t, "places-key", pc.APIKey, "api key")
	AssertEqual(t, "da", pc.Language, "language")
	AssertEqual(t, 5, pc.TopK, "top k")
}

func TestNewLocatorFromConfig(t *testing.T) {
	cfg := Default()
	_, err := NewLocatorFromConfig(cfg, nil)
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}

	cfg.OpenAI.APIKey = "sk-test"
	cfg.Places.APIKey = "places-test"
	cfg.OpenAI.Model = "gpt-4o-mini"
	loc, err := NewLocatorFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("NewLocatorFromConfig: %v", err)
	}
	AssertEqual(t, "gpt-4o-mini", loc.Model(), "model")
}

func TestKeyringAccount(t *testing.T) {
	for name, want := range map[string]string{
		"openai":          KeyringOpenAI,
		"OPENAI_API_KEY":  KeyringOpenAI,
		"gplaces":         KeyringPlaces,
		"GPLACES_API_KEY": KeyringPlaces,
		"places":          KeyringPlaces,
	} {
		got, err := KeyringAccount(name)
		AssertNoError(t, err, name)
		AssertEqual(t, want, got, name)
	}
	_, err := KeyringAccount("github")
	AssertError(t, err, "unknown account")
}

func TestSecrets(t *testing.T) {
	keyring.MockInit()

	_, err := GetSecret(KeyringOpenAI)
	AssertError(t, err, "nothing stored")
	AssertError(t, SetSecret(KeyringOpenAI, "  "), "empty secret")
	AssertError(t, SetSecret("", "x"), "empty account")

	AssertNoError(t, SetSecret(KeyringOpenAI, "sk-1"), "SetSecret")
	got, err := GetSecret(KeyringOpenAI)
	AssertNoError(t, err, "GetSecret")
	AssertEqual(t, "sk-1", got, "secret")

	AssertNoError(t, DeleteSecret(KeyringOpenAI), "DeleteSecret")
	if _, err := GetSecret(KeyringOpenAI); !errors.Is(err, keyring.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
