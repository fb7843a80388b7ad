package jobplace

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/feiskyer/jobplace/places"
)

// Environment variables read by Load.
const (
	EnvOpenAIKey       = "OPENAI_API_KEY"
	EnvOpenAIOrg       = "OPENAI_ORG_ID"
	EnvOpenAIBase      = "OPENAI_API_BASE"
	EnvPlacesKey       = "GPLACES_API_KEY"
	EnvAzureKey        = "AZURE_OPENAI_API_KEY"
	EnvAzureBase       = "AZURE_OPENAI_API_BASE"
	EnvAzureAPIVersion = "AZURE_OPENAI_API_VERSION"
	EnvConfigPath      = "JOBPLACE_CONFIG"
)

// DefaultPostingTimeout bounds one posting, tool calls included.
const DefaultPostingTimeout = 2 * time.Minute

// ErrMissingCredentials is returned when a required API key is not set.
var ErrMissingCredentials = errors.New("missing credentials")

// Config is the complete jobplace configuration.
type Config struct {
	OpenAI   OpenAIConfig `yaml:"openai"`
	Places   PlacesConfig `yaml:"places"`
	Agent    AgentConfig  `yaml:"agent"`
	Store    StoreConfig  `yaml:"store"`
	LogLevel string       `yaml:"log_level"`
}

// OpenAIConfig holds the chat model settings. The API key never comes from
// the YAML file.
type OpenAIConfig struct {
	APIKey       string        `yaml:"-"`
	Organization string        `yaml:"organization"`
	BaseURL      string        `yaml:"base_url"`
	Model        string        `yaml:"model"`
	Temperature  float64       `yaml:"temperature"`
	MaxRetries   int           `yaml:"max_retries"`
	Timeout      time.Duration `yaml:"timeout"`

	// AzureEndpoint switches to Azure OpenAI when set
	AzureEndpoint   string `yaml:"azure_endpoint"`
	AzureAPIVersion string `yaml:"azure_api_version"`
}

// PlacesConfig holds the Google Places settings.
type PlacesConfig struct {
	APIKey            string        `yaml:"-"`
	BaseURL           string        `yaml:"base_url"`
	Language          string        `yaml:"language"`
	TopK              int           `yaml:"top_k"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	Timeout           time.Duration `yaml:"timeout"`
}

// AgentConfig bounds one locate run.
type AgentConfig struct {
	MaxTurns       int           `yaml:"max_turns"`
	PostingTimeout time.Duration `yaml:"posting_timeout"`
}

// StoreConfig locates the history database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			Model:      DefaultModel,
			MaxRetries: 2,
			Timeout:    60 * time.Second,
		},
		Places: PlacesConfig{
			TopK:              5,
			RequestsPerSecond: 5,
			Burst:             1,
			Timeout:           20 * time.Second,
		},
		Agent: AgentConfig{
			MaxTurns:       DefaultMaxTurns,
			PostingTimeout: DefaultPostingTimeout,
		},
		Store:    StoreConfig{Path: DefaultStorePath()},
		LogLevel: "info",
	}
}

// DefaultConfigPath is where Load looks when neither a path nor
// JOBPLACE_CONFIG is given.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "jobplace.yaml"
	}
	return filepath.Join(dir, "jobplace", "config.yaml")
}

// DefaultStorePath is the default history database location.
func DefaultStorePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "jobplace.db"
	}
	return filepath.Join(dir, "jobplace", "history.db")
}

// LoadDotEnv loads variables from the given .env files (".env" when none is
// given) without overriding the real environment. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load builds the configuration: defaults, then the YAML file, then the
// environment, then the OS keyring for API keys that are still unset.
//
// An empty path falls back to JOBPLACE_CONFIG and then DefaultConfigPath;
// only an explicitly named file has to exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if !explicit {
		path = DefaultConfigPath()
	}

	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.applyKeyring()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvOpenAIKey); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(EnvOpenAIOrg); v != "" {
		c.OpenAI.Organization = v
	}
	if v := os.Getenv(EnvOpenAIBase); v != "" {
		c.OpenAI.BaseURL = v
	}
	if v := os.Getenv(EnvPlacesKey); v != "" {
		c.Places.APIKey = v
	}

	// Azure is used only when no plain OpenAI key is available.
	if c.OpenAI.APIKey == "" {
		if v := os.Getenv(EnvAzureKey); v != "" {
			c.OpenAI.APIKey = v
			c.OpenAI.AzureEndpoint = os.Getenv(EnvAzureBase)
			c.OpenAI.AzureAPIVersion = os.Getenv(EnvAzureAPIVersion)
		}
	}
}

func (c *Config) applyKeyring() {
	if c.OpenAI.APIKey == "" {
		if v, err := GetSecret(KeyringOpenAI); err == nil {
			c.OpenAI.APIKey = v
		}
	}
	if c.Places.APIKey == "" {
		if v, err := GetSecret(KeyringPlaces); err == nil {
			c.Places.APIKey = v
		}
	}
}

// Validate checks the non-credential settings.
func (c *Config) Validate() error {
	if c.OpenAI.Model == "" {
		return fmt.Errorf("openai.model is required")
	}
	if c.OpenAI.MaxRetries < 0 {
		return fmt.Errorf("openai.max_retries must be >= 0, got %d", c.OpenAI.MaxRetries)
	}
	if c.Agent.MaxTurns <= 0 {
		return fmt.Errorf("agent.max_turns must be positive, got %d", c.Agent.MaxTurns)
	}
	if c.Agent.PostingTimeout <= 0 {
		return fmt.Errorf("agent.posting_timeout must be positive, got %s", c.Agent.PostingTimeout)
	}
	if c.Places.TopK <= 0 {
		return fmt.Errorf("places.top_k must be positive, got %d", c.Places.TopK)
	}
	return nil
}

// RequireCredentials reports every API key that is still missing.
func (c *Config) RequireCredentials() error {
	var missing []string
	if c.OpenAI.APIKey == "" {
		missing = append(missing, EnvOpenAIKey)
	}
	if c.Places.APIKey == "" {
		missing = append(missing, EnvPlacesKey)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s (set them in the environment, .env or with `jobplace auth set`)",
			ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// OpenAIOptions converts the config into client options.
func (c *Config) OpenAIOptions() OpenAIOptions {
	return OpenAIOptions{
		APIKey:          c.OpenAI.APIKey,
		BaseURL:         c.OpenAI.BaseURL,
		Organization:    c.OpenAI.Organization,
		MaxRetries:      c.OpenAI.MaxRetries,
		Timeout:         c.OpenAI.Timeout,
		AzureEndpoint:   c.OpenAI.AzureEndpoint,
		AzureAPIVersion: c.OpenAI.AzureAPIVersion,
	}
}

// PlacesClientConfig converts the config into places client settings.
func (c *Config) PlacesClientConfig(hc *http.Client) places.Config {
	return places.Config{
		APIKey:            c.Places.APIKey,
		BaseURL:           c.Places.BaseURL,
		Language:          c.Places.Language,
		TopK:              c.Places.TopK,
		RequestsPerSecond: c.Places.RequestsPerSecond,
		Burst:             c.Places.Burst,
		Timeout:           c.Places.Timeout,
		HTTPClient:        hc,
	}
}

// NewLocatorFromConfig wires the OpenAI client, the places tool and the
// runner into a Locator. Credentials must be present.
func NewLocatorFromConfig(cfg *Config, logger *Logger, opts ...LocatorOption) (*Locator, error) {
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewNopLogger()
	}

	client := NewOpenAIClientWithOptions(cfg.OpenAIOptions())
	if client == nil {
		return nil, fmt.Errorf("create openai client: %w", ErrMissingCredentials)
	}
	pc, err := places.New(cfg.PlacesClientConfig(nil))
	if err != nil {
		return nil, err
	}

	base := []LocatorOption{
		WithMaxTurns(cfg.Agent.MaxTurns),
		WithTemperature(cfg.OpenAI.Temperature),
		WithLocatorLogger(logger),
	}
	runner := NewRunner(client, logger)
	return NewLocator(runner, NewPlacesFunction(pc), cfg.OpenAI.Model, append(base, opts...)...), nil
}
