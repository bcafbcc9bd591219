package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort = 6970
	DefaultHost = "127.0.0.1"

	jsonFilename = "config.json"
	yamlFilename = "config.yaml"

	envKeyPrefix = "CHEFSTREAM_"
	envKeySuffix = "_API_KEY"
)

// Provider holds the per-vendor settings the user controls: the stored
// API key and an optional preferred model.
type Provider struct {
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Model  string `json:"model,omitempty" yaml:"model,omitempty"`
}

// Profile mirrors the dietary profile used for prompt assembly.
type Profile struct {
	Allergies  []string `json:"allergies,omitempty" yaml:"allergies,omitempty"`
	Conditions []string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Diet       string   `json:"diet,omitempty" yaml:"diet,omitempty"`
	Dislikes   []string `json:"dislikes,omitempty" yaml:"dislikes,omitempty"`
	SkillLevel string   `json:"skill_level,omitempty" yaml:"skill_level,omitempty"`
	Location   string   `json:"location,omitempty" yaml:"location,omitempty"`
}

type Config struct {
	Host   string `json:"host,omitempty" yaml:"host,omitempty"`
	Port   int    `json:"port,omitempty" yaml:"port,omitempty"`
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// RelayURL is where adapters reach the forwarding relay. Empty
	// means the locally started server.
	RelayURL string `json:"relay_url,omitempty" yaml:"relay_url,omitempty"`

	DefaultProvider string `json:"default_provider,omitempty" yaml:"default_provider,omitempty"`
	DefaultModel    string `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	Language        string `json:"language,omitempty" yaml:"language,omitempty"`

	Providers map[string]Provider `json:"providers,omitempty" yaml:"providers,omitempty"`
	Profile   Profile             `json:"profile,omitempty" yaml:"profile,omitempty"`
}

// KeyFor returns the stored API key for a provider, preferring an
// environment override of the form CHEFSTREAM_<PROVIDER>_API_KEY.
func (c *Config) KeyFor(provider string) string {
	envName := envKeyPrefix + strings.ToUpper(strings.ReplaceAll(provider, "-", "_")) + envKeySuffix
	if key := os.Getenv(envName); key != "" {
		return key
	}

	return c.Providers[provider].APIKey
}

// Relay returns the relay base URL, defaulting to the local server.
func (c *Config) Relay() string {
	if c.RelayURL != "" {
		return c.RelayURL
	}

	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// Manager loads and holds a config snapshot. Readers always see a
// consistent value; reloads swap the snapshot atomically.
type Manager struct {
	baseDir     string
	configValue atomic.Value
}

func NewManager(baseDir string) *Manager {
	return &Manager{baseDir: baseDir}
}

// DefaultBaseDir is ~/.chefstream, falling back to the working
// directory when the home directory cannot be resolved.
func DefaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chefstream"
	}

	return filepath.Join(home, ".chefstream")
}

// Load reads config.json, or config.yaml when no JSON file exists, and
// applies a .env overlay from the config directory. A missing file
// yields the defaults rather than an error.
func (m *Manager) Load() (*Config, error) {
	// best-effort overlay for API keys kept out of the config file
	_ = godotenv.Load(filepath.Join(m.baseDir, ".env"))

	cfg := &Config{}

	path, data, err := m.readFile()
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else if strings.HasSuffix(path, ".yaml") {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal yaml config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}

	if cfg.Language == "" {
		cfg.Language = "English"
	}

	m.configValue.Store(cfg)

	return cfg, nil
}

func (m *Manager) readFile() (string, []byte, error) {
	jsonPath := filepath.Join(m.baseDir, jsonFilename)
	if data, err := os.ReadFile(jsonPath); err == nil {
		return jsonPath, data, nil
	} else if !os.IsNotExist(err) {
		return "", nil, err
	}

	yamlPath := filepath.Join(m.baseDir, yamlFilename)
	data, err := os.ReadFile(yamlPath)

	return yamlPath, data, err
}

func (m *Manager) Get() *Config {
	if v := m.configValue.Load(); v != nil {
		return v.(*Config)
	}

	cfg, err := m.Load()
	if err != nil {
		return &Config{
			Host:     DefaultHost,
			Port:     DefaultPort,
			Language: "English",
		}
	}

	return cfg
}

func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.baseDir, jsonFilename), data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	m.configValue.Store(cfg)

	return nil
}

func (m *Manager) GetPath() string {
	return filepath.Join(m.baseDir, jsonFilename)
}

func (m *Manager) Exists() bool {
	if _, err := os.Stat(filepath.Join(m.baseDir, jsonFilename)); err == nil {
		return true
	}

	_, err := os.Stat(filepath.Join(m.baseDir, yamlFilename))

	return err == nil
}
