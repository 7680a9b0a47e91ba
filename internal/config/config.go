package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/recollect/config.yaml"

// Config holds all recollect configuration.
type Config struct {
	Sources    SourcesConfig    `yaml:"sources"`
	Exclusions ExclusionsConfig `yaml:"exclusions"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Search     SearchConfig     `yaml:"search"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SourcesConfig toggles which local data stores are read.
type SourcesConfig struct {
	Safari   bool `yaml:"safari"`
	Chrome   bool `yaml:"chrome"`
	IMessage bool `yaml:"imessage"`
	WhatsApp bool `yaml:"whatsapp"`
}

// ExclusionsConfig filters what the connectors return. Domains match
// exactly or by subdomain; contacts match by substring.
type ExclusionsConfig struct {
	Domains  []string `yaml:"domains"`
	Contacts []string `yaml:"contacts"`
}

type FetchConfig struct {
	MaxRedirects     int `yaml:"max_redirects"`
	MaxResponseBytes int `yaml:"max_response_bytes"`
	TimeoutSeconds   int `yaml:"timeout_seconds"`
	MaxLength        int `yaml:"max_length"`
}

type SearchConfig struct {
	APIKeyEnv  string `yaml:"api_key_env"`
	MaxResults int    `yaml:"max_results"`
}

type ArchiveConfig struct {
	Path              string `yaml:"path"`
	SQLiteFile        string `yaml:"sqlite_file"`
	RetentionDays     int    `yaml:"retention_days"`
	SQLiteJournalMode string `yaml:"sqlite_journal_mode"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
