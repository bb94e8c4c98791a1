package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds device configuration: object store credentials, the user's
// cloud identity, and the local data root.
type Config struct {
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Bucket          string `json:"bucket"`
	UseSSL          bool   `json:"use_ssl"`

	UserID string `json:"user_id"`
	Token  string `json:"token"`

	DataDir string `json:"data_dir,omitempty"`
}

// Load reads configuration from ~/.oralvis/config.json.
// Returns a zero config if the file doesn't exist.
func Load() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// Save writes configuration to ~/.oralvis/config.json.
func Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	configPath, err := getConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file holds credentials
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks the config for obviously broken values.
func (c *Config) Validate() error {
	if strings.ContainsAny(c.AccessKeyID, " \t\n\r") {
		return fmt.Errorf("access key contains whitespace")
	}
	if strings.ContainsAny(c.SecretAccessKey, " \t\n\r") {
		return fmt.Errorf("secret key contains whitespace")
	}
	if c.UserID != "" && strings.ContainsAny(c.UserID, "/ \t\n\r") {
		return fmt.Errorf("user id must not contain slashes or whitespace")
	}
	return nil
}

// Configured reports whether the remote store is fully configured.
func (c *Config) Configured() bool {
	return c.Endpoint != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.Bucket != ""
}

// DataRoot returns the local data root directory. Precedence: ORALVIS_DATA_DIR,
// the configured data_dir, then ~/.oralvis/data.
func (c *Config) DataRoot() (string, error) {
	if dir := os.Getenv("ORALVIS_DATA_DIR"); dir != "" {
		return dir, nil
	}
	if c.DataDir != "" {
		return c.DataDir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".oralvis", "data"), nil
}

func getConfigPath() (string, error) {
	// Allow overriding config path for testing
	if testConfigPath := os.Getenv("ORALVIS_CONFIG_PATH"); testConfigPath != "" {
		return testConfigPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".oralvis", "config.json"), nil
}
