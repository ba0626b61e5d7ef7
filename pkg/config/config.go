package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	API    APIConfig    `yaml:"api"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Export ExportConfig `yaml:"export"`
	UI     UIConfig     `yaml:"ui"`
}

type APIConfig struct {
	BaseURL    string `yaml:"base_url"`
	UploadPath string `yaml:"upload_path"`
	// Timeout of zero leaves the request bounded only by the transport.
	Timeout time.Duration `yaml:"timeout"`
	// RateLimit caps outgoing submissions per second; zero disables it.
	RateLimit float64 `yaml:"rate_limit"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	FilesPath      string   `yaml:"files_path"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ExportConfig struct {
	Dir string `yaml:"dir"`
}

type UIConfig struct {
	Title       string `yaml:"title"`
	LiveUpdates bool   `yaml:"live_updates"`
	ShowErrors  bool   `yaml:"show_errors"`
}

const (
	DefaultBaseURL    = "http://127.0.0.1:8000"
	DefaultUploadPath = "/api/v0/upload-html/"
)

func (c *Config) UploadURL() string {
	return c.API.BaseURL + c.API.UploadPath
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"langdetect.yaml",
			"langdetect.yml",
			filepath.Join(os.Getenv("HOME"), ".config/langdetect/config.yaml"),
			"/etc/langdetect/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := Config{
		UI: UIConfig{LiveUpdates: true},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{
		UI: UIConfig{LiveUpdates: true},
	}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.API.BaseURL == "" {
		config.API.BaseURL = DefaultBaseURL
	}
	if config.API.UploadPath == "" {
		config.API.UploadPath = DefaultUploadPath
	}

	if config.Server.Host == "" {
		config.Server.Host = "127.0.0.1"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 3000
	}
	if config.Server.FilesPath == "" {
		config.Server.FilesPath = "/files"
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "console"
	}

	if config.Export.Dir == "" {
		config.Export.Dir = "."
	}

	if config.UI.Title == "" {
		config.UI.Title = "Language Detection"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("LANGDETECT_API_URL"); baseURL != "" {
		config.API.BaseURL = baseURL
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if level := os.Getenv("LANGDETECT_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
}
