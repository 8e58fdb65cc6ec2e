package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models linguadesk.yml.
type Config struct {
	Organization struct {
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Phone    string `yaml:"phone"`
		Currency string `yaml:"currency"`
	} `yaml:"organization"`
	Notifications struct {
		Mode string `yaml:"mode"` // log or smtp
		SMTP struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			From     string `yaml:"from"`
			Username string `yaml:"username"`
			Password string `yaml:"password"`
		} `yaml:"smtp"`
	} `yaml:"notifications"`
	Server struct {
		Addr      string `yaml:"addr"`
		BasePath  string `yaml:"base_path"`
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"server"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Events         []string `yaml:"events"`
	Secret         string   `yaml:"secret"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Enabled        *bool    `yaml:"enabled"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; generate one with linguadesk config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the defaults if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Organization.Name == "" {
		return fmt.Errorf("config.organization.name is required")
	}
	if c.Organization.Email == "" {
		return fmt.Errorf("config.organization.email is required")
	}
	if c.Organization.Currency == "" {
		return fmt.Errorf("config.organization.currency is required")
	}
	switch c.Notifications.Mode {
	case "", "log":
	case "smtp":
		if c.Notifications.SMTP.Host == "" {
			return fmt.Errorf("config.notifications.smtp.host is required for mode smtp")
		}
		if c.Notifications.SMTP.From == "" {
			return fmt.Errorf("config.notifications.smtp.from is required for mode smtp")
		}
	default:
		return fmt.Errorf("config.notifications.mode must be log or smtp")
	}
	for i, hook := range c.Webhooks {
		if hook.URL == "" {
			return fmt.Errorf("config.webhooks[%d].url is required", i)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "linguadesk.yml")
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `organization:
  name: Linguadesk
  email: bookings@linguadesk.example
  phone: "+1 555 0100"
  currency: USD

notifications:
  mode: log

server:
  addr: :8080
  base_path: /v1
  jwt_secret: ""

# webhooks:
#   - url: https://example.com/hooks/linguadesk
#     events: [request.approved, request.rejected]
#     secret: shared-secret
`
