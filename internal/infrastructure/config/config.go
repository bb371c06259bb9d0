package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Ryobi GDO bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Ryobi   RyobiConfig   `yaml:"ryobi"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Logging LoggingConfig `yaml:"logging"`
}

// RyobiConfig contains Ryobi cloud account settings.
type RyobiConfig struct {
	// Email is the Ryobi account email address.
	Email string `yaml:"email"`

	// Password is the Ryobi account password.
	// Prefer setting this via RYOBI_PASSWORD rather than the config file.
	Password string `yaml:"password"`

	// Devices optionally restricts the bridge to the listed device ids.
	// When empty, every device on the account is bridged.
	Devices []string `yaml:"devices"`

	// Host is the vendor API host. Only override for testing.
	Host string `yaml:"host"`

	// RequestTimeout is the per-request timeout in seconds for vendor HTTP calls.
	RequestTimeout int `yaml:"request_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: RYOBI_SECTION_KEY
// For example: RYOBI_EMAIL, RYOBI_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv builds a configuration from defaults and environment variables
// only, for deployments that run without a config file (e.g. containers
// configured entirely through the environment).
func LoadFromEnv() (*Config, error) {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Ryobi: RyobiConfig{
			Host:           "tti.tiwiconnect.com",
			RequestTimeout: 10,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "ryobi-gdo-bridge",
			},
			QoS:         1,
			TopicPrefix: "ryobi",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: RYOBI_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Ryobi account
	if v := os.Getenv("RYOBI_EMAIL"); v != "" {
		cfg.Ryobi.Email = v
	}
	if v := os.Getenv("RYOBI_PASSWORD"); v != "" {
		cfg.Ryobi.Password = v
	}
	if v := os.Getenv("RYOBI_DEVICES"); v != "" {
		cfg.Ryobi.Devices = splitList(v)
	}
	if v := os.Getenv("RYOBI_HOST"); v != "" {
		cfg.Ryobi.Host = v
	}

	// MQTT
	if v := os.Getenv("RYOBI_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("RYOBI_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("RYOBI_MQTT_USER"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("RYOBI_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Logging
	if v := os.Getenv("RYOBI_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// splitList splits a comma-separated environment value into trimmed entries.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Account validation: the bridge cannot do anything without credentials.
	if c.Ryobi.Email == "" {
		errs = append(errs, "ryobi.email is required (set RYOBI_EMAIL environment variable)")
	}
	if c.Ryobi.Password == "" {
		errs = append(errs, "ryobi.password is required (set RYOBI_PASSWORD environment variable)")
	}
	if c.Ryobi.Host == "" {
		errs = append(errs, "ryobi.host is required")
	}
	if c.Ryobi.RequestTimeout < 1 {
		errs = append(errs, "ryobi.request_timeout must be at least 1 second")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetRequestTimeout returns the vendor HTTP request timeout as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.Ryobi.RequestTimeout) * time.Second
}
