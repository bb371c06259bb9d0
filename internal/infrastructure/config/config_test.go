package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
ryobi:
  email: "user@example.com"
  password: "hunter2"
  devices:
    - "abc123"
mqtt:
  broker:
    host: "broker.local"
    port: 1883
    client_id: "test-client"
  qos: 1
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Ryobi.Email != "user@example.com" {
		t.Errorf("Ryobi.Email = %q, want %q", cfg.Ryobi.Email, "user@example.com")
	}
	if len(cfg.Ryobi.Devices) != 1 || cfg.Ryobi.Devices[0] != "abc123" {
		t.Errorf("Ryobi.Devices = %v, want [abc123]", cfg.Ryobi.Devices)
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}

	// Defaults fill in what the file omits.
	if cfg.Ryobi.Host != "tti.tiwiconnect.com" {
		t.Errorf("Ryobi.Host = %q, want default vendor host", cfg.Ryobi.Host)
	}
	if cfg.MQTT.TopicPrefix != "ryobi" {
		t.Errorf("MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "ryobi")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name: "missing email",
			content: `
ryobi:
  password: "hunter2"
`,
			wantMsg: "ryobi.email is required",
		},
		{
			name: "missing password",
			content: `
ryobi:
  email: "user@example.com"
`,
			wantMsg: "ryobi.password is required",
		},
		{
			name: "bad qos",
			content: `
ryobi:
  email: "user@example.com"
  password: "hunter2"
mqtt:
  qos: 3
`,
			wantMsg: "mqtt.qos must be 0, 1, or 2",
		},
		{
			name: "bad port",
			content: `
ryobi:
  email: "user@example.com"
  password: "hunter2"
mqtt:
  broker:
    port: 70000
`,
			wantMsg: "mqtt.broker.port must be between 1 and 65535",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Load() error = %q, want substring %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
ryobi:
  email: "file@example.com"
  password: "from-file"
`
	t.Setenv("RYOBI_EMAIL", "env@example.com")
	t.Setenv("RYOBI_MQTT_HOST", "env-broker")
	t.Setenv("RYOBI_MQTT_PORT", "8883")
	t.Setenv("RYOBI_DEVICES", "dev1, dev2")

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Ryobi.Email != "env@example.com" {
		t.Errorf("Ryobi.Email = %q, want env override", cfg.Ryobi.Email)
	}
	if cfg.Ryobi.Password != "from-file" {
		t.Errorf("Ryobi.Password = %q, want file value preserved", cfg.Ryobi.Password)
	}
	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("MQTT.Broker.Host = %q, want env override", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
	if len(cfg.Ryobi.Devices) != 2 || cfg.Ryobi.Devices[1] != "dev2" {
		t.Errorf("Ryobi.Devices = %v, want [dev1 dev2]", cfg.Ryobi.Devices)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RYOBI_EMAIL", "env@example.com")
	t.Setenv("RYOBI_PASSWORD", "env-secret")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.Ryobi.Email != "env@example.com" {
		t.Errorf("Ryobi.Email = %q, want env value", cfg.Ryobi.Email)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want default 1883", cfg.MQTT.Broker.Port)
	}
}

func TestLoadFromEnv_MissingCredentials(t *testing.T) {
	_, err := LoadFromEnv()
	if err == nil {
		t.Error("LoadFromEnv() expected error without credentials, got nil")
	}
}
