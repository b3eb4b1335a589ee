package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testConfig struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Level string `yaml:"level"`
}

func (c *testConfig) Validate() error {
	if c.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("CONFIG_TEST_NAME", "montage")
	path := writeConfig(t, "name: ${CONFIG_TEST_NAME}\nport: 8080\n")

	cfg := testConfig{Level: "info"}
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "montage" || cfg.Port != 8080 || cfg.Level != "info" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"malformed", "port: [", "failed to parse"},
		{"invalid", "port: 0", "validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg testConfig
			err := Load(writeConfig(t, tt.content), &cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}

	var cfg testConfig
	if err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Error("missing file should fail")
	}
}

func TestLoadOptional(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	cfg := testConfig{Port: 9000}
	if err := LoadOptional(missing, &cfg); err != nil {
		t.Fatalf("missing file with valid defaults: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("defaults changed: %+v", cfg)
	}

	var zero testConfig
	if err := LoadOptional(missing, &zero); err == nil {
		t.Error("invalid defaults should still fail validation")
	}

	if err := LoadOptional(writeConfig(t, "port: 7000\n"), &cfg); err != nil || cfg.Port != 7000 {
		t.Errorf("present file: cfg %+v, err %v", cfg, err)
	}
}
