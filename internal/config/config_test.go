package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProps(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aktin.properties")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadReadsProperties(t *testing.T) {
	path := writeProps(t, `pseudonym.salt=pepper
pseudonym.algorithm=SHA-1
cda.patient.root.preset=1.2.276.0.76.4.8
cda.encounter.root.preset=1.2.276.0.76.4.9
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Salt != "pepper" {
		t.Errorf("Salt = %q, want pepper", cfg.Salt)
	}
	if cfg.Algorithm != "sha1" {
		t.Errorf("Algorithm = %q, want sha1", cfg.Algorithm)
	}
	if cfg.PatientRoot != "1.2.276.0.76.4.8" {
		t.Errorf("PatientRoot = %q", cfg.PatientRoot)
	}
	if cfg.EncounterRoot != "1.2.276.0.76.4.9" {
		t.Errorf("EncounterRoot = %q", cfg.EncounterRoot)
	}
}

func TestLoadMissingFileIsFatal(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.properties")); err == nil {
		t.Fatal("expected error for missing properties file")
	}
}

func TestAlgorithmDefaultsToSHA1(t *testing.T) {
	path := writeProps(t, `cda.patient.root.preset=a
cda.encounter.root.preset=b
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Algorithm != "sha1" {
		t.Errorf("Algorithm = %q, want sha1", cfg.Algorithm)
	}
}

func TestNormalizeAlgorithm(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "sha1"},
		{"SHA-1", "sha1"},
		{"SHA-256", "sha256"},
		{"SHA/256", "sha_256"},
		{"md5", "md5"},
	}
	for _, tt := range tests {
		if got := normalizeAlgorithm(tt.in); got != tt.want {
			t.Errorf("normalizeAlgorithm(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			ConnectionURL: "jdbc:postgresql://localhost:5432/dwh",
			Username:      "u",
			Password:      "p",
			ImporterID:    "anac",
			PatientRoot:   "a",
			EncounterRoot: "b",
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing url", func(c *Config) { c.ConnectionURL = "" }},
		{"missing username", func(c *Config) { c.Username = "" }},
		{"missing password", func(c *Config) { c.Password = "" }},
		{"missing importer id", func(c *Config) { c.ImporterID = "" }},
		{"missing patient root", func(c *Config) { c.PatientRoot = "" }},
		{"missing encounter root", func(c *Config) { c.EncounterRoot = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
