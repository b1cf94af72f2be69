package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("KNOWLEDGE_BASE_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.KnowledgeBasePath != "knowledge_base.json" {
		t.Errorf("expected default knowledge base path, got %s", cfg.KnowledgeBasePath)
	}
	if cfg.StatsTopN != 5 {
		t.Errorf("expected default top 5, got %d", cfg.StatsTopN)
	}
	if cfg.NormalizeSymptoms {
		t.Error("expected symptom normalisation to be off by default")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("KNOWLEDGE_BASE_PATH", "/etc/clinica/kb.yaml")
	t.Setenv("NORMALIZE_SYMPTOMS", "true")
	t.Setenv("STATS_TOP_N", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.IsProduction() {
		t.Errorf("expected production env, got %s", cfg.Env)
	}
	if cfg.KnowledgeBasePath != "/etc/clinica/kb.yaml" {
		t.Errorf("expected path from env, got %s", cfg.KnowledgeBasePath)
	}
	if !cfg.NormalizeSymptoms {
		t.Error("expected NORMALIZE_SYMPTOMS=true to enable normalisation")
	}
	if cfg.StatsTopN != 10 {
		t.Errorf("expected top 10, got %d", cfg.StatsTopN)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}

func TestConfig_ResolvedLogLevel(t *testing.T) {
	tests := []struct {
		env, level, want string
	}{
		{"development", "", "debug"},
		{"testing", "", "debug"},
		{"production", "", "error"},
		{"staging", "", "info"},
		{"production", "warn", "warn"},
	}
	for _, tt := range tests {
		c := &Config{Env: tt.env, LogLevel: tt.level}
		if got := c.ResolvedLogLevel(); got != tt.want {
			t.Errorf("ResolvedLogLevel(env=%q, level=%q) = %q, want %q", tt.env, tt.level, got, tt.want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{Env: "development", KnowledgeBasePath: "kb.json", StatsTopN: 5}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []Config{
		{Env: "staging", KnowledgeBasePath: "kb.json"},
		{Env: "development", LogLevel: "loud", KnowledgeBasePath: "kb.json"},
		{Env: "development"},
		{Env: "development", KnowledgeBasePath: "kb.json", StatsTopN: -1},
	}
	for _, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("expected validation error for %+v", c)
		}
	}
}
