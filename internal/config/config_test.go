package config

import (
	"testing"
	"time"
)

func validTestConfig() *Config {
	return &Config{
		AI: AIConfig{
			Enabled: false,
			Timeout: 60 * time.Second,
		},
		Store: StoreConfig{
			Path: "job_descriptions.json",
		},
		Scoring: ScoringConfig{
			SkillWeight:      0.6,
			ExperienceWeight: 0.4,
		},
		Server: ServerConfig{
			Port: "8080",
		},
		App: AppConfig{
			LogLevel:         "info",
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
			MaxFileSize:      5 * 1024 * 1024,
			BulkWorkers:      4,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"ai enabled without key", func(c *Config) { c.AI.Enabled = true }, true},
		{"ai enabled with key", func(c *Config) {
			c.AI.Enabled = true
			c.AI.APIKey = "test-key"
		}, false},
		{"ai key supplied by vault", func(c *Config) {
			c.AI.Enabled = true
			c.Vault.Enabled = true
			c.Vault.Secrets.GeminiKey = "secret/data/screenmatch"
		}, false},
		{"missing store path", func(c *Config) { c.Store.Path = "" }, true},
		{"weights do not sum to one", func(c *Config) { c.Scoring.SkillWeight = 0.9 }, true},
		{"negative weight", func(c *Config) {
			c.Scoring.SkillWeight = -0.2
			c.Scoring.ExperienceWeight = 1.2
		}, true},
		{"missing port", func(c *Config) { c.Server.Port = "" }, true},
		{"zero bulk workers", func(c *Config) { c.App.BulkWorkers = 0 }, true},
		{"unsupported default format", func(c *Config) { c.App.DefaultFormat = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
