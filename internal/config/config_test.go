package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wordquiz.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() returned an unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected addr :8080, but got %s", cfg.Server.Addr)
	}
	if cfg.Content.Timeout != 15*time.Second {
		t.Errorf("Expected a 15s timeout, but got %s", cfg.Content.Timeout)
	}
	if cfg.Content.RefreshInterval != 30*time.Minute {
		t.Errorf("Expected a 30m refresh interval, but got %s", cfg.Content.RefreshInterval)
	}
	if len(cfg.Content.Languages) != 2 || cfg.Content.Languages[0] != "en" {
		t.Errorf("Expected languages [en fr], but got %v", cfg.Content.Languages)
	}
	if cfg.Quiz.MasteryThreshold != 3 {
		t.Errorf("Expected mastery threshold 3, but got %d", cfg.Quiz.MasteryThreshold)
	}
	if cfg.Auth.VerifyPasswords {
		t.Errorf("Expected password verification to be off by default")
	}
	if !strings.HasSuffix(cfg.Storage.DSN, "wordquiz.db") {
		t.Errorf("Expected a sqlite file in the data directory, but got %s", cfg.Storage.DSN)
	}
}

func TestLoadLayers(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
content:
  kind: http
  location: https://example.com/content
  languages: [pt]
quiz:
  mastery_threshold: 0
log:
  format: json
`)

	t.Run("file", func(t *testing.T) {
		cfg, err := Load([]string{"--config", path})
		if err != nil {
			t.Fatalf("Load() returned an unexpected error: %v", err)
		}
		if cfg.Server.Addr != ":9000" {
			t.Errorf("Expected addr from file, but got %s", cfg.Server.Addr)
		}
		if cfg.Content.Kind != "http" || cfg.Content.Location != "https://example.com/content" {
			t.Errorf("Expected http content from file, but got %+v", cfg.Content)
		}
		if len(cfg.Content.Languages) != 1 || cfg.Content.Languages[0] != "pt" {
			t.Errorf("Expected languages [pt], but got %v", cfg.Content.Languages)
		}
		if cfg.Quiz.MasteryThreshold != 0 {
			t.Errorf("Expected mastery threshold 0 from file, but got %d", cfg.Quiz.MasteryThreshold)
		}
		if cfg.Log.Format != "json" {
			t.Errorf("Expected json logs, but got %s", cfg.Log.Format)
		}
		if cfg.Log.Level != "info" {
			t.Errorf("Expected the default level for keys the file omits, but got %s", cfg.Log.Level)
		}
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("WORDQUIZ_SERVER__ADDR", ":7000")
		t.Setenv("WORDQUIZ_CONTENT__LANGUAGES", "en,es")
		cfg, err := Load([]string{"--config", path})
		if err != nil {
			t.Fatalf("Load() returned an unexpected error: %v", err)
		}
		if cfg.Server.Addr != ":7000" {
			t.Errorf("Expected addr from env, but got %s", cfg.Server.Addr)
		}
		if len(cfg.Content.Languages) != 2 || cfg.Content.Languages[1] != "es" {
			t.Errorf("Expected languages [en es], but got %v", cfg.Content.Languages)
		}
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv("WORDQUIZ_SERVER__ADDR", ":7000")
		cfg, err := Load([]string{"--config", path, "--server.addr", ":6000"})
		if err != nil {
			t.Fatalf("Load() returned an unexpected error: %v", err)
		}
		if cfg.Server.Addr != ":6000" {
			t.Errorf("Expected addr from flags, but got %s", cfg.Server.Addr)
		}
	})
}

func TestLoadInvalid(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{"unknown driver", []string{"--storage.driver", "mysql"}},
		{"unknown content kind", []string{"--content.kind", "ftp"}},
		{"postgres without dsn", []string{"--storage.driver", "postgres"}},
		{"negative threshold", []string{"--quiz.mastery_threshold", "-1"}},
		{"unknown log level", []string{"--log.level", "loud"}},
		{"unknown flag", []string{"--nope"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(tc.args); err == nil {
				t.Errorf("Expected an error for %v", tc.args)
			}
		})
	}
}
