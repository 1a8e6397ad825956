package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(cfg.TimeControls["bullet"]) != 3 {
		t.Errorf("bullet = %v", cfg.TimeControls["bullet"])
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"cache": "redis",
		"redis_url": "redis://localhost:6379/0",
		"redis_ttl": "1h",
		"http_timeout": "5s",
		"workers": 8,
		"time_controls": {"Bullet": ["30", "60"], "blitz": ["180"]}
	}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache != CacheRedis || cfg.RedisTTL.Std() != time.Hour || cfg.HTTPTimeout.Std() != 5*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Workers != 8 || cfg.UserAgent == "" {
		t.Errorf("workers = %d, user agent = %q", cfg.Workers, cfg.UserAgent)
	}
	if got := cfg.TimeControls["bullet"]; len(got) != 2 || got[0] != "30" {
		t.Errorf("bullet = %v", got)
	}
	if _, ok := cfg.TimeControls["rapid"]; ok {
		t.Error("file classes should replace the defaults")
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"bad cache":       `{"cache": "memcached"}`,
		"redis no url":    `{"cache": "redis"}`,
		"zero workers":    `{"workers": 0}`,
		"bad level":       `{"log_level": "loud"}`,
		"bad duration":    `{"http_timeout": "soon"}`,
		"no time control": `{"time_controls": {}}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if err := os.WriteFile(path, []byte(data), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			var invalid *InvalidConfig
			if !errors.As(err, &invalid) {
				t.Errorf("err = %v, want InvalidConfig", err)
			}
		})
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.Workers = 3
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Workers != 3 || loaded.HTTPTimeout != cfg.HTTPTimeout {
		t.Errorf("loaded = %+v", loaded)
	}
}
