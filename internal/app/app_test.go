package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"chess-analytica/internal/config"
)

func TestOpenWithoutCache(t *testing.T) {
	cfg := config.Default()
	cfg.Cache = config.CacheNone
	cfg.Workers = 3

	svc, err := Open(context.Background(), &cfg, false, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Shutdown(time.Second)

	if svc.GetStorageHealth() != "disabled" {
		t.Errorf("health = %q", svc.GetStorageHealth())
	}
	if svc.Pool().Workers() != 3 {
		t.Errorf("workers = %d", svc.Pool().Workers())
	}
}

func TestOpenSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.StoragePath = filepath.Join(t.TempDir(), "nested", "cache.db")

	svc, err := Open(context.Background(), &cfg, true, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Shutdown(time.Second)

	if svc.GetStorageHealth() != "ok" {
		t.Errorf("health = %q", svc.GetStorageHealth())
	}
}

func TestOpenRedisBadURL(t *testing.T) {
	cfg := config.Default()
	cfg.Cache = config.CacheRedis
	cfg.RedisURL = "not-a-url"

	if _, err := Open(context.Background(), &cfg, false, zerolog.Nop()); err == nil {
		t.Error("expected error for malformed redis URL")
	}
}
