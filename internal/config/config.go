package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"

	"chess-analytica/internal/chesscom"
	"chess-analytica/internal/timecontrol"
)

const (
	appDir   = "chess-analytica"
	cfgFile  = appDir + "/config.json"
	dataFile = appDir + "/cache.db"
)

const (
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

type InvalidConfig struct {
	err string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("config error: %s", e.err)
}

// Duration is a time.Duration written as "30s" in JSON
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	APIBaseURL   string              `json:"api_base_url" validate:"required,url"`
	UserAgent    string              `json:"user_agent" validate:"required"`
	HTTPTimeout  Duration            `json:"http_timeout" validate:"gt=0"`
	Cache        string              `json:"cache" validate:"oneof=sqlite redis none"`
	StoragePath  string              `json:"storage_path" validate:"required_if=Cache sqlite"`
	RedisURL     string              `json:"redis_url" validate:"required_if=Cache redis"`
	RedisTTL     Duration            `json:"redis_ttl" validate:"gte=0"`
	Workers      int                 `json:"workers" validate:"min=1,max=256"`
	LogLevel     string              `json:"log_level" validate:"oneof=trace debug info warn error"`
	ListenAddr   string              `json:"listen_addr" validate:"required,hostname_port"`
	TokenSecret  string              `json:"token_secret,omitempty"`
	TimeControls timecontrol.Classes `json:"time_controls" validate:"required,min=1,dive,keys,required,endkeys,min=1"`
}

// Default returns a configuration that works without a config file
func Default() Config {
	return Config{
		APIBaseURL:   chesscom.DefaultBaseURL,
		UserAgent:    "chess-analytica/1.0",
		HTTPTimeout:  Duration(30 * time.Second),
		Cache:        CacheSQLite,
		StoragePath:  DefaultStoragePath(),
		RedisTTL:     Duration(24 * time.Hour),
		Workers:      4,
		LogLevel:     "info",
		ListenAddr:   "localhost:8080",
		TimeControls: timecontrol.Default(),
	}
}

// DefaultStoragePath is the SQLite cache under the XDG data directory
func DefaultStoragePath() string {
	return filepath.Join(xdg.DataHome, dataFile)
}

// Load reads path, or the XDG config file when path is empty. A missing XDG
// file yields the defaults; a missing explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		found, err := xdg.SearchConfigFile(cfgFile)
		if err != nil {
			return finish(&cfg)
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	// A class table in the file replaces the defaults instead of merging into them
	cfg.TimeControls = nil
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &InvalidConfig{fmt.Sprintf("%s: %v", path, err)}
	}
	if cfg.TimeControls == nil {
		cfg.TimeControls = timecontrol.Default()
	}
	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.TimeControls = cfg.TimeControls.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return &InvalidConfig{strings.Join(msgs, "; ")}
	}
	return &InvalidConfig{err.Error()}
}

// Save writes the configuration to the XDG config location and returns the path
func (c *Config) Save() (string, error) {
	absPath, err := xdg.ConfigFile(cfgFile)
	if err != nil {
		return "", err
	}
	return absPath, c.SaveTo(absPath)
}

func (c *Config) SaveTo(path string) error {
	jsonData, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, jsonData, 0600)
}
