// Package config loads and holds all relay configuration.
// Settings come from built-in defaults, then relay-config.json, then
// environment variables. A .env file in the working directory, if present,
// is loaded into the environment first.
package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultFile is the config file read by Load.
const DefaultFile = "relay-config.json"

// Config holds the full relay configuration.
type Config struct {
	LogLevel string `json:"logLevel"`

	// Contract excerpt tuning.
	MaxChunks     int `json:"maxChunks"`
	MinChunkChars int `json:"minChunkChars"`

	// ValidateInput checks raw data packages against the embedded schema
	// before decoding.
	ValidateInput bool `json:"validateInput"`

	// HTTP API (relay serve).
	BindAddress string `json:"bindAddress"`
	Port        int    `json:"port"`
	APIToken    string `json:"apiToken"` // bearer token; empty = no auth
	MaxBodySize int64  `json:"maxBodySize"`
}

// Load returns config with defaults overridden by relay-config.json and env vars.
func Load() *Config {
	return LoadFrom(DefaultFile)
}

// LoadFrom is Load with an explicit config file path.
func LoadFrom(path string) *Config {
	// Best-effort: a missing .env is not an error.
	_ = godotenv.Load()

	cfg := defaults()
	loadFile(cfg, path)
	loadEnv(cfg)
	return cfg
}

func defaults() *Config {
	return &Config{
		LogLevel:      "info",
		MaxChunks:     15,
		MinChunkChars: 20,
		ValidateInput: true,
		BindAddress:   "127.0.0.1",
		Port:          8090,
		MaxBodySize:   10 << 20,
	}
}

func loadFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return // file is optional
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		log.Printf("[CONFIG] Warning: could not parse %s: %v", path, err)
	} else {
		log.Printf("[CONFIG] Loaded %s", path)
	}
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("RELAY_MAX_CHUNKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxChunks = n
		}
	}
	if v := os.Getenv("RELAY_MIN_CHUNK_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MinChunkChars = n
		}
	}
	if v := os.Getenv("RELAY_VALIDATE_INPUT"); strings.EqualFold(v, "false") {
		cfg.ValidateInput = false
	}
	if v := os.Getenv("BIND_ADDRESS"); v != "" {
		cfg.BindAddress = v
	}
	if v := os.Getenv("RELAY_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := os.Getenv("RELAY_API_TOKEN"); v != "" {
		cfg.APIToken = v
	}
	if v := os.Getenv("RELAY_MAX_BODY_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxBodySize = n
		}
	}
}
