// Package config loads and holds all run configuration.
// Settings are layered: defaults -> flfp-config.json -> environment
// variables (env vars win).
package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
)

// Config holds the full run configuration.
type Config struct {
	DataDir     string `json:"dataDir"`
	FilterlistDir string `json:"filterlistDir"`
	OutDir      string `json:"outDir"`

	Encoding string `json:"encoding"` // "filterlist" | "rule"
	Method   string `json:"method"`  // "targeted" | "general"

	WorkerCount int `json:"workerCount"`

	GeneralMaxSignature int `json:"generalMaxSignature"`

	MaxIter             int     `json:"maxIter"`
	UniquenessThreshold float64 `json:"uniquenessThreshold"`
	EntropyThreshold    float64 `json:"entropyThreshold"`

	StorageBackend string `json:"storageBackend"` // "file" | "postgres" | "bbolt"
	RegistryFile   string `json:"registryFile"`
	PostgresDSN    string `json:"postgresDsn"`

	APIBindAddress string `json:"apiBindAddress"`
	APIAuthToken   string `json:"apiAuthToken"`

	LogLevel string `json:"logLevel"`
}

// Load returns config with defaults overridden by flfp-config.json and env
// vars, grounded on laplaque-ai-anonymizing-proxy's internal/config.Load.
func Load() *Config {
	cfg := defaults()
	loadFile(cfg, "flfp-config.json")
	loadEnv(cfg)
	return cfg
}

func defaults() *Config {
	return &Config{
		DataDir:             "data",
		FilterlistDir:       "data/filterlists",
		OutDir:              "out",
		Encoding:            "filterlist",
		Method:              "targeted",
		WorkerCount:         4,
		GeneralMaxSignature: 0,
		MaxIter:             20,
		UniquenessThreshold: 0.95,
		EntropyThreshold:    0.05,
		StorageBackend:      "file",
		RegistryFile:        "flfp-registry.db",
		APIBindAddress:      ":8080",
		LogLevel:            "info",
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
	if v := os.Getenv("FLFP_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("FLFP_FILTERLIST_DIR"); v != "" {
		cfg.FilterlistDir = v
	}
	if v := os.Getenv("FLFP_OUT_DIR"); v != "" {
		cfg.OutDir = v
	}
	if v := os.Getenv("FLFP_ENCODING"); v != "" {
		cfg.Encoding = v
	}
	if v := os.Getenv("FLFP_METHOD"); v != "" {
		cfg.Method = v
	}
	if v := os.Getenv("FLFP_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.WorkerCount = n
		}
	}
	if v := os.Getenv("FLFP_GENERAL_MAX_SIGNATURE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.GeneralMaxSignature = n
		}
	}
	if v := os.Getenv("FLFP_MAX_ITER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxIter = n
		}
	}
	if v := os.Getenv("FLFP_UNIQUENESS_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.UniquenessThreshold = f
		}
	}
	if v := os.Getenv("FLFP_ENTROPY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.EntropyThreshold = f
		}
	}
	if v := os.Getenv("FLFP_STORAGE_BACKEND"); v != "" {
		cfg.StorageBackend = v
	}
	if v := os.Getenv("FLFP_REGISTRY_FILE"); v != "" {
		cfg.RegistryFile = v
	}
	if v := os.Getenv("FLFP_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("FLFP_API_BIND_ADDRESS"); v != "" {
		cfg.APIBindAddress = v
	}
	if v := os.Getenv("FLFP_API_AUTH_TOKEN"); v != "" {
		cfg.APIAuthToken = v
	}
	if v := os.Getenv("FLFP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
