package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/SIVIRA/unwallet-provider-js/pkg/cache"
	"github.com/SIVIRA/unwallet-provider-js/pkg/log"
	"github.com/SIVIRA/unwallet-provider-js/pkg/provider"
)

const (
	configDirPathEnv = "UNWALLET_CONFIG_DIR"
	rpcFileName      = "rpc.yaml"
	cacheFileName    = "cache.db"
	logFileName      = "console.log"

	cacheDSNMemory = "memory"
)

// Settings are the scalar settings read from the environment.
type Settings struct {
	Env                  string `env:"UNWALLET_ENV" env-default:"prod"`
	ChainID              uint64 `env:"UNWALLET_CHAIN_ID"`
	AllowAccountsCaching bool   `env:"UNWALLET_ALLOW_ACCOUNTS_CACHING" env-default:"false"`
	VerifySignatures     bool   `env:"UNWALLET_VERIFY_SIGNATURES" env-default:"true"`
	MetricsAddr          string `env:"UNWALLET_METRICS_ADDR"`
	CacheDSN             string `env:"UNWALLET_CACHE_DSN"`

	Log log.Config
}

// RPCConfig is the layout of rpc.yaml.
type RPCConfig struct {
	Chains []ChainRPC `yaml:"chains"`
}

// ChainRPC is the JSON-RPC endpoint of one chain.
type ChainRPC struct {
	ID  uint64 `yaml:"id"`
	URL string `yaml:"url"`
}

// Config is the console configuration.
type Config struct {
	Dir         string
	Provider    provider.Config
	MetricsAddr string
	CacheDSN    string
	Log         log.Config
}

// LoadConfig reads <dir>/.env, the environment and <dir>/rpc.yaml. dir is
// UNWALLET_CONFIG_DIR, falling back to the user config directory.
func LoadConfig(logger log.Logger) (*Config, error) {
	configDir, err := configDirPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	dotEnvPath := filepath.Join(configDir, ".env")
	logger.Info("loading .env file", "path", dotEnvPath)
	if err := godotenv.Load(dotEnvPath); err != nil {
		logger.Warn(".env file not found")
	}

	var settings Settings
	if err := cleanenv.ReadEnv(&settings); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	// The prompt owns the terminal, so logs go to a file unless told otherwise.
	if os.Getenv("LOG_OUTPUT") == "" {
		settings.Log.Output = filepath.Join(configDir, logFileName)
	}

	rpcURLs, err := LoadRPCs(configDir)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded chain RPCs", "count", len(rpcURLs))

	cfg := &Config{
		Dir: configDir,
		Provider: provider.Config{
			Env:                  provider.Env(settings.Env),
			RPC:                  rpcURLs,
			AllowAccountsCaching: settings.AllowAccountsCaching,
			ChainID:              settings.ChainID,
			VerifySignatures:     settings.VerifySignatures,
		},
		MetricsAddr: settings.MetricsAddr,
		CacheDSN:    settings.CacheDSN,
		Log:         settings.Log,
	}

	if err := cfg.Provider.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configDirPath() (string, error) {
	if dir := os.Getenv(configDirPathEnv); dir != "" {
		return dir, nil
	}

	userConfDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(userConfDir, "unwallet"), nil
}

// LoadRPCs reads the chain RPC table from <configDir>/rpc.yaml. A missing
// file yields an empty table.
func LoadRPCs(configDir string) (map[uint64]string, error) {
	f, err := os.Open(filepath.Join(configDir, rpcFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return map[uint64]string{}, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg RPCConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", rpcFileName, err)
	}

	rpcURLs := make(map[uint64]string, len(cfg.Chains))
	for _, chain := range cfg.Chains {
		if _, ok := rpcURLs[chain.ID]; ok {
			return nil, fmt.Errorf("duplicate RPC for chain %d", chain.ID)
		}
		rpcURLs[chain.ID] = chain.URL
	}
	return rpcURLs, nil
}

// cacheDriver classifies a cache DSN as memory, postgres or sqlite.
func cacheDriver(dsn string) string {
	switch {
	case dsn == cacheDSNMemory:
		return "memory"
	case strings.HasPrefix(dsn, "postgres://"),
		strings.HasPrefix(dsn, "postgresql://"),
		strings.Contains(dsn, "host="):
		return "postgres"
	default:
		return "sqlite"
	}
}

// OpenCacheStore opens the accounts cache selected by cfg.CacheDSN. An empty
// DSN means a SQLite file in the config directory. The returned close
// function is never nil.
func OpenCacheStore(cfg *Config) (cache.Store, func() error, error) {
	noop := func() error { return nil }

	switch cacheDriver(cfg.CacheDSN) {
	case "memory":
		return cache.NewMemoryStore(), noop, nil
	case "postgres":
		store, err := cache.NewPostgresStore(cfg.CacheDSN)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		path := cfg.CacheDSN
		if path == "" {
			path = filepath.Join(cfg.Dir, cacheFileName)
		}
		store, err := cache.NewSQLiteStore(path)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	}
}
