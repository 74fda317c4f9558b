// Package cli is the cobra command tree for the searchd process: wiring
// stores, engines, and feature services together and exposing them as a
// minimal serve/init/recrawl command set. The HTTP surface this package
// starts is explicitly out of core scope (SPEC_FULL.md §1); it's kept
// thin, delegating every request straight to a feature service.
package cli

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EngineConfig overrides one registered engine's descriptor fields.
type EngineConfig struct {
	Enabled   *bool   `yaml:"enabled"`
	Weight    float64 `yaml:"weight"`
	TimeoutMs int     `yaml:"timeoutMs"`
}

// RecrawlerConfig mirrors SPEC_FULL.md §6's recrawler.* options.
type RecrawlerConfig struct {
	Workers             int  `yaml:"workers"`
	DNSWorkers          int  `yaml:"dnsWorkers"`
	TimeoutMs           int  `yaml:"timeoutMs"`
	BatchSize           int  `yaml:"batchSize"`
	TransportShards     int  `yaml:"transportShards"`
	MaxConnsPerDomain   int  `yaml:"maxConnsPerDomain"`
	DomainFailThreshold int  `yaml:"domainFailThreshold"`
	Resume              bool `yaml:"resume"`
	TwoPass             bool `yaml:"twoPass"`
}

// FTSConfig mirrors SPEC_FULL.md §6's fts.* options.
type FTSConfig struct {
	Driver   string `yaml:"driver"`
	DataDir  string `yaml:"dataDir"`
	Language string `yaml:"language"`
}

// CacheConfig mirrors SPEC_FULL.md §6's cache.ttl.* options.
type CacheConfig struct {
	TTLDefault time.Duration `yaml:"ttlDefault"`
	TTLImages  time.Duration `yaml:"ttlImages"`
	TTLNews    time.Duration `yaml:"ttlNews"`
}

// MetaSearchConfig mirrors SPEC_FULL.md §6's metasearch.* options.
type MetaSearchConfig struct {
	RequestBudgetMs int `yaml:"requestBudgetMs"`
	EarlyReturnMs   int `yaml:"earlyReturnMs"`
	MinEngines      int `yaml:"minEngines"`
}

// Config is the top-level searchd configuration file shape.
type Config struct {
	Addr       string                  `yaml:"addr"`
	DBPath     string                  `yaml:"dbPath"`
	Cache      CacheConfig             `yaml:"cache"`
	MetaSearch MetaSearchConfig        `yaml:"metasearch"`
	Engines    map[string]EngineConfig `yaml:"engines"`
	Recrawler  RecrawlerConfig         `yaml:"recrawler"`
	FTS        FTSConfig               `yaml:"fts"`
}

// defaultConfig returns the SPEC_FULL.md §6 defaults.
func defaultConfig() Config {
	return Config{
		Addr:   ":8080",
		DBPath: "searchd.db",
		Cache: CacheConfig{
			TTLDefault: time.Hour,
			TTLImages:  15 * time.Minute,
			TTLNews:    5 * time.Minute,
		},
		MetaSearch: MetaSearchConfig{
			RequestBudgetMs: 10000,
			EarlyReturnMs:   300,
			MinEngines:      2,
		},
		Recrawler: RecrawlerConfig{
			Workers:             200,
			DNSWorkers:          2000,
			TimeoutMs:           5000,
			BatchSize:           5000,
			TransportShards:     64,
			MaxConnsPerDomain:   8,
			DomainFailThreshold: 3,
		},
		FTS: FTSConfig{Driver: "sqlite", Language: "en"},
	}
}

// loadConfig reads path (if non-empty and present) over defaultConfig.
// A missing file is not an error: every field already has a default.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
