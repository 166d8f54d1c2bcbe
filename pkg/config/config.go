package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Dataset DatasetConfig `yaml:"dataset" toml:"dataset"`
	Index   IndexConfig   `yaml:"index" toml:"index"`
	Log     LogConfig     `yaml:"log" toml:"log"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr" toml:"addr"`         // HTTP Listen Address (e.g. :8080)
	TCPAddr string `yaml:"tcp_addr" toml:"tcp_addr"` // TCP Listen Address (e.g. :9090)
}

type DatasetConfig struct {
	Path  string `yaml:"path" toml:"path"`   // .csv or SQLite file; empty starts with an empty index
	Table string `yaml:"table" toml:"table"` // SQLite table name
}

type IndexConfig struct {
	Engine         string  `yaml:"engine" toml:"engine"` // "avl" or "btree"
	BTreeDegree    int     `yaml:"btree_degree" toml:"btree_degree"`
	BloomSize      uint    `yaml:"bloom_size" toml:"bloom_size"`
	BloomFalseProb float64 `yaml:"bloom_false_prob" toml:"bloom_false_prob"`
	QueryCacheSize uint32  `yaml:"query_cache_size" toml:"query_cache_size"`
}

type LogConfig struct {
	Backend string `yaml:"backend" toml:"backend"` // "zap" or "logrus"
	Level   string `yaml:"level" toml:"level"`
	Format  string `yaml:"format" toml:"format"` // zap: json|console, logrus: text|json
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:    ":8080",
			TCPAddr: ":9090",
		},
		Dataset: DatasetConfig{
			Table: "properties",
		},
		Index: IndexConfig{
			Engine:         "avl",
			BTreeDegree:    32,
			BloomSize:      100000,
			BloomFalseProb: 0.01,
			QueryCacheSize: 256,
		},
		Log: LogConfig{
			Backend: "zap",
			Level:   "info",
			Format:  "json",
		},
	}
}

// Load reads configPath over the defaults. An empty path searches the
// usual locations and falls back to defaults when none exists.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		for _, p := range []string{"configs/propindex.yaml", "propindex.yaml", "propindex.toml"} {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
		if configPath == "" {
			return cfg, nil // no file found: use defaults
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}

	if strings.EqualFold(filepath.Ext(configPath), ".toml") {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return cfg, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Dataset.Table == "" {
		cfg.Dataset.Table = def.Dataset.Table
	}
	switch strings.ToLower(cfg.Index.Engine) {
	case "avl", "btree":
		cfg.Index.Engine = strings.ToLower(cfg.Index.Engine)
	default:
		cfg.Index.Engine = def.Index.Engine
	}
	if cfg.Index.BTreeDegree < 2 {
		cfg.Index.BTreeDegree = def.Index.BTreeDegree
	}
	if cfg.Index.BloomSize == 0 {
		cfg.Index.BloomSize = def.Index.BloomSize
	}
	if cfg.Index.BloomFalseProb <= 0 || cfg.Index.BloomFalseProb >= 1 {
		cfg.Index.BloomFalseProb = def.Index.BloomFalseProb
	}
	if cfg.Log.Backend == "" {
		cfg.Log.Backend = def.Log.Backend
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}
