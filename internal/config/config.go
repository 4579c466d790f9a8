// Package config loads bidcheck settings from defaults, an optional TOML or
// YAML file and BIDCHECK_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/abner20953/bidding-data/internal/fingerprint"
	"github.com/abner20953/bidding-data/internal/forensics"
	"github.com/abner20953/bidding-data/internal/guard"
	"github.com/abner20953/bidding-data/internal/index"
	"github.com/abner20953/bidding-data/internal/ingest"
)

type EngineConfig struct {
	MinFingerprintLength      int     `toml:"min_fingerprint_length" yaml:"min_fingerprint_length"`
	NumericMinLength          int     `toml:"numeric_min_length" yaml:"numeric_min_length"`
	ShortLineLength           int     `toml:"short_line_length" yaml:"short_line_length"`
	FuzzyThreshold            float64 `toml:"fuzzy_threshold" yaml:"fuzzy_threshold"`
	TenderThreshold           float64 `toml:"tender_threshold" yaml:"tender_threshold"`
	Strategy                  string  `toml:"strategy" yaml:"strategy"`
	BigramOverlap             float64 `toml:"bigram_overlap" yaml:"bigram_overlap"`
	MaxCandidates             int     `toml:"max_candidates" yaml:"max_candidates"`
	ScanMinJaccard            float64 `toml:"scan_min_jaccard" yaml:"scan_min_jaccard"`
	RenumberMaxLength         int     `toml:"renumber_max_length" yaml:"renumber_max_length"`
	ExcludeParameterResponses bool    `toml:"exclude_parameter_responses" yaml:"exclude_parameter_responses"`
	ParameterMaxLength        int     `toml:"parameter_max_length" yaml:"parameter_max_length"`
	BrokenTailLength          int     `toml:"broken_tail_length" yaml:"broken_tail_length"`
	SequenceSimilarity        float64 `toml:"sequence_similarity" yaml:"sequence_similarity"`
	TimeoutSeconds            int     `toml:"timeout_seconds" yaml:"timeout_seconds"`
	MemoryFloorMB             int     `toml:"memory_floor_mb" yaml:"memory_floor_mb"`
	CheckEvery                int     `toml:"check_every" yaml:"check_every"`
}

type ExtractConfig struct {
	Converter               string   `toml:"converter" yaml:"converter"`
	ConverterTimeoutSeconds int      `toml:"converter_timeout_seconds" yaml:"converter_timeout_seconds"`
	DocTools                []string `toml:"doc_tools" yaml:"doc_tools"`
}

type ServerConfig struct {
	Addr        string `toml:"addr" yaml:"addr"`
	MaxUploadMB int    `toml:"max_upload_mb" yaml:"max_upload_mb"`
}

type StorageConfig struct {
	// Workspace is the root for archives, runs and logs. Empty means
	// ~/BidCheck.
	Workspace     string `toml:"workspace" yaml:"workspace"`
	Database      string `toml:"database" yaml:"database"`
	S3Bucket      string `toml:"s3_bucket" yaml:"s3_bucket"`
	S3Prefix      string `toml:"s3_prefix" yaml:"s3_prefix"`
	S3Region      string `toml:"s3_region" yaml:"s3_region"`
	S3Endpoint    string `toml:"s3_endpoint" yaml:"s3_endpoint"`
	RedisAddr     string `toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `toml:"redis_password" yaml:"redis_password"`
	RedisDB       int    `toml:"redis_db" yaml:"redis_db"`
	CacheTTLHours int    `toml:"cache_ttl_hours" yaml:"cache_ttl_hours"`
}

type LoggingConfig struct {
	Level   string `toml:"level" yaml:"level"`
	Format  string `toml:"format" yaml:"format"`
	Session bool   `toml:"session" yaml:"session"`
}

type BatchConfig struct {
	Workers int `toml:"workers" yaml:"workers"`
}

type Config struct {
	Engine  EngineConfig  `toml:"engine" yaml:"engine"`
	Extract ExtractConfig `toml:"extract" yaml:"extract"`
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Storage StorageConfig `toml:"storage" yaml:"storage"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Batch   BatchConfig   `toml:"batch" yaml:"batch"`
}

func defaults() Config {
	d := forensics.DefaultConfig()
	x := ingest.DefaultOptions()
	return Config{
		Engine: EngineConfig{
			MinFingerprintLength:      d.Rules.MinLength,
			NumericMinLength:          d.Rules.NumericMinLength,
			ShortLineLength:           d.ShortLineLength,
			FuzzyThreshold:            d.FuzzyThreshold,
			TenderThreshold:           d.TenderThreshold,
			Strategy:                  d.Index.Strategy,
			BigramOverlap:             d.Index.MinOverlap,
			MaxCandidates:             d.Index.MaxCandidates,
			ScanMinJaccard:            d.Index.MinJaccard,
			RenumberMaxLength:         d.RenumberMaxLength,
			ExcludeParameterResponses: d.ExcludeParameterResponses,
			ParameterMaxLength:        d.ParameterMaxLength,
			BrokenTailLength:          d.BrokenTailLength,
			SequenceSimilarity:        d.SequenceSimilarity,
			TimeoutSeconds:            int(d.Guard.Timeout / time.Second),
			MemoryFloorMB:             int(d.Guard.MinAvailable >> 20),
			CheckEvery:                d.Guard.Every,
		},
		Extract: ExtractConfig{
			Converter:               x.Converter,
			ConverterTimeoutSeconds: int(x.ConverterTimeout / time.Second),
			DocTools:                x.DocTools,
		},
		Server:  ServerConfig{Addr: ":8080", MaxUploadMB: 64},
		Storage: StorageConfig{CacheTTLHours: 24 * 7},
		Logging: LoggingConfig{Level: "info", Format: "json", Session: true},
		Batch:   BatchConfig{Workers: 4},
	}
}

// Default returns built-in defaults with environment overrides applied.
func Default() Config {
	cfg := defaults()
	applyEnv(&cfg)
	return cfg
}

// Load reads path (TOML, or YAML for .yaml/.yml) over the defaults, then
// applies the environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse YAML config: %w", err)
			}
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse TOML config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	e := c.Engine
	for name, v := range map[string]float64{
		"engine.fuzzy_threshold":     e.FuzzyThreshold,
		"engine.tender_threshold":    e.TenderThreshold,
		"engine.bigram_overlap":      e.BigramOverlap,
		"engine.scan_min_jaccard":    e.ScanMinJaccard,
		"engine.sequence_similarity": e.SequenceSimilarity,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", name, v)
		}
	}
	if e.Strategy != index.StrategyBigram && e.Strategy != index.StrategyScan {
		return fmt.Errorf("engine.strategy must be %q or %q, got %q", index.StrategyBigram, index.StrategyScan, e.Strategy)
	}
	if e.MinFingerprintLength < 0 || e.ShortLineLength <= 0 || e.CheckEvery <= 0 {
		return fmt.Errorf("engine lengths must be positive")
	}
	if e.MemoryFloorMB < 0 || e.TimeoutSeconds < 0 {
		return fmt.Errorf("engine.memory_floor_mb and engine.timeout_seconds must not be negative")
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("batch.workers must be positive, got %d", c.Batch.Workers)
	}
	return nil
}

// Detector converts the engine section into the comparison config.
func (c Config) Detector() forensics.Config {
	e := c.Engine
	return forensics.Config{
		Rules:           fingerprint.Rules{MinLength: e.MinFingerprintLength, NumericMinLength: e.NumericMinLength},
		ShortLineLength: e.ShortLineLength,
		FuzzyThreshold:  e.FuzzyThreshold,
		TenderThreshold: e.TenderThreshold,
		Index: index.Options{
			Strategy:      e.Strategy,
			MinOverlap:    e.BigramOverlap,
			MaxCandidates: e.MaxCandidates,
			MinJaccard:    e.ScanMinJaccard,
		},
		RenumberMaxLength:         e.RenumberMaxLength,
		ExcludeParameterResponses: e.ExcludeParameterResponses,
		ParameterMaxLength:        e.ParameterMaxLength,
		BrokenTailLength:          e.BrokenTailLength,
		SequenceSimilarity:        e.SequenceSimilarity,
		Guard: guard.Config{
			Timeout:      time.Duration(e.TimeoutSeconds) * time.Second,
			MinAvailable: uint64(e.MemoryFloorMB) << 20,
			Every:        e.CheckEvery,
		},
	}
}

// ExtractOptions converts the extract section. Cache and logger are wired
// by the caller.
func (c Config) ExtractOptions() ingest.Options {
	return ingest.Options{
		Converter:        c.Extract.Converter,
		ConverterTimeout: time.Duration(c.Extract.ConverterTimeoutSeconds) * time.Second,
		DocTools:         append([]string(nil), c.Extract.DocTools...),
	}
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Storage.CacheTTLHours) * time.Hour
}

// Write saves cfg to path, as YAML for .yaml/.yml and TOML otherwise.
func Write(path string, cfg Config) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = toml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file %q: %w", path, err)
	}
	return nil
}
