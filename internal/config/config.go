// Package config loads the configuration surface described in spec.md §6:
// PlannerConfig, DriftThresholds, SyncMode, HexadConfig, TransactionConfig,
// and SlowQueryConfig, plus the storage and WAL settings needed to wire
// them together into a running instance.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// OptimizationMode is the planner's global cost/selectivity bias.
type OptimizationMode string

const (
	Conservative OptimizationMode = "conservative"
	Balanced     OptimizationMode = "balanced"
	Aggressive   OptimizationMode = "aggressive"
)

// SyncMode controls WAL fsync behavior.
type SyncMode struct {
	// Kind is one of "fsync", "periodic", "async".
	Kind string `yaml:"kind"`
	// Period is only meaningful when Kind == "periodic".
	Period time.Duration `yaml:"period"`
}

// Config holds the full VeriSimDB configuration surface.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Storage     StorageConfig     `yaml:"storage"`
	WAL         WALConfig         `yaml:"wal"`
	Hexad       HexadConfig       `yaml:"hexad"`
	Transaction TransactionConfig `yaml:"transaction"`
	Planner     PlannerConfig     `yaml:"planner"`
	Drift       DriftThresholds   `yaml:"drift"`
	SlowQuery   SlowQueryConfig   `yaml:"slow_query"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// StorageConfig selects and configures the key/value backend.
type StorageConfig struct {
	// Backend is "memory" or "durable".
	Backend string `yaml:"backend"`
	// DurablePath is the single-file path used by the durable backend.
	DurablePath string `yaml:"durable_path"`
	// MaxKeyBytes / MaxValueBytes publish the backend's size limits (spec.md §4.1).
	MaxKeyBytes   int `yaml:"max_key_bytes"`
	MaxValueBytes int `yaml:"max_value_bytes"`
}

// WALConfig configures the write-ahead log writer.
type WALConfig struct {
	Directory      string   `yaml:"directory"`
	MaxSegmentSize int64    `yaml:"max_segment_size"`
	Sync           SyncMode `yaml:"sync"`
}

// HexadConfig configures the cross-modal entity store.
type HexadConfig struct {
	BaseIRI          string `yaml:"base_iri"`
	VectorDimension  int    `yaml:"vector_dimension"`
	RequireComplete  bool   `yaml:"require_complete"`
}

// TransactionConfig bounds the in-memory transaction manager.
type TransactionConfig struct {
	MaxConcurrent  int `yaml:"max_concurrent"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// PlannerConfig is the planner's global tuning surface (spec.md §3/§4.5).
type PlannerConfig struct {
	Mode               OptimizationMode            `yaml:"mode"`
	ModalityOverrides  map[string]OptimizationMode `yaml:"modality_overrides"`
	StatisticsWeight   float64                     `yaml:"statistics_weight"`
	EnableAdaptive     bool                        `yaml:"enable_adaptive"`
	ParallelThreshold  int                         `yaml:"parallel_threshold"`
	MinSamples         int                         `yaml:"min_samples"`
	AggressiveRatio    float64                     `yaml:"aggressive_threshold"`
	ConservativeRatio  float64                     `yaml:"conservative_threshold"`
}

// DriftThresholds holds the per-type fixed or adaptive drift thresholds.
type DriftThresholds struct {
	SemanticVector float64                  `yaml:"semantic_vector"`
	GraphDocument  float64                  `yaml:"graph_document"`
	Temporal       float64                  `yaml:"temporal"`
	Tensor         float64                  `yaml:"tensor"`
	Schema         float64                  `yaml:"schema"`
	Quality        float64                  `yaml:"quality"`
	Adaptive       map[string]AdaptivePolicy `yaml:"adaptive"`
}

// AdaptivePolicy substitutes base + sensitivity*movingAverage for a fixed threshold.
type AdaptivePolicy struct {
	Base        float64 `yaml:"base"`
	Sensitivity float64 `yaml:"sensitivity"`
}

// SlowQueryConfig controls the planner's slow-query ring buffer.
type SlowQueryConfig struct {
	ThresholdMS           int64 `yaml:"threshold_ms"`
	MaxEntries            int   `yaml:"max_entries"`
	Enabled               bool  `yaml:"enabled"`
	MultiModalityThreshold int  `yaml:"multi_modality_threshold"`
}

// LoggingConfig selects the obslog construction mode.
type LoggingConfig struct {
	// Mode is "development" or "production".
	Mode string `yaml:"mode"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Name:    "verisimdb",
		Version: "0.1.0",

		Storage: StorageConfig{
			Backend:       "memory",
			DurablePath:   "data/verisimdb.bolt",
			MaxKeyBytes:   1024,
			MaxValueBytes: 32 * 1024 * 1024,
		},

		WAL: WALConfig{
			Directory:      "data/wal",
			MaxSegmentSize: 64 * 1024 * 1024,
			Sync:           SyncMode{Kind: "fsync"},
		},

		Hexad: HexadConfig{
			BaseIRI:         "https://verisimdb.local/entity/",
			VectorDimension: 384,
			RequireComplete: false,
		},

		Transaction: TransactionConfig{
			MaxConcurrent:  256,
			TimeoutSeconds: 300,
		},

		Planner: PlannerConfig{
			Mode:              Balanced,
			ModalityOverrides: map[string]OptimizationMode{},
			StatisticsWeight:  0.3,
			EnableAdaptive:    true,
			ParallelThreshold: 2,
			MinSamples:        10,
			AggressiveRatio:   0.5,
			ConservativeRatio: 2.0,
		},

		Drift: DriftThresholds{
			SemanticVector: 0.3,
			GraphDocument:  0.4,
			Temporal:       0.2,
			Tensor:         0.35,
			Schema:         0.1,
			Quality:        0.25,
			Adaptive:       map[string]AdaptivePolicy{},
		},

		SlowQuery: SlowQueryConfig{
			ThresholdMS:            100,
			MaxEntries:             1000,
			Enabled:                true,
			MultiModalityThreshold: 0,
		},

		Logging: LoggingConfig{Mode: "production"},
	}
}

// Load reads a YAML configuration file, falling back to DefaultConfig when
// the file does not exist. Unrecognized keys are rejected (spec.md §6).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("VERISIMDB_WAL_DIR"); dir != "" {
		c.WAL.Directory = dir
	}
	if path := os.Getenv("VERISIMDB_DATA"); path != "" {
		c.Storage.DurablePath = path
	}
	if backend := os.Getenv("VERISIMDB_BACKEND"); backend != "" {
		c.Storage.Backend = backend
	}
}

// Timeout returns the transaction timeout as a duration.
func (c TransactionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks the configuration for internally-consistent values.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "durable":
	default:
		return fmt.Errorf("invalid storage backend: %q", c.Storage.Backend)
	}
	switch c.Planner.Mode {
	case Conservative, Balanced, Aggressive:
	default:
		return fmt.Errorf("invalid planner mode: %q", c.Planner.Mode)
	}
	if c.Planner.StatisticsWeight < 0 || c.Planner.StatisticsWeight > 1 {
		return fmt.Errorf("planner.statistics_weight must be in [0,1], got %v", c.Planner.StatisticsWeight)
	}
	if c.Hexad.VectorDimension <= 0 {
		return fmt.Errorf("hexad.vector_dimension must be positive")
	}
	if c.Transaction.MaxConcurrent <= 0 {
		return fmt.Errorf("transaction.max_concurrent must be positive")
	}
	switch c.WAL.Sync.Kind {
	case "fsync", "periodic", "async":
	default:
		return fmt.Errorf("invalid wal.sync.kind: %q", c.WAL.Sync.Kind)
	}
	return nil
}
