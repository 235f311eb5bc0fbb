package config

import (
	"os"
	"strconv"

	"equivproof/domain/tensor"
	"equivproof/internal/errors"
)

// Config represents the complete harness configuration
type Config struct {
	Tolerance   ToleranceConfig
	Device      DeviceConfig
	Adversarial AdversarialConfig
	GroundTruth GroundTruthConfig
	Ledger      LedgerConfig
	Audit       AuditConfig
	LogLevel    string
}

// ToleranceConfig holds the default comparison bounds
type ToleranceConfig struct {
	RTol         float64
	ATol         float64
	GradRTol     float64
	GradATol     float64
	PropertyATol float64
}

// DeviceConfig describes what hardware the surrounding test run may use
type DeviceConfig struct {
	AcceleratorAvailable bool
}

// AdversarialConfig holds generator and campaign settings
type AdversarialConfig struct {
	Seed           uint64
	Workers        int
	NearMissMargin float64
	AllowFallback  bool
}

// GroundTruthConfig holds where exported reference arrays live
type GroundTruthConfig struct {
	Dir string
}

// LedgerConfig holds export and archive settings
type LedgerConfig struct {
	ExportPath  string
	DatabaseURL string
}

// AuditConfig holds audit viewer settings
type AuditConfig struct {
	Port string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	seed, err := getEnvUintOrDefault("EQUIV_SEED", 42)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load adversarial configuration")
	}

	config := &Config{
		Tolerance:   *loadToleranceConfig(),
		Device:      DeviceConfig{AcceleratorAvailable: getEnvBoolOrDefault("EQUIV_ACCELERATOR", false)},
		Adversarial: *loadAdversarialConfig(seed),
		GroundTruth: GroundTruthConfig{Dir: getEnvOrDefault("GROUND_TRUTH_DIR", "./ground_truth")},
		Ledger: LedgerConfig{
			ExportPath:  getEnvOrDefault("LEDGER_EXPORT_PATH", "verification_ledger.json"),
			DatabaseURL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Audit:    AuditConfig{Port: getEnvOrDefault("AUDIT_PORT", "8080")},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Tolerance:   *defaultTolerance(),
		Adversarial: AdversarialConfig{Seed: 42, Workers: 4, NearMissMargin: 0.1, AllowFallback: true},
		GroundTruth: GroundTruthConfig{Dir: "./ground_truth"},
		Ledger:      LedgerConfig{ExportPath: "verification_ledger.json"},
		Audit:       AuditConfig{Port: "8080"},
		LogLevel:    "INFO",
	}
}

// SkipDevice reports whether cases pinned to device d should be skipped
func (c *Config) SkipDevice(d tensor.Device) bool {
	return d == tensor.DeviceAccelerator && !c.Device.AcceleratorAvailable
}

func defaultTolerance() *ToleranceConfig {
	return &ToleranceConfig{
		RTol:         1e-10,
		ATol:         1e-12,
		GradRTol:     1e-8,
		GradATol:     1e-10,
		PropertyATol: 1e-10,
	}
}

func loadToleranceConfig() *ToleranceConfig {
	d := defaultTolerance()
	return &ToleranceConfig{
		RTol:         getEnvFloatOrDefault("EQUIV_RTOL", d.RTol),
		ATol:         getEnvFloatOrDefault("EQUIV_ATOL", d.ATol),
		GradRTol:     getEnvFloatOrDefault("EQUIV_GRAD_RTOL", d.GradRTol),
		GradATol:     getEnvFloatOrDefault("EQUIV_GRAD_ATOL", d.GradATol),
		PropertyATol: getEnvFloatOrDefault("EQUIV_PROPERTY_ATOL", d.PropertyATol),
	}
}

func loadAdversarialConfig(seed uint64) *AdversarialConfig {
	return &AdversarialConfig{
		Seed:           seed,
		Workers:        getEnvIntOrDefault("EQUIV_WORKERS", 4),
		NearMissMargin: getEnvFloatOrDefault("EQUIV_NEAR_MISS_MARGIN", 0.1),
		AllowFallback:  getEnvBoolOrDefault("EQUIV_ALLOW_FALLBACK", true),
	}
}

func validateConfig(config *Config) error {
	t := config.Tolerance
	for name, v := range map[string]float64{
		"EQUIV_RTOL":          t.RTol,
		"EQUIV_ATOL":          t.ATol,
		"EQUIV_GRAD_RTOL":     t.GradRTol,
		"EQUIV_GRAD_ATOL":     t.GradATol,
		"EQUIV_PROPERTY_ATOL": t.PropertyATol,
	} {
		if v < 0 {
			return errors.ConfigInvalid(name + " must be non-negative")
		}
	}
	if config.Adversarial.Workers < 1 {
		return errors.ConfigInvalid("EQUIV_WORKERS must be at least 1")
	}
	if config.Adversarial.NearMissMargin < 0 {
		return errors.ConfigInvalid("EQUIV_NEAR_MISS_MARGIN must be non-negative")
	}
	if config.Ledger.ExportPath == "" {
		return errors.ConfigInvalid("LEDGER_EXPORT_PATH is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvUintOrDefault(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(key + " must be an unsigned integer")
	}
	return parsed, nil
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
