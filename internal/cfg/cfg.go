package cfg

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"espre/internal/common"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	WindowsPath     string
	ModelPath       string
	SchemaPath      string
	ScriptPath      string
	DataPath        string
	MetricsFile     string
	TmpDir          string
	KeepTemp        bool
	BedtoolsPath    string
	RscriptPath     string
	ToolTimeout     time.Duration
	DownloadTimeout time.Duration
	MinLength       int
	MaxLength       int
	ProbThreshold   float64
	FlagThreshold   float64
	PositiveLabel   string
	NegativeLabel   string
	RatioPrefix     string
	GCPrefix        string
	LogLevel        string
}

type ConfigFile struct {
	Paths struct {
		Windows     string `yaml:"windows"`
		Model       string `yaml:"model"`
		Schema      string `yaml:"schema"`
		Script      string `yaml:"script"`
		Data        string `yaml:"data"`
		MetricsFile string `yaml:"metricsFile"`
		TmpDir      string `yaml:"tmpDir"`
	} `yaml:"paths"`

	Tools struct {
		Bedtools        string `yaml:"bedtools"`
		Rscript         string `yaml:"rscript"`
		Timeout         string `yaml:"timeout"`
		DownloadTimeout string `yaml:"downloadTimeout"`
		MinLength       int    `yaml:"minLength"`
		MaxLength       int    `yaml:"maxLength"`
	} `yaml:"tools"`

	Classifier struct {
		ProbThreshold *float64 `yaml:"probThreshold"`
		FlagThreshold *float64 `yaml:"flagThreshold"`
		PositiveLabel string   `yaml:"positiveLabel"`
		NegativeLabel string   `yaml:"negativeLabel"`
	} `yaml:"classifier"`

	Features struct {
		RatioPrefix string `yaml:"ratioPrefix"`
		GCPrefix    string `yaml:"gcPrefix"`
	} `yaml:"features"`

	System struct {
		KeepTemp bool   `yaml:"keepTemp"`
		LogLevel string `yaml:"logLevel"`
	} `yaml:"system"`
}

const (
	defaultToolTimeout     = 30 * time.Minute
	defaultDownloadTimeout = time.Minute
)

func Load() (Settings, error) {
	if err := loadDotEnv(); err != nil {
		return Settings{}, err
	}

	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

// LoadFile loads settings from the YAML file at path. Environment variables
// still override file values, as with Load.
func LoadFile(path string) (Settings, error) {
	if err := loadDotEnv(); err != nil {
		return Settings{}, err
	}
	return loadFromYAML(path)
}

// loadDotEnv exports variables from ENV_FILE, or from ./.env when it exists.
// Variables already present in the environment win.
func loadDotEnv() error {
	path := os.Getenv(common.EnvEnvFile)
	if path == "" {
		path = common.DefaultEnvFile
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil
		}
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	toolTimeout, err := time.ParseDuration(config.Tools.Timeout)
	if err != nil {
		toolTimeout = defaultToolTimeout
	}

	downloadTimeout, err := time.ParseDuration(config.Tools.DownloadTimeout)
	if err != nil {
		downloadTimeout = defaultDownloadTimeout
	}

	// Environment variables override the file
	settings := Settings{
		WindowsPath:     getEnvOrDefault(common.EnvWindowsPath, orDefault(config.Paths.Windows, common.DefaultWindowsPath)),
		ModelPath:       getEnvOrDefault(common.EnvModelPath, orDefault(config.Paths.Model, common.DefaultModelPath)),
		SchemaPath:      getEnvOrDefault(common.EnvSchemaPath, orDefault(config.Paths.Schema, common.DefaultSchemaPath)),
		ScriptPath:      getEnvOrDefault(common.EnvScriptPath, orDefault(config.Paths.Script, common.DefaultScriptPath)),
		DataPath:        getEnvOrDefault(common.EnvDataPath, config.Paths.Data),
		MetricsFile:     getEnvOrDefault(common.EnvMetricsFile, config.Paths.MetricsFile),
		TmpDir:          getEnvOrDefault(common.EnvTmpDir, config.Paths.TmpDir),
		KeepTemp:        getBoolFromEnvOrConfig(common.EnvKeepTemp, config.System.KeepTemp),
		BedtoolsPath:    getEnvOrDefault(common.EnvBedtoolsPath, orDefault(config.Tools.Bedtools, common.DefaultBedtools)),
		RscriptPath:     getEnvOrDefault(common.EnvRscriptPath, orDefault(config.Tools.Rscript, common.DefaultRscript)),
		ToolTimeout:     getDurationOrDefault(common.EnvToolTimeout, toolTimeout),
		DownloadTimeout: getDurationOrDefault(common.EnvDownloadTimeout, downloadTimeout),
		MinLength:       getIntFromEnvOrConfig(common.EnvMinLength, config.Tools.MinLength, common.DefaultMinLength),
		MaxLength:       getIntFromEnvOrConfig(common.EnvMaxLength, config.Tools.MaxLength, common.DefaultMaxLength),
		ProbThreshold:   getFloatFromEnvOrConfig(common.EnvProbThreshold, config.Classifier.ProbThreshold, common.DefaultProbThreshold),
		FlagThreshold:   getFloatFromEnvOrConfig(common.EnvFlagThreshold, config.Classifier.FlagThreshold, common.DefaultFlagThreshold),
		PositiveLabel:   getEnvOrDefault(common.EnvPositiveLabel, orDefault(config.Classifier.PositiveLabel, common.DefaultPositiveLabel)),
		NegativeLabel:   getEnvOrDefault(common.EnvNegativeLabel, orDefault(config.Classifier.NegativeLabel, common.DefaultNegativeLabel)),
		RatioPrefix:     getEnvOrDefault(common.EnvRatioPrefix, orDefault(config.Features.RatioPrefix, common.DefaultRatioPrefix)),
		GCPrefix:        getEnvOrDefault(common.EnvGCPrefix, orDefault(config.Features.GCPrefix, common.DefaultGCPrefix)),
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, orDefault(config.System.LogLevel, common.DefaultLogLevel)),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		WindowsPath:     getEnvOrDefault(common.EnvWindowsPath, common.DefaultWindowsPath),
		ModelPath:       getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		SchemaPath:      getEnvOrDefault(common.EnvSchemaPath, common.DefaultSchemaPath),
		ScriptPath:      getEnvOrDefault(common.EnvScriptPath, common.DefaultScriptPath),
		DataPath:        os.Getenv(common.EnvDataPath),    // optional
		MetricsFile:     os.Getenv(common.EnvMetricsFile), // optional
		TmpDir:          os.Getenv(common.EnvTmpDir),
		KeepTemp:        getBoolOrDefault(common.EnvKeepTemp, false),
		BedtoolsPath:    getEnvOrDefault(common.EnvBedtoolsPath, common.DefaultBedtools),
		RscriptPath:     getEnvOrDefault(common.EnvRscriptPath, common.DefaultRscript),
		ToolTimeout:     getDurationOrDefault(common.EnvToolTimeout, defaultToolTimeout),
		DownloadTimeout: getDurationOrDefault(common.EnvDownloadTimeout, defaultDownloadTimeout),
		MinLength:       getIntOrDefault(common.EnvMinLength, common.DefaultMinLength),
		MaxLength:       getIntOrDefault(common.EnvMaxLength, common.DefaultMaxLength),
		ProbThreshold:   getFloatOrDefault(common.EnvProbThreshold, common.DefaultProbThreshold),
		FlagThreshold:   getFloatOrDefault(common.EnvFlagThreshold, common.DefaultFlagThreshold),
		PositiveLabel:   getEnvOrDefault(common.EnvPositiveLabel, common.DefaultPositiveLabel),
		NegativeLabel:   getEnvOrDefault(common.EnvNegativeLabel, common.DefaultNegativeLabel),
		RatioPrefix:     getEnvOrDefault(common.EnvRatioPrefix, common.DefaultRatioPrefix),
		GCPrefix:        getEnvOrDefault(common.EnvGCPrefix, common.DefaultGCPrefix),
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// Validate re-checks settings after command-line overrides were applied.
func (s *Settings) Validate() error {
	return validateSettings(s)
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if configValue != 0 {
		defaultValue = configValue
	}
	return getIntOrDefault(key, defaultValue)
}

// getFloatFromEnvOrConfig treats a nil config value as unset, so an explicit
// 0 in the file is kept.
func getFloatFromEnvOrConfig(key string, configValue *float64, defaultValue float64) float64 {
	if configValue != nil {
		defaultValue = *configValue
	}
	return getFloatOrDefault(key, defaultValue)
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	return getBoolOrDefault(key, configValue)
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	// Validate required paths
	required := []struct{ name, value string }{
		{"windows BED path", settings.WindowsPath},
		{"model path", settings.ModelPath},
		{"schema path", settings.SchemaPath},
		{"feature script path", settings.ScriptPath},
		{"bedtools path", settings.BedtoolsPath},
		{"Rscript path", settings.RscriptPath},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s cannot be empty", r.name)
		}
	}

	// Validate time durations
	if settings.ToolTimeout < time.Second || settings.ToolTimeout > 24*time.Hour {
		return fmt.Errorf("tool timeout must be between 1s and 24h, got %v", settings.ToolTimeout)
	}
	if settings.DownloadTimeout < time.Second || settings.DownloadTimeout > time.Hour {
		return fmt.Errorf("download timeout must be between 1s and 1h, got %v", settings.DownloadTimeout)
	}

	// Validate fragment length filter
	if settings.MinLength <= 0 {
		return fmt.Errorf("min length must be positive, got %d", settings.MinLength)
	}
	if settings.MaxLength <= settings.MinLength {
		return fmt.Errorf("max length must exceed min length %d, got %d", settings.MinLength, settings.MaxLength)
	}

	// Validate classifier
	if settings.ProbThreshold <= 0 || settings.ProbThreshold >= 1 {
		return fmt.Errorf("probability threshold must be between 0 and 1, got %f", settings.ProbThreshold)
	}
	if settings.FlagThreshold < 0 || settings.FlagThreshold > 1 {
		return fmt.Errorf("flag threshold must be between 0 and 1, got %f", settings.FlagThreshold)
	}
	if settings.PositiveLabel == "" || settings.NegativeLabel == "" {
		return fmt.Errorf("positive and negative labels are required")
	}
	if settings.PositiveLabel == settings.NegativeLabel {
		return fmt.Errorf("positive and negative labels must differ, both are %q", settings.PositiveLabel)
	}

	// Validate feature naming
	if settings.RatioPrefix == "" || settings.GCPrefix == "" {
		return fmt.Errorf("feature column prefixes cannot be empty")
	}
	if settings.RatioPrefix == settings.GCPrefix {
		return fmt.Errorf("ratio and GC prefixes must differ, both are %q", settings.RatioPrefix)
	}

	if _, err := zerolog.ParseLevel(settings.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", settings.LogLevel, err)
	}

	return nil
}
