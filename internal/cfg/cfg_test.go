package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.WindowsPath != "database/hg38_1Mb_windows.bed" {
					t.Errorf("expected default WindowsPath, got %s", settings.WindowsPath)
				}
				if settings.ModelPath != "models/scz_stacking_model.json" {
					t.Errorf("expected default ModelPath, got %s", settings.ModelPath)
				}
				if settings.BedtoolsPath != "bedtools" || settings.RscriptPath != "Rscript" {
					t.Errorf("expected default tool names, got %s and %s", settings.BedtoolsPath, settings.RscriptPath)
				}
				if settings.MinLength != 100 || settings.MaxLength != 1000 {
					t.Errorf("expected length filter 100-1000, got %d-%d", settings.MinLength, settings.MaxLength)
				}
				if settings.ProbThreshold != 0.5 {
					t.Errorf("expected default ProbThreshold 0.5, got %f", settings.ProbThreshold)
				}
				if settings.FlagThreshold != 0.8 {
					t.Errorf("expected default FlagThreshold 0.8, got %f", settings.FlagThreshold)
				}
				if settings.PositiveLabel != "SCZ" || settings.NegativeLabel != "Normal" {
					t.Errorf("expected labels SCZ/Normal, got %s/%s", settings.PositiveLabel, settings.NegativeLabel)
				}
				if settings.RatioPrefix != "ratio_corrected_" || settings.GCPrefix != "GC_" {
					t.Errorf("unexpected prefixes %q %q", settings.RatioPrefix, settings.GCPrefix)
				}
				if settings.ToolTimeout != 30*time.Minute {
					t.Errorf("expected default ToolTimeout 30m, got %v", settings.ToolTimeout)
				}
				if settings.DataPath != "" || settings.MetricsFile != "" {
					t.Error("expected optional outputs to be disabled by default")
				}
				if settings.KeepTemp {
					t.Error("expected KeepTemp to default to false")
				}
			},
		},
		{
			name: "custom settings",
			envVars: map[string]string{
				"MODEL_PATH":     "https://models.example.org/scz.json",
				"DATA_PATH":      "/var/lib/espre/results.db",
				"PROB_THRESHOLD": "0.42",
				"FLAG_THRESHOLD": "0.9",
				"TOOL_TIMEOUT":   "2h",
				"KEEP_TEMP":      "true",
				"RATIO_PREFIX":   "ratio.corrected_",
				"MIN_LENGTH":     "50",
				"MAX_LENGTH":     "5000",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.ModelPath != "https://models.example.org/scz.json" {
					t.Errorf("expected ModelPath URL, got %s", settings.ModelPath)
				}
				if settings.DataPath != "/var/lib/espre/results.db" {
					t.Errorf("expected DataPath, got %s", settings.DataPath)
				}
				if settings.ProbThreshold != 0.42 {
					t.Errorf("expected ProbThreshold 0.42, got %f", settings.ProbThreshold)
				}
				if settings.FlagThreshold != 0.9 {
					t.Errorf("expected FlagThreshold 0.9, got %f", settings.FlagThreshold)
				}
				if settings.ToolTimeout != 2*time.Hour {
					t.Errorf("expected ToolTimeout 2h, got %v", settings.ToolTimeout)
				}
				if !settings.KeepTemp {
					t.Error("expected KeepTemp to be true")
				}
				if settings.RatioPrefix != "ratio.corrected_" {
					t.Errorf("expected RatioPrefix override, got %s", settings.RatioPrefix)
				}
				if settings.MinLength != 50 || settings.MaxLength != 5000 {
					t.Errorf("expected length filter 50-5000, got %d-%d", settings.MinLength, settings.MaxLength)
				}
			},
		},
		{
			name:    "threshold out of range",
			envVars: map[string]string{"PROB_THRESHOLD": "1.5"},
			wantErr: true,
		},
		{
			name:    "inverted length filter",
			envVars: map[string]string{"MIN_LENGTH": "1000", "MAX_LENGTH": "100"},
			wantErr: true,
		},
		{
			name:    "same label twice",
			envVars: map[string]string{"POSITIVE_LABEL": "Normal"},
			wantErr: true,
		},
		{
			name:    "bad log level",
			envVars: map[string]string{"LOG_LEVEL": "loud"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear all environment variables first
			clearTestEnv(t)

			// Set test environment variables
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			settings, err := loadFromEnv()

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	tests := []struct {
		name         string
		yamlContent  string
		envOverrides map[string]string
		wantErr      bool
		validate     func(t *testing.T, settings Settings)
	}{
		{
			name: "valid YAML config",
			yamlContent: `
paths:
  windows: "/opt/espre/database/hg38_1Mb_windows.bed"
  model: "/opt/espre/models/scz.json"
  schema: "/opt/espre/models/columns.txt"
  script: "/opt/espre/scripts/feature_extract.R"
  data: "/var/lib/espre/results.db"
  metricsFile: "/var/lib/node_exporter/espre.prom"

tools:
  bedtools: "/usr/local/bin/bedtools"
  timeout: "45m"
  minLength: 150

classifier:
  probThreshold: 0.6
  flagThreshold: 0.85
  positiveLabel: "High"
  negativeLabel: "Low"

system:
  keepTemp: true
  logLevel: "debug"
`,
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.WindowsPath != "/opt/espre/database/hg38_1Mb_windows.bed" {
					t.Errorf("unexpected WindowsPath %s", settings.WindowsPath)
				}
				if settings.SchemaPath != "/opt/espre/models/columns.txt" {
					t.Errorf("unexpected SchemaPath %s", settings.SchemaPath)
				}
				if settings.MetricsFile != "/var/lib/node_exporter/espre.prom" {
					t.Errorf("unexpected MetricsFile %s", settings.MetricsFile)
				}
				if settings.BedtoolsPath != "/usr/local/bin/bedtools" {
					t.Errorf("unexpected BedtoolsPath %s", settings.BedtoolsPath)
				}
				if settings.RscriptPath != "Rscript" {
					t.Errorf("expected default RscriptPath, got %s", settings.RscriptPath)
				}
				if settings.ToolTimeout != 45*time.Minute {
					t.Errorf("expected ToolTimeout 45m, got %v", settings.ToolTimeout)
				}
				if settings.MinLength != 150 || settings.MaxLength != 1000 {
					t.Errorf("expected length filter 150-1000, got %d-%d", settings.MinLength, settings.MaxLength)
				}
				if settings.ProbThreshold != 0.6 || settings.FlagThreshold != 0.85 {
					t.Errorf("unexpected thresholds %f %f", settings.ProbThreshold, settings.FlagThreshold)
				}
				if settings.PositiveLabel != "High" || settings.NegativeLabel != "Low" {
					t.Errorf("unexpected labels %s/%s", settings.PositiveLabel, settings.NegativeLabel)
				}
				if !settings.KeepTemp {
					t.Error("expected KeepTemp to be true")
				}
				if settings.LogLevel != "debug" {
					t.Errorf("expected LogLevel debug, got %s", settings.LogLevel)
				}
			},
		},
		{
			name: "YAML with env overrides",
			yamlContent: `
paths:
  model: "/opt/espre/models/scz.json"
classifier:
  probThreshold: 0.6
`,
			envOverrides: map[string]string{
				"MODEL_PATH":     "/tmp/other.json",
				"PROB_THRESHOLD": "0.55",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.ModelPath != "/tmp/other.json" {
					t.Errorf("expected env override ModelPath, got %s", settings.ModelPath)
				}
				if settings.ProbThreshold != 0.55 {
					t.Errorf("expected env override ProbThreshold 0.55, got %f", settings.ProbThreshold)
				}
				if settings.SchemaPath != "models/feature_columns.json" {
					t.Errorf("expected default SchemaPath, got %s", settings.SchemaPath)
				}
			},
		},
		{
			name: "YAML with invalid threshold",
			yamlContent: `
classifier:
  flagThreshold: 3
`,
			wantErr: true,
		},
		{
			name:        "invalid YAML",
			yamlContent: `invalid: yaml: content: [`,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			clearTestEnv(t)

			// Set environment overrides
			for key, value := range tt.envOverrides {
				t.Setenv(key, value)
			}

			// Create temporary YAML file
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")
			err := os.WriteFile(configPath, []byte(tt.yamlContent), 0o644)
			if err != nil {
				t.Fatalf("failed to write test config file: %v", err)
			}

			settings, err := loadFromYAML(configPath)

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("load from env when no config file", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("SCHEMA_PATH", "/srv/columns.txt")

		settings, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if settings.SchemaPath != "/srv/columns.txt" {
			t.Errorf("expected SchemaPath from env, got %s", settings.SchemaPath)
		}
	})

	t.Run("load from YAML when config file specified", func(t *testing.T) {
		clearTestEnv(t)
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(configPath, []byte("paths:\n  script: /srv/extract.R\n"), 0o644); err != nil {
			t.Fatalf("failed to write test config file: %v", err)
		}
		t.Setenv("CONFIG_FILE", configPath)

		settings, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if settings.ScriptPath != "/srv/extract.R" {
			t.Errorf("expected ScriptPath from YAML, got %s", settings.ScriptPath)
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

		if _, err := Load(); err == nil {
			t.Error("expected error but got none")
		}
	})
}

func TestLoadFile(t *testing.T) {
	clearTestEnv(t)
	configPath := filepath.Join(t.TempDir(), "espre.yaml")
	content := "classifier:\n  probThreshold: 0.6\n  flagThreshold: 0.9\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config file: %v", err)
	}
	t.Setenv("FLAG_THRESHOLD", "0.95")

	settings, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.ProbThreshold != 0.6 {
		t.Errorf("expected ProbThreshold from file, got %f", settings.ProbThreshold)
	}
	if settings.FlagThreshold != 0.95 {
		t.Errorf("expected env to override FlagThreshold, got %f", settings.FlagThreshold)
	}
}

func TestLoadFile_ExplicitZeroFlagThreshold(t *testing.T) {
	clearTestEnv(t)
	configPath := filepath.Join(t.TempDir(), "espre.yaml")
	if err := os.WriteFile(configPath, []byte("classifier:\n  flagThreshold: 0\n"), 0o644); err != nil {
		t.Fatalf("failed to write test config file: %v", err)
	}

	settings, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.FlagThreshold != 0 {
		t.Errorf("expected explicit flagThreshold 0 to be kept, got %f", settings.FlagThreshold)
	}
	if settings.ProbThreshold != 0.5 {
		t.Errorf("expected default ProbThreshold when unset, got %f", settings.ProbThreshold)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearTestEnv(t)
	unsetForTest(t, "NEGATIVE_LABEL")
	unsetForTest(t, "TMP_DIR")

	envPath := filepath.Join(t.TempDir(), "espre.env")
	content := "NEGATIVE_LABEL=Control\nTMP_DIR=/scratch/espre\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("ENV_FILE", envPath)

	settings, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.NegativeLabel != "Control" {
		t.Errorf("expected NegativeLabel from env file, got %s", settings.NegativeLabel)
	}
	if settings.TmpDir != "/scratch/espre" {
		t.Errorf("expected TmpDir from env file, got %s", settings.TmpDir)
	}
}

func TestLoad_MissingDotEnv(t *testing.T) {
	clearTestEnv(t)
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	if _, err := Load(); err == nil {
		t.Error("expected error for explicit missing env file")
	}
}

// unsetForTest removes key for the duration of the test so that an env file
// can provide it.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

// clearTestEnv clears potentially conflicting environment variables
func clearTestEnv(t *testing.T) {
	envVars := []string{
		"CONFIG_FILE", "ENV_FILE", "WINDOWS_PATH", "MODEL_PATH", "SCHEMA_PATH",
		"SCRIPT_PATH", "DATA_PATH", "METRICS_FILE", "TMP_DIR", "KEEP_TEMP",
		"BEDTOOLS_PATH", "RSCRIPT_PATH", "TOOL_TIMEOUT", "DOWNLOAD_TIMEOUT",
		"MIN_LENGTH", "MAX_LENGTH", "PROB_THRESHOLD", "FLAG_THRESHOLD",
		"POSITIVE_LABEL", "NEGATIVE_LABEL", "RATIO_PREFIX", "GC_PREFIX", "LOG_LEVEL",
	}

	for _, env := range envVars {
		if val := os.Getenv(env); val != "" {
			t.Setenv(env, "")
		}
	}
}
