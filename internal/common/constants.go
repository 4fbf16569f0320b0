package common

// Environment variable keys
const (
	EnvConfigFile      = "CONFIG_FILE"
	EnvEnvFile         = "ENV_FILE"
	EnvWindowsPath     = "WINDOWS_PATH"
	EnvModelPath       = "MODEL_PATH"
	EnvSchemaPath      = "SCHEMA_PATH"
	EnvScriptPath      = "SCRIPT_PATH"
	EnvDataPath        = "DATA_PATH"
	EnvMetricsFile     = "METRICS_FILE"
	EnvTmpDir          = "TMP_DIR"
	EnvKeepTemp        = "KEEP_TEMP"
	EnvBedtoolsPath    = "BEDTOOLS_PATH"
	EnvRscriptPath     = "RSCRIPT_PATH"
	EnvToolTimeout     = "TOOL_TIMEOUT"
	EnvDownloadTimeout = "DOWNLOAD_TIMEOUT"
	EnvMinLength       = "MIN_LENGTH"
	EnvMaxLength       = "MAX_LENGTH"
	EnvProbThreshold   = "PROB_THRESHOLD"
	EnvFlagThreshold   = "FLAG_THRESHOLD"
	EnvPositiveLabel   = "POSITIVE_LABEL"
	EnvNegativeLabel   = "NEGATIVE_LABEL"
	EnvRatioPrefix     = "RATIO_PREFIX"
	EnvGCPrefix        = "GC_PREFIX"
	EnvLogLevel        = "LOG_LEVEL"
)

// Install layout defaults, relative to the working directory
const (
	DefaultEnvFile     = ".env"
	DefaultWindowsPath = "database/hg38_1Mb_windows.bed"
	DefaultModelPath   = "models/scz_stacking_model.json"
	DefaultSchemaPath  = "models/feature_columns.json"
	DefaultScriptPath  = "scripts/feature_extract.R"
	DefaultBedtools    = "bedtools"
	DefaultRscript     = "Rscript"
	DefaultLogLevel    = "info"
)

// Configuration defaults
const (
	DefaultMinLength     = 100
	DefaultMaxLength     = 1000
	DefaultProbThreshold = 0.5
	DefaultFlagThreshold = 0.8
	DefaultWindowWidth   = 1000000
	DefaultPositiveLabel = "SCZ"
	DefaultNegativeLabel = "Normal"
	DefaultRatioPrefix   = "ratio_corrected_"
	DefaultGCPrefix      = "GC_"
)

// Work directory file names
const (
	TmpDirPrefix     = "espre_tmp_"
	GCBedName        = "eccDNA_with_GC.bed"
	MappedBedName    = "mapped_fragments.bed"
	FeatureTableName = "features.csv"
)
