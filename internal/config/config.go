// =============================================================================
// PO Item Extractor - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration.
//
// CONFIGURATION SOURCES (later sources win):
//   1. Built-in defaults (applyMainConfigDefaults)
//   2. The YAML file passed with --config (default: config.yaml)
//   3. A .env file in the working directory, if present
//   4. PO_* environment variables
//
// A missing YAML file is not an error: the defaults describe the document
// layout the parser was tuned on, so the tool runs out of the box.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

const (
	EnvRootFolder = "PO_ROOT_FOLDER"
	EnvOutputFile = "PO_OUTPUT_FILE"
	EnvLogLevel   = "PO_LOG_LEVEL"
	EnvListenAddr = "PO_LISTEN_ADDR"
)

// =============================================================================
// DUPLICATE POLICIES
// =============================================================================

// Duplicate policies decide how a key repeated inside one document is
// recorded in that document's quantity cell.
const (
	// DuplicateSum adds repeats, keeping the cell consistent with the total.
	DuplicateSum = "sum"

	// DuplicateOverwrite keeps only the last repeat in the cell while the
	// running total still accumulates every occurrence.
	DuplicateOverwrite = "overwrite"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// RootFolder is the directory scanned for *.pdf purchase orders.
	// Default: "./PO"
	RootFolder string `yaml:"root_folder"`

	// OutputFile is the workbook to write. A relative path is resolved
	// against RootFolder.
	// Default: "po_analysis.xlsx"
	OutputFile string `yaml:"output_file"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the encoder: "console" or "json".
	// Default: "console"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// COMPONENT SETTINGS
	// =========================================================================

	Parser      ParserSettings      `yaml:"parser"`
	Aggregation AggregationSettings `yaml:"aggregation"`
	Report      ReportSettings      `yaml:"report"`
	Server      ServerSettings      `yaml:"server"`
}

// ParserSettings holds the tuning thresholds of the item parser. The
// defaults were inferred from observed document formats.
type ParserSettings struct {
	// MaxQuantity is the exclusive ceiling for look-ahead quantities.
	// Larger numbers are treated as identifiers.
	// Default: 10000
	MaxQuantity float64 `yaml:"max_quantity"`

	// LookaheadWindow bounds how many lines after an item-start line are
	// scanned for a code and a quantity.
	// Default: 50
	LookaheadWindow int `yaml:"lookahead_window"`

	// QuantityDecimals is the exact number of decimals of the canonical
	// quantity column (36.000).
	// Default: 3
	QuantityDecimals int `yaml:"quantity_decimals"`

	// CodePrefix is the literal prefix of secondary item codes.
	// Default: "DIY"
	CodePrefix string `yaml:"code_prefix"`

	// MinCodeDigits is the minimum length of a digits-only line that
	// completes a code split across two lines.
	// Default: 5
	MinCodeDigits int `yaml:"min_code_digits"`

	// UnitTokens are the unit-of-measure words that mark a quantity.
	// Default: ["Pieces", "Piece", "Pcs", "P.cs"]
	UnitTokens []string `yaml:"unit_tokens"`
}

// AggregationSettings controls how items are folded across documents.
type AggregationSettings struct {
	// DuplicatePolicy is "sum" or "overwrite".
	// Default: "sum"
	DuplicatePolicy string `yaml:"duplicate_policy"`
}

// ReportSettings controls the generated workbook.
type ReportSettings struct {
	// Currency is shown in the total amount column title.
	// Default: "PKR"
	Currency string `yaml:"currency"`

	// ShortNameLength truncates filenames used as document column titles.
	// Default: 20
	ShortNameLength int `yaml:"short_name_length"`
}

// ServerSettings controls the upload server.
type ServerSettings struct {
	// ListenAddr is the address the upload server binds to.
	// Default: ":8080"
	ListenAddr string `yaml:"listen_addr"`

	// MaxUploadMB caps the size of one multipart upload.
	// Default: 64
	MaxUploadMB int64 `yaml:"max_upload_mb"`

	// AllowedOrigins lists CORS origins allowed to call the server.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// StagingDir is where each upload gets its private directory.
	// Default: "" (the system temp directory)
	StagingDir string `yaml:"staging_dir"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file and applies
// environment overrides.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. It may not exist.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file exists but cannot be read or parsed, or if the
//     resulting configuration is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	// Read the configuration file, tolerating its absence.
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// .env is optional as well.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	applyEnvOverrides(&config)

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a configuration holding only the built-in defaults.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// applyEnvOverrides copies PO_* environment variables over file values.
func applyEnvOverrides(config *MainConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvRootFolder)); v != "" {
		config.RootFolder = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOutputFile)); v != "" {
		config.OutputFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		config.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvListenAddr)); v != "" {
		config.Server.ListenAddr = v
	}
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.RootFolder == "" {
		config.RootFolder = "./PO"
	}
	if config.OutputFile == "" {
		config.OutputFile = "po_analysis.xlsx"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "console"
	}

	// Parser defaults.
	if config.Parser.MaxQuantity == 0 {
		config.Parser.MaxQuantity = 10000
	}
	if config.Parser.LookaheadWindow == 0 {
		config.Parser.LookaheadWindow = 50
	}
	if config.Parser.QuantityDecimals == 0 {
		config.Parser.QuantityDecimals = 3
	}
	if config.Parser.CodePrefix == "" {
		config.Parser.CodePrefix = "DIY"
	}
	if config.Parser.MinCodeDigits == 0 {
		config.Parser.MinCodeDigits = 5
	}
	if len(config.Parser.UnitTokens) == 0 {
		config.Parser.UnitTokens = []string{"Pieces", "Piece", "Pcs", "P.cs"}
	}

	// Aggregation defaults.
	if config.Aggregation.DuplicatePolicy == "" {
		config.Aggregation.DuplicatePolicy = DuplicateSum
	}

	// Report defaults.
	if config.Report.Currency == "" {
		config.Report.Currency = "PKR"
	}
	if config.Report.ShortNameLength == 0 {
		config.Report.ShortNameLength = 20
	}

	// Server defaults.
	if config.Server.ListenAddr == "" {
		config.Server.ListenAddr = ":8080"
	}
	if config.Server.MaxUploadMB == 0 {
		config.Server.MaxUploadMB = 64
	}
	if len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = []string{"*"}
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", config.LogLevel)
	}

	switch config.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format %q is not one of console, json", config.LogFormat)
	}

	if config.Parser.MaxQuantity < 0 {
		return fmt.Errorf("parser.max_quantity must be positive, got %s",
			strconv.FormatFloat(config.Parser.MaxQuantity, 'f', -1, 64))
	}
	if config.Parser.LookaheadWindow < 0 {
		return fmt.Errorf("parser.lookahead_window must be positive, got %d", config.Parser.LookaheadWindow)
	}
	if config.Parser.QuantityDecimals < 0 {
		return fmt.Errorf("parser.quantity_decimals must be positive, got %d", config.Parser.QuantityDecimals)
	}
	if config.Parser.MinCodeDigits < 0 {
		return fmt.Errorf("parser.min_code_digits must be positive, got %d", config.Parser.MinCodeDigits)
	}

	switch config.Aggregation.DuplicatePolicy {
	case DuplicateSum, DuplicateOverwrite:
	default:
		return fmt.Errorf("aggregation.duplicate_policy %q is not one of %s, %s",
			config.Aggregation.DuplicatePolicy, DuplicateSum, DuplicateOverwrite)
	}

	if config.Report.ShortNameLength < 0 {
		return fmt.Errorf("report.short_name_length must be positive, got %d", config.Report.ShortNameLength)
	}
	if config.Server.MaxUploadMB < 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", config.Server.MaxUploadMB)
	}

	return nil
}
