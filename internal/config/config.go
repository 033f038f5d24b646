package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "WARRANTYSYNC"

// DefaultPortalURL is the entry page of the entitlement portal
const DefaultPortalURL = "https://entitlementsearch.juniper.net/"

// Config represents the complete application configuration
type Config struct {
	Portal    PortalConfig    `yaml:"portal" envconfig:"PORTAL"`
	Sheets    SheetsConfig    `yaml:"sheets" envconfig:"SHEETS"`
	Download  DownloadConfig  `yaml:"download" envconfig:"DOWNLOAD"`
	Browser   BrowserConfig   `yaml:"browser" envconfig:"BROWSER"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Run       RunConfig       `yaml:"run" envconfig:"RUN"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// PortalConfig contains the portal address, credentials and element locators
type PortalConfig struct {
	URL      string         `yaml:"url" envconfig:"URL" validate:"required,url"`
	Username string         `yaml:"username" envconfig:"USERNAME" validate:"required"`
	Password string         `yaml:"password" envconfig:"PASSWORD" validate:"required"`
	Locators LocatorsConfig `yaml:"locators" envconfig:"LOCATORS"`
}

// LocatorsConfig holds "id:", "css:" or "xpath:" prefixed element locators
type LocatorsConfig struct {
	Username       string `yaml:"username" envconfig:"USERNAME" validate:"locator"`
	UsernameSubmit string `yaml:"username_submit" envconfig:"USERNAME_SUBMIT" validate:"locator"`
	Password       string `yaml:"password" envconfig:"PASSWORD" validate:"locator"`
	PasswordSubmit string `yaml:"password_submit" envconfig:"PASSWORD_SUBMIT" validate:"locator"`
	SerialInput    string `yaml:"serial_input" envconfig:"SERIAL_INPUT" validate:"locator"`
	SubmitBatch    string `yaml:"submit_batch" envconfig:"SUBMIT_BATCH" validate:"locator"`
	Export         string `yaml:"export" envconfig:"EXPORT" validate:"locator"`
	ConfirmExport  string `yaml:"confirm_export" envconfig:"CONFIRM_EXPORT" validate:"omitempty,locator"`
	Download       string `yaml:"download" envconfig:"DOWNLOAD" validate:"locator"`
	Back           string `yaml:"back" envconfig:"BACK" validate:"locator"`
}

// SheetsConfig contains Google Sheets access configuration
type SheetsConfig struct {
	CredentialsFile   string  `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE" validate:"required"`
	RegistryID        string  `yaml:"registry_id" envconfig:"REGISTRY_ID" validate:"required"`
	DestinationID     string  `yaml:"destination_id" envconfig:"DESTINATION_ID" validate:"required"`
	RequestsPerSecond float64 `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND" validate:"gt=0"`
	Burst             int     `yaml:"burst" envconfig:"BURST" validate:"min=1"`
}

// DownloadConfig locates the single transient export file
type DownloadConfig struct {
	Dir      string `yaml:"dir" envconfig:"DIR" validate:"required"`
	FileName string `yaml:"file_name" envconfig:"FILE_NAME" validate:"required"`
}

// Path returns the fixed location the portal download lands at
func (d DownloadConfig) Path() string {
	return filepath.Join(d.Dir, d.FileName)
}

// BrowserConfig contains Chrome launch options
type BrowserConfig struct {
	Headless     bool          `yaml:"headless" envconfig:"HEADLESS"`
	WaitTimeout  time.Duration `yaml:"wait_timeout" envconfig:"WAIT_TIMEOUT" validate:"gt=0"`
	UserAgent    string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	WindowWidth  int           `yaml:"window_width" envconfig:"WINDOW_WIDTH" validate:"gt=0"`
	WindowHeight int           `yaml:"window_height" envconfig:"WINDOW_HEIGHT" validate:"gt=0"`
}

// ExportConfig bounds the export/download retry loop
type ExportConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS" validate:"min=1"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout" envconfig:"ATTEMPT_TIMEOUT" validate:"gt=0"`
	PollInterval   time.Duration `yaml:"poll_interval" envconfig:"POLL_INTERVAL" validate:"gt=0"`
	ConfirmDelay   time.Duration `yaml:"confirm_delay" envconfig:"CONFIRM_DELAY" validate:"gte=0"`
	RetryDelay     time.Duration `yaml:"retry_delay" envconfig:"RETRY_DELAY" validate:"gte=0"`
}

// RunConfig controls the supervising retry loop and exit status
type RunConfig struct {
	MaxAttempts     int           `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS" validate:"min=1"`
	InitialDelay    time.Duration `yaml:"initial_delay" envconfig:"INITIAL_DELAY" validate:"gte=0"`
	MaxDelay        time.Duration `yaml:"max_delay" envconfig:"MAX_DELAY" validate:"gtefield=InitialDelay"`
	Multiplier      float64       `yaml:"multiplier" envconfig:"MULTIPLIER" validate:"gte=1"`
	SuccessExitCode int           `yaml:"success_exit_code" envconfig:"SUCCESS_EXIT_CODE" validate:"gte=0,lte=125"`
	SkipWeekends    bool          `yaml:"skip_weekends" envconfig:"SKIP_WEEKENDS"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// TelemetryConfig contains metrics and tracing configuration
type TelemetryConfig struct {
	MetricsAddr   string `yaml:"metrics_addr" envconfig:"METRICS_ADDR" validate:"omitempty,hostname_port"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
}

// Load builds the configuration from defaults, an optional YAML file and
// WARRANTYSYNC_* environment variables, in increasing precedence.
// An empty configFile searches the usual locations.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a default tag are left alone when the variable is unset,
	// so file values survive unless explicitly overridden.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML values on cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var locatorPattern = regexp.MustCompile(`^(id|css|xpath):\S`)

// Validate checks struct tags and normalizes logging settings
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("locator", func(fl validator.FieldLevel) bool {
		return locatorPattern.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		return err
	}

	if c.Logging.Level == "warning" {
		c.Logging.Level = "warn"
	}
	return nil
}

// resolvePaths anchors relative file paths at the executable directory
func (c *Config) resolvePaths() error {
	paths, err := GetPaths()
	if err != nil {
		return err
	}
	c.Logging.FilePath = paths.Resolve(c.Logging.FilePath)
	c.Sheets.CredentialsFile = paths.Resolve(c.Sheets.CredentialsFile)
	c.Download.Dir = paths.Resolve(c.Download.Dir)
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Portal: PortalConfig{
			URL: DefaultPortalURL,
			Locators: LocatorsConfig{
				Username:       "id:idp-discovery-username",
				UsernameSubmit: "id:idp-discovery-submit",
				Password:       "id:okta-signin-password",
				PasswordSubmit: "id:okta-signin-submit",
				SerialInput:    "id:textAreaSerialNos",
				SubmitBatch:    `xpath://*[@id="root"]/div/main/div/div[3]/button`,
				Export:         `xpath://*[@id="root"]/div/div/main/div[2]/div/button[2]`,
				Download:       "css:#modal-export-excel > div.modal-footer > div.modal-actions-right > button.success",
				Back:           `xpath://*[@id="root"]/div/div/main/div[1]/a`,
			},
		},
		Sheets: SheetsConfig{
			CredentialsFile:   "service-account.json",
			RequestsPerSecond: 1,
			Burst:             5,
		},
		Download: DownloadConfig{
			Dir:      "downloads",
			FileName: "ReportData.xlsx",
		},
		Browser: BrowserConfig{
			Headless:     true,
			WaitTimeout:  300 * time.Second,
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/104.0.0.0 Safari/537.36",
			WindowWidth:  1920,
			WindowHeight: 1080,
		},
		Export: ExportConfig{
			MaxAttempts:    5,
			AttemptTimeout: 5 * time.Minute,
			PollInterval:   time.Second,
			ConfirmDelay:   3 * time.Second,
			RetryDelay:     5 * time.Second,
		},
		Run: RunConfig{
			MaxAttempts:     3,
			InitialDelay:    30 * time.Second,
			MaxDelay:        10 * time.Minute,
			Multiplier:      2,
			SuccessExitCode: 1,
			SkipWeekends:    true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "both",
			FilePath: "logs/warrantysync.log",
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
		},
	}
}
