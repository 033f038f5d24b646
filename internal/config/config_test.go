package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WARRANTYSYNC_PORTAL_USERNAME", "ops@example.com")
	t.Setenv("WARRANTYSYNC_PORTAL_PASSWORD", "secret")
	t.Setenv("WARRANTYSYNC_SHEETS_REGISTRY_ID", "registry-sheet")
	t.Setenv("WARRANTYSYNC_SHEETS_DESTINATION_ID", "destination-sheet")
}

func validConfig() *Config {
	cfg := Default()
	cfg.Portal.Username = "ops@example.com"
	cfg.Portal.Password = "secret"
	cfg.Sheets.RegistryID = "registry-sheet"
	cfg.Sheets.DestinationID = "destination-sheet"
	return cfg
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(t *testing.T)
		fileContent string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name:     "defaults with required env",
			setupEnv: setRequiredEnv,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultPortalURL, cfg.Portal.URL)
				assert.Equal(t, "ops@example.com", cfg.Portal.Username)
				assert.Equal(t, "id:textAreaSerialNos", cfg.Portal.Locators.SerialInput)
				assert.Empty(t, cfg.Portal.Locators.ConfirmExport)
				assert.Equal(t, 300*time.Second, cfg.Browser.WaitTimeout)
				assert.Equal(t, 5, cfg.Export.MaxAttempts)
				assert.Equal(t, 3, cfg.Run.MaxAttempts)
				assert.Equal(t, 1, cfg.Run.SuccessExitCode)
				assert.True(t, cfg.Run.SkipWeekends)
				assert.Equal(t, "ReportData.xlsx", cfg.Download.FileName)
				assert.True(t, filepath.IsAbs(cfg.Download.Dir), "download dir resolved against executable")
				assert.True(t, filepath.IsAbs(cfg.Logging.FilePath))
			},
		},
		{
			name: "env overrides numeric and duration values",
			setupEnv: func(t *testing.T) {
				setRequiredEnv(t)
				t.Setenv("WARRANTYSYNC_RUN_MAX_ATTEMPTS", "7")
				t.Setenv("WARRANTYSYNC_EXPORT_ATTEMPT_TIMEOUT", "90s")
				t.Setenv("WARRANTYSYNC_BROWSER_HEADLESS", "false")
				t.Setenv("WARRANTYSYNC_RUN_SUCCESS_EXIT_CODE", "0")
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7, cfg.Run.MaxAttempts)
				assert.Equal(t, 90*time.Second, cfg.Export.AttemptTimeout)
				assert.False(t, cfg.Browser.Headless)
				assert.Equal(t, 0, cfg.Run.SuccessExitCode)
			},
		},
		{
			name: "yaml file with env taking precedence",
			setupEnv: func(t *testing.T) {
				setRequiredEnv(t)
				t.Setenv("WARRANTYSYNC_SHEETS_DESTINATION_ID", "from-env")
			},
			fileContent: `
sheets:
  destination_id: from-file
  requests_per_second: 2.5
export:
  max_attempts: 9
  poll_interval: 250ms
portal:
  locators:
    confirm_export: "css:button.confirm"
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "from-env", cfg.Sheets.DestinationID)
				assert.Equal(t, 2.5, cfg.Sheets.RequestsPerSecond)
				assert.Equal(t, 9, cfg.Export.MaxAttempts)
				assert.Equal(t, 250*time.Millisecond, cfg.Export.PollInterval)
				assert.Equal(t, "css:button.confirm", cfg.Portal.Locators.ConfirmExport)
				// untouched defaults survive the overlay
				assert.Equal(t, "id:idp-discovery-username", cfg.Portal.Locators.Username)
			},
		},
		{
			name: "missing credentials",
			setupEnv: func(t *testing.T) {
				t.Setenv("WARRANTYSYNC_SHEETS_REGISTRY_ID", "registry-sheet")
				t.Setenv("WARRANTYSYNC_SHEETS_DESTINATION_ID", "destination-sheet")
			},
			wantErr: true,
		},
		{
			name: "invalid locator",
			setupEnv: func(t *testing.T) {
				setRequiredEnv(t)
				t.Setenv("WARRANTYSYNC_PORTAL_LOCATORS_BACK", "#back")
			},
			wantErr: true,
		},
		{
			name: "malformed duration",
			setupEnv: func(t *testing.T) {
				setRequiredEnv(t)
				t.Setenv("WARRANTYSYNC_RUN_INITIAL_DELAY", "soon")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv(t)

			configFile := ""
			if tt.fileContent != "" {
				configFile = filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(configFile, []byte(tt.fileContent), 0o600))
			}

			cfg, err := Load(configFile)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	setRequiredEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero export attempts", mutate: func(c *Config) { c.Export.MaxAttempts = 0 }, wantErr: true},
		{name: "max delay below initial", mutate: func(c *Config) { c.Run.MaxDelay = time.Second }, wantErr: true},
		{name: "multiplier below one", mutate: func(c *Config) { c.Run.Multiplier = 0.5 }, wantErr: true},
		{name: "bad log output", mutate: func(c *Config) { c.Logging.Output = "syslog" }, wantErr: true},
		{name: "console logging needs no file", mutate: func(c *Config) { c.Logging.Output = "console"; c.Logging.FilePath = "" }},
		{name: "bad trace exporter", mutate: func(c *Config) { c.Telemetry.TraceExporter = "jaeger" }, wantErr: true},
		{name: "metrics address", mutate: func(c *Config) { c.Telemetry.MetricsAddr = "localhost:9464" }},
		{name: "bad metrics address", mutate: func(c *Config) { c.Telemetry.MetricsAddr = "not an address" }, wantErr: true},
		{name: "xpath locator", mutate: func(c *Config) { c.Portal.Locators.Back = "xpath://a[1]" }},
		{name: "empty required locator", mutate: func(c *Config) { c.Portal.Locators.Export = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_NormalizesWarningLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "warning"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestDownloadConfig_Path(t *testing.T) {
	d := DownloadConfig{Dir: filepath.Join("var", "dl"), FileName: "ReportData.xlsx"}
	assert.Equal(t, filepath.Join("var", "dl", "ReportData.xlsx"), d.Path())
}
