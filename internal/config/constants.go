package config

import "warrantysync/pkg/contracts"

// Application constants
const (
	AppName    = "warrantysync"
	AppVersion = contracts.Version

	// ReportSheetName is the worksheet of the downloaded export holding the data
	ReportSheetName = "ReportData"

	// RegistryHeaderRows is the fixed header height of every registry worksheet
	RegistryHeaderRows = 2

	// ExitCodeSkipped is returned when the weekday gate skips the run
	ExitCodeSkipped = 1
	// ExitCodeFailed is returned when every run attempt failed
	ExitCodeFailed = 2
)
