// Package config loads and validates the warrantysync configuration.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later ones
// overriding earlier ones:
//
//  1. Default values (Default)
//  2. A YAML file (config.yaml or configs/config.yaml, or an explicit path)
//  3. Environment variables prefixed with WARRANTYSYNC_
//
// # Environment Variables
//
// Nested sections map to underscored names:
//
//	WARRANTYSYNC_PORTAL_USERNAME=ops@example.com
//	WARRANTYSYNC_PORTAL_PASSWORD=...
//	WARRANTYSYNC_SHEETS_REGISTRY_ID=1AbC...
//	WARRANTYSYNC_SHEETS_DESTINATION_ID=1XyZ...
//	WARRANTYSYNC_DOWNLOAD_DIR=/var/lib/warrantysync/downloads
//	WARRANTYSYNC_RUN_MAX_ATTEMPTS=3
//
// # Locators
//
// Portal element locators are written as "id:<element id>",
// "css:<selector>" or "xpath:<expression>".
//
// Relative file paths are resolved against the executable directory.
package config
