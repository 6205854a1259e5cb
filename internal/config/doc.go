// Package config provides centralized configuration management for ShareScope.
// It handles loading configuration from multiple sources, validation, and provides
// a type-safe API for accessing configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration files (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern SHARESCOPE_* for namespacing:
//
//	SHARESCOPE_SERVER_PORT=8080
//	SHARESCOPE_PATHS_WORKBOOK_FILE=data/Market_Analysis_Report.xlsx
//	SHARESCOPE_LOGGING_LEVEL=info
//	SHARESCOPE_UPLOAD_MAX_SIZE_BYTES=16777216
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which handles all file system paths relative to the executable location:
//
//	paths, err := config.GetPaths()
//	if err != nil {
//	    return err
//	}
//	workbook := paths.WorkbookFile
//
// All paths are resolved relative to the executable directory, never the
// current working directory, so the application behaves the same regardless
// of where it is launched from.
package config
