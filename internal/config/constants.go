package config

import "time"

// Application constants for the ShareScope dashboard
const (
	// Application Info
	AppName    = "ShareScope"
	AppVersion = "1.2.0"

	// Workbook Parsing
	PreferredSheetName = "Data Collection"
	HeaderRowIndex     = 0

	// Upload Limits
	DefaultUploadMaxSize = 16 << 20 // 16MB

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// File Paths (relative to executable)
	DefaultDataDir    = "data"
	DefaultLogsDir    = "logs"
	DefaultWebDir     = "web"
	DefaultUploadsDir = "data/uploads"
	DefaultReportsDir = "data/reports"

	// Default workbook shipped alongside the binary
	DefaultWorkbookFile = "data/Market_Analysis_Report.xlsx"
)

// AllowedWorkbookExtensions lists the upload formats the loader accepts
var AllowedWorkbookExtensions = []string{".xlsx", ".xlsm"}
