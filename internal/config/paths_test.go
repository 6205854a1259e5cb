package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	paths, err := GetPaths()
	require.NoError(t, err)

	assert.NotEmpty(t, paths.ExecutableDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(paths.DataDir, "uploads"), paths.UploadsDir)
	assert.Equal(t, filepath.Join(paths.DataDir, "reports"), paths.ReportsDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "logs"), paths.LogsDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "web"), paths.WebDir)
	assert.Equal(t, filepath.Join(paths.DataDir, "Market_Analysis_Report.xlsx"), paths.WorkbookFile)
}

func TestPaths_EnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths := &Paths{
		ExecutableDir: base,
		DataDir:       filepath.Join(base, "data"),
		UploadsDir:    filepath.Join(base, "data", "uploads"),
		ReportsDir:    filepath.Join(base, "data", "reports"),
		LogsDir:       filepath.Join(base, "logs"),
	}

	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.DataDir, paths.UploadsDir, paths.ReportsDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestPaths_Helpers(t *testing.T) {
	paths := &Paths{
		ExecutableDir: "/app",
		WebDir:        "/app/web",
		StaticDir:     "/app/web/static",
		UploadsDir:    "/app/data/uploads",
		ReportsDir:    "/app/data/reports",
		LogsDir:       "/app/logs",
	}

	assert.Equal(t, "/app/data/uploads/market.xlsx", paths.GetUploadPath("market.xlsx"))
	assert.Equal(t, "/app/data/reports/summary.csv", paths.GetReportPath("summary.csv"))
	assert.Equal(t, "/app/logs/app.log", paths.GetLogPath("app.log"))
	assert.Equal(t, "/app/web/index.html", paths.GetWebFilePath("index.html"))
	assert.Equal(t, "/app/web/static/app.js", paths.GetStaticFilePath("app.js"))
	assert.Equal(t, "/app/config.yaml", paths.GetRelativePath("config.yaml"))
}

func TestPaths_GetGroupReportPath(t *testing.T) {
	paths := &Paths{ReportsDir: "/app/data/reports"}
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	got := paths.GetGroupReportPath("industry", date)
	assert.Equal(t, "/app/data/reports/industry_counts_20250115.csv", got)
}

func TestFileExists(t *testing.T) {
	tmpFile, err := os.CreateTemp(t.TempDir(), "exists-*")
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())

	assert.True(t, FileExists(tmpFile.Name()))
	assert.False(t, FileExists(filepath.Join(t.TempDir(), "missing.txt")))
}
