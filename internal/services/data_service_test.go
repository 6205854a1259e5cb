package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sharescope/internal/config"
	apierrors "sharescope/internal/errors"
	"sharescope/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeWorkbook(t *testing.T, path string, rows [][]string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Data Collection"))
	for i, row := range rows {
		for j, value := range row {
			cellName, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Data Collection", cellName, value))
		}
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, f.SaveAs(path))
}

func sampleRows() [][]string {
	return [][]string{
		{"Industry", "Instrument Type", "Manufacturer", "Age of Product"},
		{"Pharma", "HPLC", "Agilent", "0-5 Years"},
		{"Pharma", "GC", "Shimadzu", "5-10 Years"},
		{"Food", "HPLC", "Waters", "0-5 Years"},
		{"Food", "GC", "Agilent", "10+ Years"},
		{"Chemical", "MS", "Thermo", "0-5 Years"},
	}
}

func newTestService(t *testing.T) (*DataService, *config.Paths) {
	t.Helper()

	dir := t.TempDir()
	paths := &config.Paths{
		ExecutableDir: dir,
		DataDir:       filepath.Join(dir, "data"),
		UploadsDir:    filepath.Join(dir, "uploads"),
		ReportsDir:    filepath.Join(dir, "reports"),
		LogsDir:       filepath.Join(dir, "logs"),
		WorkbookFile:  filepath.Join(dir, "data", "Market_Analysis_Report.xlsx"),
	}
	writeWorkbook(t, paths.WorkbookFile, sampleRows())

	cfg := config.Default()
	svc, err := NewDataService(cfg, paths, testLogger())
	require.NoError(t, err)
	return svc, paths
}

func TestNewDataService_RequiresConfigAndPaths(t *testing.T) {
	_, err := NewDataService(nil, &config.Paths{}, testLogger())
	assert.Error(t, err)

	_, err = NewDataService(config.Default(), nil, testLogger())
	assert.Error(t, err)
}

func TestLoadDefault(t *testing.T) {
	svc, _ := newTestService(t)

	require.False(t, svc.Loaded())
	require.NoError(t, svc.LoadDefault(context.Background()))

	assert.True(t, svc.Loaded())
	assert.Equal(t, 5, svc.RecordCount())
}

func TestLoadDefault_MissingWorkbook(t *testing.T) {
	svc, paths := newTestService(t)
	require.NoError(t, os.Remove(paths.WorkbookFile))

	err := svc.LoadDefault(context.Background())
	require.Error(t, err)

	var appErr *apierrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apierrors.ErrTypeNotFound, appErr.Type)
	assert.False(t, svc.Loaded())
}

func TestDashboard_NotLoaded(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Dashboard(context.Background(), DashboardRequest{})
	assert.ErrorIs(t, err, apierrors.ErrDatasetNotLoaded)
}

func TestDashboard_Unfiltered(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.LoadDefault(context.Background()))

	resp, err := svc.Dashboard(context.Background(), DashboardRequest{})
	require.NoError(t, err)

	assert.False(t, resp.Empty)
	assert.Equal(t, domain.ColInstrumentType, resp.GroupBy)
	assert.Equal(t, 5, resp.KPI.Records)
	assert.Equal(t, 3, resp.KPI.Industries)
	assert.Equal(t, 3, resp.KPI.InstrumentTypes)
	assert.Equal(t, 4, resp.KPI.Manufacturers)

	// Pie slice counts always sum to the KPI record count
	total := 0
	for _, slice := range resp.Pie {
		total += slice.Count
	}
	assert.Equal(t, resp.KPI.Records, total)

	assert.Equal(t, 3, resp.Concentration.Groups)
}

func TestDashboard_ConjunctiveFilters(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.LoadDefault(context.Background()))

	resp, err := svc.Dashboard(context.Background(), DashboardRequest{
		Filters: map[string][]string{
			domain.ColIndustry: {"Pharma"},
			domain.ColAge:      {"0-5 Years"},
		},
		GroupBy: domain.ColManufacturer,
	})
	require.NoError(t, err)

	assert.False(t, resp.Empty)
	assert.Equal(t, 1, resp.KPI.Records)
	require.Len(t, resp.Groups, 1)
	assert.Equal(t, "Agilent", resp.Groups[0].Value)
	assert.Equal(t, domain.ColManufacturer, resp.Breakdown.Column)
}

func TestDashboard_EmptyResultIsFlaggedNotError(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.LoadDefault(context.Background()))

	resp, err := svc.Dashboard(context.Background(), DashboardRequest{
		Filters: map[string][]string{
			domain.ColIndustry:     {"Pharma"},
			domain.ColManufacturer: {"Waters"},
		},
	})
	require.NoError(t, err)

	assert.True(t, resp.Empty)
	assert.Equal(t, 0, resp.KPI.Records)
	assert.Empty(t, resp.Pie)
	assert.Empty(t, resp.Groups)
}

func TestFilterOptions(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.LoadDefault(context.Background()))

	opts, err := svc.FilterOptions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Market_Analysis_Report.xlsx", opts.Source)
	assert.Equal(t, "Data Collection", opts.Sheet)
	assert.Equal(t, 5, opts.Records)
	assert.Equal(t, []string{"Chemical", "Food", "Pharma"}, opts.Options[domain.ColIndustry])
	assert.Equal(t, []string{"0-5 Years", "10+ Years", "5-10 Years"}, opts.Options[domain.ColAge])
}

func TestReplaceFromUpload(t *testing.T) {
	svc, paths := newTestService(t)
	require.NoError(t, svc.LoadDefault(context.Background()))

	upload := filepath.Join(t.TempDir(), "replacement.xlsx")
	writeWorkbook(t, upload, [][]string{
		{"Industry", "Instrument Type", "Manufacturer", "Age of Product"},
		{"Mining", "XRF", "Bruker", "0-5 Years"},
	})

	f, err := os.Open(upload)
	require.NoError(t, err)
	defer f.Close()
	info, err := f.Stat()
	require.NoError(t, err)

	set, err := svc.ReplaceFromUpload(context.Background(), "replacement.xlsx", f, info.Size())
	require.NoError(t, err)

	assert.Equal(t, 1, set.Len())
	assert.Equal(t, 1, svc.RecordCount())

	// The upload is persisted under the uploads directory
	entries, err := os.ReadDir(paths.UploadsDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "_replacement.xlsx"))
}

func TestReplaceFromUpload_RejectsBadExtension(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.LoadDefault(context.Background()))

	_, err := svc.ReplaceFromUpload(context.Background(), "report.csv", strings.NewReader("a,b"), 3)
	require.Error(t, err)

	// The active set survives the failed upload
	assert.Equal(t, 5, svc.RecordCount())
}

func TestReplaceFromUpload_HonorsConfiguredExtensions(t *testing.T) {
	dir := t.TempDir()
	paths := &config.Paths{
		ExecutableDir: dir,
		DataDir:       filepath.Join(dir, "data"),
		UploadsDir:    filepath.Join(dir, "uploads"),
		ReportsDir:    filepath.Join(dir, "reports"),
		LogsDir:       filepath.Join(dir, "logs"),
		WorkbookFile:  filepath.Join(dir, "data", "Market_Analysis_Report.xlsx"),
	}
	writeWorkbook(t, paths.WorkbookFile, sampleRows())

	cfg := config.Default()
	cfg.Upload.AllowedExtensions = []string{".xlsx"}
	svc, err := NewDataService(cfg, paths, testLogger())
	require.NoError(t, err)

	_, err = svc.ReplaceFromUpload(context.Background(), "market.xlsm", bytes.NewReader([]byte("x")), 1)
	require.Error(t, err)

	var appErr *apierrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apierrors.ErrTypeValidation, appErr.Type)
}

func TestReplaceFromUpload_RejectsOversizedDeclaration(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ReplaceFromUpload(context.Background(), "big.xlsx", strings.NewReader(""), svc.config.Upload.MaxSizeBytes+1)
	assert.ErrorIs(t, err, apierrors.ErrUploadTooLarge)
}

func TestReplaceFromUpload_KeepsOldSetOnParseFailure(t *testing.T) {
	svc, paths := newTestService(t)
	require.NoError(t, svc.LoadDefault(context.Background()))

	_, err := svc.ReplaceFromUpload(context.Background(), "broken.xlsx", strings.NewReader("not a workbook"), 14)
	require.Error(t, err)

	assert.Equal(t, 5, svc.RecordCount())

	// The rejected file is not left behind
	entries, err := os.ReadDir(paths.UploadsDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExport(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.LoadDefault(context.Background()))

	var buf bytes.Buffer
	n, err := svc.Export(context.Background(), &buf, map[string][]string{
		domain.ColIndustry: {"Food"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\xEF\xBB\xBF"))
	assert.Contains(t, out, "Waters")
	assert.NotContains(t, out, "Thermo")
}

func TestExport_NotLoaded(t *testing.T) {
	svc, _ := newTestService(t)

	var buf bytes.Buffer
	_, err := svc.Export(context.Background(), &buf, nil)
	assert.ErrorIs(t, err, apierrors.ErrDatasetNotLoaded)
}
