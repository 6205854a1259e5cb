package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sharescope/internal/config"
	"sharescope/internal/dataset"
	apierrors "sharescope/internal/errors"
	"sharescope/internal/exporter"
	"sharescope/internal/validation"
	"sharescope/pkg/contracts/domain"
)

// DataService owns the record set for the session. The set is replaced
// wholesale when a workbook is loaded or uploaded; readers always see a
// consistent snapshot.
type DataService struct {
	config    *config.Config
	paths     *config.Paths
	loader    *dataset.Loader
	validator *validation.FileValidator
	logger    *slog.Logger

	mu  sync.RWMutex
	set *domain.RecordSet
}

// FilterOptions describes the loaded dataset and the selectable values per
// filterable column, shaped for the sidebar.
type FilterOptions struct {
	Source   string              `json:"source"`
	Sheet    string              `json:"sheet"`
	Records  int                 `json:"records"`
	Columns  []string            `json:"columns"`
	Options  map[string][]string `json:"options"`
	LoadedAt time.Time           `json:"loaded_at"`
}

// DashboardRequest is the body of the dashboard query. Filters maps a
// column to the selected values; an absent or empty entry leaves that
// column unrestricted. GroupBy picks the column for the grouped charts.
type DashboardRequest struct {
	Filters map[string][]string `json:"filters"`
	GroupBy string              `json:"group_by" validate:"omitempty,filtercolumn"`
}

// DashboardResponse carries everything the dashboard renders for one
// filter selection. Empty flags a selection that matched no records; the
// payload is then all zeroes rather than an error.
type DashboardResponse struct {
	Empty         bool                  `json:"empty"`
	GroupBy       string                `json:"group_by"`
	KPI           dataset.KPI           `json:"kpi"`
	Pie           []dataset.GroupCount  `json:"pie"`
	Groups        []dataset.GroupCount  `json:"groups"`
	Breakdown     dataset.Breakdown     `json:"breakdown"`
	Concentration dataset.Concentration `json:"concentration"`
}

// NewDataService creates the data service. The record set starts empty;
// call LoadDefault to load the bundled workbook.
func NewDataService(cfg *config.Config, paths *config.Paths, logger *slog.Logger) (*DataService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if paths == nil {
		return nil, fmt.Errorf("paths are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("DataService initialized",
		slog.String("data_dir", paths.DataDir),
		slog.String("workbook_file", paths.WorkbookFile))

	return &DataService{
		config:    cfg,
		paths:     paths,
		loader:    dataset.NewLoader(logger),
		validator: validation.NewFileValidator(logger, cfg.Upload.AllowedExtensions...),
		logger:    logger,
	}, nil
}

// LoadDefault loads the bundled workbook from the configured path and
// installs it as the active record set.
func (ds *DataService) LoadDefault(ctx context.Context) error {
	set, err := ds.loader.Load(ctx, ds.paths.WorkbookFile)
	if err != nil {
		return err
	}

	ds.install(set)
	return nil
}

// ReplaceFromUpload persists an uploaded workbook into the uploads
// directory, parses it and swaps it in as the active record set. The
// previous set stays active when anything fails.
func (ds *DataService) ReplaceFromUpload(ctx context.Context, filename string, r io.Reader, size int64) (*domain.RecordSet, error) {
	if err := ds.validator.ValidateWorkbookName(filename); err != nil {
		return nil, apierrors.NewAppValidationError(err.Error())
	}
	if err := ds.validator.ValidateUploadSize(size, ds.config.Upload.MaxSizeBytes); err != nil {
		return nil, apierrors.ErrUploadTooLarge
	}

	if err := os.MkdirAll(ds.paths.UploadsDir, 0755); err != nil {
		return nil, apierrors.NewStorageError("failed to create uploads directory", err)
	}

	stored := fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), filepath.Base(filename))
	target := ds.paths.GetUploadPath(stored)

	f, err := os.Create(target)
	if err != nil {
		return nil, apierrors.NewStorageError("failed to store uploaded workbook", err)
	}
	written, err := io.Copy(f, io.LimitReader(r, ds.config.Upload.MaxSizeBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(target)
		return nil, apierrors.NewStorageError("failed to store uploaded workbook", err)
	}
	if written > ds.config.Upload.MaxSizeBytes {
		os.Remove(target)
		return nil, apierrors.ErrUploadTooLarge
	}

	set, err := ds.loader.Load(ctx, target)
	if err != nil {
		os.Remove(target)
		return nil, err
	}

	ds.install(set)
	ds.logger.Info("Dataset replaced from upload",
		slog.String("source", filename),
		slog.String("stored_as", stored),
		slog.Int("records", set.Len()))

	return set, nil
}

// FilterOptions returns the sidebar metadata for the active record set.
func (ds *DataService) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	set, err := ds.current()
	if err != nil {
		return nil, err
	}

	return &FilterOptions{
		Source:   filepath.Base(set.Source),
		Sheet:    set.SheetName,
		Records:  set.Len(),
		Columns:  set.Columns,
		Options:  dataset.Options(set),
		LoadedAt: set.LoadedAt,
	}, nil
}

// Dashboard computes the KPI counters and chart groupings for one filter
// selection. A selection matching no records yields Empty with a zero
// payload.
func (ds *DataService) Dashboard(ctx context.Context, req DashboardRequest) (*DashboardResponse, error) {
	set, err := ds.current()
	if err != nil {
		return nil, err
	}

	groupBy := req.GroupBy
	if groupBy == "" {
		groupBy = domain.ColInstrumentType
	}

	sel := dataset.Selection(req.Filters).Normalize()
	records := dataset.Apply(set, sel)

	resp := &DashboardResponse{GroupBy: groupBy}
	if len(records) == 0 {
		resp.Empty = true
		resp.Pie = []dataset.GroupCount{}
		resp.Groups = []dataset.GroupCount{}
		resp.Breakdown = dataset.Breakdown{Column: groupBy, Groups: []string{}, Series: []dataset.BreakdownSeries{}}
		return resp, nil
	}

	resp.KPI = dataset.Summarize(records)
	resp.Pie = dataset.GroupCounts(records, domain.ColIndustry)
	resp.Groups = dataset.GroupCounts(records, groupBy)
	resp.Breakdown = dataset.BreakdownByIndustry(records, groupBy)
	resp.Concentration = dataset.Concentrate(resp.Pie)

	ds.logger.Debug("Dashboard computed",
		slog.String("group_by", groupBy),
		slog.Int("matched", len(records)),
		slog.Int("total", set.Len()))

	return resp, nil
}

// Export streams the filtered subset as CSV and returns the number of
// exported records.
func (ds *DataService) Export(ctx context.Context, w io.Writer, sel dataset.Selection) (int, error) {
	set, err := ds.current()
	if err != nil {
		return 0, err
	}

	records := dataset.Apply(set, sel.Normalize())
	if err := exporter.WriteRecordsCSV(w, set.Columns, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Loaded reports whether a record set is active.
func (ds *DataService) Loaded() bool {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.set != nil
}

// RecordCount returns the size of the active record set, zero when none
// is loaded.
func (ds *DataService) RecordCount() int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.set.Len()
}

func (ds *DataService) install(set *domain.RecordSet) {
	ds.mu.Lock()
	ds.set = set
	ds.mu.Unlock()

	ds.logger.Info("Record set installed",
		slog.String("source", set.Source),
		slog.String("sheet", set.SheetName),
		slog.Int("records", set.Len()))
}

func (ds *DataService) current() (*domain.RecordSet, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	if ds.set == nil {
		return nil, apierrors.ErrDatasetNotLoaded
	}
	return ds.set, nil
}
