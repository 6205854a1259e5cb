package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"sharescope/internal/config"
	"sharescope/internal/dataset"
	"sharescope/internal/exporter"
	"sharescope/internal/infrastructure"
	"sharescope/internal/validation"
	"sharescope/pkg/contracts/domain"
)

func main() {
	dir := flag.String("dir", "", "directory containing workbooks (defaults to the data directory)")
	out := flag.String("out", "", "output directory for CSV reports (defaults to the reports directory)")
	column := flag.String("column", "", "single column to report on (defaults to all filter columns)")
	workers := flag.Int("workers", 4, "number of workbooks processed concurrently")
	flag.Parse()

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}

	if *dir == "" {
		*dir = paths.DataDir
	}
	if *out == "" {
		*out = paths.ReportsDir
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
		cfg.Logging.FilePath = paths.GetLogPath("report.log")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	columns := domain.FilterColumns
	if *column != "" {
		if !isFilterColumn(*column) {
			logger.Error("Unknown filter column",
				slog.String("column", *column),
				slog.String("valid", strings.Join(domain.FilterColumns, ", ")))
			os.Exit(1)
		}
		columns = []string{*column}
	}

	// Relative output paths resolve against the working directory, not
	// the reports directory.
	if abs, err := filepath.Abs(*out); err == nil {
		*out = abs
	}

	logger.Info("Starting group-count report generation",
		slog.String("input_dir", *dir),
		slog.String("output_dir", *out),
		slog.Int("workers", *workers),
		slog.Int("columns", len(columns)))

	fileValidator := validation.NewFileValidator(logger)

	if err := fileValidator.ValidateOutputDirectory(*out); err != nil {
		logger.Error("Cannot use output directory",
			slog.String("path", *out),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	workbooks, err := findWorkbooks(fileValidator, *dir)
	if err != nil {
		logger.Error("Failed to read directory",
			slog.String("dir", *dir),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("Found %d workbooks\n", len(workbooks))
	if len(workbooks) == 0 {
		logger.Info("No workbooks to process")
		return
	}

	loader := dataset.NewLoader(logger)
	writer := exporter.NewCSVWriter(paths)

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(*workers)

	for _, wb := range workbooks {
		wb := wb
		g.Go(func() error {
			return reportWorkbook(ctx, loader, writer, logger, wb, *out, columns)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Report generation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	reports, err := fileValidator.CountFiles(*out, "*_counts.csv")
	if err != nil {
		reports = len(workbooks) * len(columns)
	}

	logger.Info("Report generation completed",
		slog.Int("workbooks", len(workbooks)),
		slog.Int("reports", reports))
	fmt.Printf("Report generation complete: %d workbooks, %d report files\n", len(workbooks), reports)
}

// findWorkbooks lists the loadable workbook files in dir, sorted by name.
// Lock files and unreadable entries are skipped.
func findWorkbooks(v *validation.FileValidator, dir string) ([]string, error) {
	if err := v.ValidateInputDirectory(dir, "*.xls*"); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var workbooks []string
	for _, e := range entries {
		if e.IsDir() || !validation.HasWorkbookExtension(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := v.ValidateWorkbookFile(path); err != nil {
			continue
		}
		workbooks = append(workbooks, path)
	}
	sort.Strings(workbooks)
	return workbooks, nil
}

// reportWorkbook writes one group-count CSV per requested column.
func reportWorkbook(ctx context.Context, loader *dataset.Loader, writer *exporter.CSVWriter, logger *slog.Logger, path, outDir string, columns []string) error {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	set, err := loader.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}

	fmt.Printf("Processing %s (%d records)\n", filepath.Base(path), set.Len())

	for _, column := range columns {
		counts := dataset.GroupCounts(set.Records, column)
		outPath := filepath.Join(outDir, reportFileName(base, column))

		if err := writer.WriteGroupCounts(outPath, column, counts); err != nil {
			return fmt.Errorf("write %s: %w", filepath.Base(outPath), err)
		}

		logger.Info("Report written",
			slog.String("workbook", filepath.Base(path)),
			slog.String("column", column),
			slog.Int("groups", len(counts)),
			slog.String("output", outPath))
	}

	return nil
}

// reportFileName builds names like "survey_2024_industry_counts.csv".
func reportFileName(base, column string) string {
	slug := strings.ToLower(strings.ReplaceAll(column, " ", "_"))
	return fmt.Sprintf("%s_%s_counts.csv", base, slug)
}

func isFilterColumn(column string) bool {
	for _, c := range domain.FilterColumns {
		if c == column {
			return true
		}
	}
	return false
}
