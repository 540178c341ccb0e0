package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shanehull/botleads/internal/export"
	"github.com/shanehull/botleads/internal/model"
	"github.com/shanehull/botleads/internal/storage"
)

func main() {
	dbPath := flag.String("db", "out/leads.duckdb", "Path to DuckDB file")
	name := flag.String("name", "", "Filter by exact name (case-insensitive)")
	state := flag.String("state", "", "Filter by state")
	municipality := flag.String("municipality", "", "Filter by municipality")
	category := flag.String("category", "", "Filter by category")
	src := flag.String("source", "", "Filter by source (maps, facebook, instagram)")
	runID := flag.String("run", "", "Filter by run id")
	withPhone := flag.Bool("with-phone", false, "Only leads with a phone")
	outPath := flag.String("out", "out/search_results.csv", "Output path; .xlsx writes a spreadsheet, anything else CSV")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	filter := storage.Filter{
		Name:         *name,
		State:        *state,
		Municipality: *municipality,
		Category:     *category,
		RunID:        *runID,
		WithPhone:    *withPhone,
	}
	if *src != "" {
		parsed, err := model.ParseSource(*src)
		if err != nil {
			logger.Error("Invalid -source", "error", err)
			os.Exit(2)
		}
		filter.Source = parsed.String()
	}

	repo, err := storage.NewDuckDBRepo(*dbPath, logger)
	if err != nil {
		logger.Error("Failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		logger.Error("Failed to create output directory", "error", err)
		os.Exit(1)
	}

	if strings.EqualFold(filepath.Ext(*outPath), ".xlsx") {
		err = exportXLSX(ctx, repo, *outPath, filter)
	} else {
		err = repo.ExportCSV(ctx, *outPath, filter)
	}
	if err != nil {
		logger.Error("Search failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Search complete", "output", *outPath)
}

func exportXLSX(ctx context.Context, repo *storage.DuckDBRepo, path string, filter storage.Filter) error {
	leads, err := repo.ListLeads(ctx, filter)
	if err != nil {
		return err
	}
	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		path = filepath.Join(path, export.Filename(time.Now()))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.WriteXLSX(f, leads)
}
