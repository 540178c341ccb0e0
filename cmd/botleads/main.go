package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/shanehull/botleads/internal/config"
	"github.com/shanehull/botleads/internal/enrich"
	"github.com/shanehull/botleads/internal/export"
	"github.com/shanehull/botleads/internal/model"
	"github.com/shanehull/botleads/internal/search"
	"github.com/shanehull/botleads/internal/storage"
)

func main() {
	state := flag.String("state", "", "State name or UF (required)")
	municipality := flag.String("municipality", "", "Municipality (required)")
	neighborhood := flag.String("neighborhood", "", "Neighborhood (optional)")
	category := flag.String("category", "", "Business category, e.g. padaria (required)")
	phoneRequired := flag.Bool("phone-required", false, "Only keep leads with a phone")
	sourcesFlag := flag.String("sources", "", "Sources to run: maps,facebook,instagram (default: every configured one)")
	dbPath := flag.String("db", "", "Archive results to this DuckDB file")
	xlsxOut := flag.String("xlsx", "", "Write results to this .xlsx file, or a directory for a timestamped name")
	debug := flag.Bool("debug", false, "Enable debug logs")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Config load failed", "err", err)
		os.Exit(1)
	}

	srcs, err := search.ParseSources(*sourcesFlag)
	if err != nil {
		logger.Error("Invalid -sources", "err", err)
		os.Exit(2)
	}

	q := model.Query{
		State:         *state,
		Municipality:  *municipality,
		Neighborhood:  *neighborhood,
		Category:      *category,
		PhoneRequired: *phoneRequired,
	}.Trimmed()
	if err := search.Validate(q); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	orch, clients, err := search.FromConfig(logger, cfg, srcs)
	if err != nil {
		logger.Error("Searcher setup failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	leads, err := orch.SearchAll(ctx, q, srcs...)
	if err != nil {
		logger.Error("Search failed", "err", err)
		os.Exit(1)
	}
	if clients.Enricher != nil {
		leads = enrich.All(ctx, logger, clients.Enricher, leads)
	}

	printLeads(leads)

	if *dbPath != "" {
		archive(ctx, logger, *dbPath, q, leads)
	}
	if *xlsxOut != "" {
		if err := writeXLSX(*xlsxOut, leads); err != nil {
			logger.Error("Export failed", "err", err)
			os.Exit(1)
		}
	}
}

func printLeads(leads []model.Lead) {
	if len(leads) == 0 {
		fmt.Println("Nenhum lead encontrado.")
		return
	}

	sep := strings.Repeat("=", 80)
	fmt.Printf("\n%s\nTotal de leads encontrados: %d\n%s\n", sep, len(leads), sep)
	for i, l := range leads {
		fmt.Printf("\n%d. %s\n", i+1, l.Name)
		fmt.Printf("   Endereço: %s\n", l.Address)
		fmt.Printf("   Telefone: %s\n", l.PhoneOrNA())
		if l.HasCoordinates() {
			fmt.Printf("   Coordenadas: %.6f, %.6f\n", l.Latitude, l.Longitude)
		}
		fmt.Printf("   Tipo: %s\n", l.Category)
		fmt.Printf("   Fonte: %s\n", l.Source)
		if l.ProfileLink != "" {
			fmt.Printf("   Link: %s\n", l.ProfileLink)
		}
		fmt.Println("   " + strings.Repeat("-", 76))
	}
}

func archive(ctx context.Context, logger *slog.Logger, path string, q model.Query, leads []model.Lead) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("Failed to create archive directory", "err", err)
			return
		}
	}

	repo, err := storage.NewDuckDBRepo(path, logger)
	if err != nil {
		logger.Error("DB connection failed", "err", err)
		return
	}
	defer repo.Close()

	if err := repo.Init(ctx); err != nil {
		logger.Error("DB init failed", "err", err)
		return
	}
	runID := uuid.NewString()
	if _, err := repo.SaveRun(ctx, runID, q, leads); err != nil {
		logger.Error("Archive failed", "run_id", runID, "err", err)
	}
}

func writeXLSX(out string, leads []model.Lead) error {
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		out = filepath.Join(out, export.Filename(time.Now()))
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := export.WriteXLSX(f, leads); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("\nPlanilha salva em %s\n", out)
	return nil
}
