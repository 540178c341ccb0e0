package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shanehull/botleads/internal/model"
	"github.com/shanehull/botleads/internal/storage"
)

func main() {
	name := flag.String("name", "", "Lead name to delete")
	state := flag.String("state", "", "Lead state (for matching)")
	municipality := flag.String("municipality", "", "Lead municipality (for matching)")
	category := flag.String("category", "", "Lead category (for matching)")
	src := flag.String("source", "", "Lead source (for matching)")
	runID := flag.String("run", "", "Delete a whole search run")
	dbPath := flag.String("db", "out/leads.duckdb", "Path to DuckDB file")
	yes := flag.Bool("yes", false, "Skip the confirmation prompt")
	flag.Parse()

	filter := storage.Filter{
		Name:         *name,
		State:        *state,
		Municipality: *municipality,
		Category:     *category,
		RunID:        *runID,
	}
	if *src != "" {
		parsed, err := model.ParseSource(*src)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Source = parsed.String()
	}
	if filter.IsEmpty() {
		fmt.Fprintf(os.Stderr, "Error: at least one filter is required (-name, -state, -municipality, -category, -source or -run)\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	repo, err := storage.NewDuckDBRepo(*dbPath, logger)
	if err != nil {
		logger.Error("DB connection failed", "err", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()

	if !*yes {
		fmt.Printf("\nDelete with filters: %+v\n", filter)
		fmt.Print("\nAre you sure? (yes/no): ")

		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "yes" && response != "y" {
			fmt.Println("Cancelled.")
			os.Exit(0)
		}
	}

	rowsDeleted, err := repo.DeleteByFilter(ctx, filter)
	if err != nil {
		logger.Error("Delete failed", "filter", filter, "err", err)
		os.Exit(1)
	}

	if rowsDeleted == 0 {
		logger.Warn("No records matched the filters", "filter", filter)
	} else {
		logger.Info("Deleted successfully", "filter", filter, "rows_deleted", rowsDeleted)
	}
}
