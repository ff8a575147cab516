package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mmdatafocus/po_service/config"
	"github.com/mmdatafocus/po_service/models"
	"github.com/mmdatafocus/po_service/workflow"
)

// po-import ingests a file of PO line items without going through HTTP.
//
// Accepted inputs:
// - .xlsx: first sheet, header row with the line item column names
// - .json: the bulk envelope {"pos": {"data": [...]}, "platform": "X"}
type envelope struct {
	Pos *struct {
		Data []workflow.LineItem `json:"data"`
	} `json:"pos"`
	Platform string `json:"platform"`
}

func main() {
	path := flag.String("file", "", "Required: .xlsx or .json file to ingest")
	platform := flag.String("platform", "", "Optional: platform name (overrides the file's platform)")
	dryRun := flag.Bool("dry-run", false, "If true, only validate and group; nothing is written")
	flag.Parse()

	if strings.TrimSpace(*path) == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		os.Exit(1)
	}

	items, filePlatform, err := readItems(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", *path, err)
		os.Exit(1)
	}
	platformName := strings.TrimSpace(*platform)
	if platformName == "" {
		platformName = filePlatform
	}

	if *dryRun {
		groups, err := workflow.GroupByPONumber(items)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid input: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("[dry-run] items=%d pos=%d platform=%q\n", len(items), len(groups), platformName)
		for _, g := range groups {
			fmt.Printf("  %s: %d item(s)\n", g.PoNumber, len(g.Items))
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry(ctx)

	repo := models.NewRepository(db)
	var publish workflow.PublishFunc
	if config.PubSubEnabled() {
		publish = config.PublishEvent
	}
	report, err := workflow.NewIngestor(repo, repo, publish, workflow.DefaultOptions()).
		Ingest(ctx, models.IngestionSourceCli, items, platformName)
	if report != nil {
		out, _ := json.MarshalIndent(report.Stats, "", "  ")
		fmt.Printf("run %s: %s\n%s\n", report.RunId, report.Message, out)
		for _, e := range report.Errors {
			fmt.Fprintln(os.Stderr, e)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingestion failed: %v\n", err)
		os.Exit(1)
	}
	if !report.Success {
		os.Exit(2)
	}
}

func readItems(path string) ([]workflow.LineItem, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		items, err := workflow.ParseLineItemsXlsx(f)
		return items, "", err
	case ".json":
		var env envelope
		if err := json.NewDecoder(f).Decode(&env); err != nil {
			return nil, "", err
		}
		if env.Pos == nil || env.Pos.Data == nil {
			return nil, "", fmt.Errorf("pos.data is required: %w", models.ErrInvalidInput)
		}
		return env.Pos.Data, env.Platform, nil
	default:
		return nil, "", fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}
