package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"ms-events-web/internal/backend"
	"ms-events-web/internal/config"
	"ms-events-web/internal/logger"
	"ms-events-web/internal/models"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // Loads .env file if present
	cfg := config.Load()

	limit := flag.Int("limit", backend.DefaultSubscriptionLimit, "maximum number of subscriptions to list")
	asJSON := flag.Bool("json", false, "print raw JSON instead of a table")
	baseURL := flag.String("backend", cfg.Backend.URL, "events backend base URL")
	flag.Parse()

	log := logger.NewWithWriter(os.Stderr)
	log.SetLevel(logger.WARN)

	client := backend.NewClient(*baseURL, &http.Client{Timeout: cfg.Backend.Timeout}, log)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.Timeout)
	defer cancel()

	subs, err := client.ListSubscriptions(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list subscriptions: %s\n", backend.Message(err, "Failed to load subscriptions"))
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(subs); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode subscriptions: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if err := writeTable(os.Stdout, subs); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write table: %v\n", err)
		os.Exit(1)
	}
}

func writeTable(w io.Writer, subs []models.Subscription) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tEVENT\tOPT-IN\tCREATED")
	optIns := 0
	for _, s := range subs {
		created := ""
		if !s.CreatedAt.IsZero() {
			created = s.CreatedAt.Format(time.RFC3339)
		}
		if s.OptIn {
			optIns++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", s.ID, s.Email, s.EventID, s.OptIn, created)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d subscriptions, %d opted in\n", len(subs), optIns)
	return err
}
