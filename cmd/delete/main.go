package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"docrisk/internal/apiclient"
	"docrisk/internal/config"
	"docrisk/internal/domain"
	"docrisk/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		scope       = flag.String("scope", "", "document scope to delete exports from (defaults to DOCRISK_API_SCOPE)")
		classRegex  = flag.String("regex", "", "regex filter on document class")
		concurrency = flag.Int("concurrency", 10, "number of concurrent deletions")
		dryRun      = flag.Bool("dry-run", false, "list what would be deleted without acting")
		confirm     = flag.Bool("confirm", false, "actually delete; required unless -dry-run")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	deleteSvc := service.NewDeleteService(apiclient.New(cfg.API))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := deleteSvc.DeleteExports(ctx, service.DeleteOptions{
		Scope:       domain.NormalizeScope(firstNonEmpty(*scope, cfg.API.Scope)),
		ClassRegex:  *classRegex,
		Concurrency: *concurrency,
		DryRun:      *dryRun,
		Confirm:     *confirm,
	})
	if err != nil {
		return err
	}

	if *dryRun {
		for _, result := range results {
			fmt.Printf("would delete export info for %s\n", result.DocumentID)
		}
		fmt.Printf("%d document(s) in scope\n", len(results))
		return nil
	}

	ok := 0
	for _, result := range results {
		if result.Success {
			ok++
		} else {
			fmt.Printf("FAILED %s (status=%d): %s\n", result.DocumentID, result.Status, result.Error)
		}
	}
	fmt.Printf("%d/%d export(s) deleted\n", ok, len(results))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
