package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"docrisk/internal/apiclient"
	"docrisk/internal/config"
	"docrisk/internal/domain"
	"docrisk/internal/email/noop"
	"docrisk/internal/email/ses"
	"docrisk/internal/port"
	"docrisk/internal/repository/postgres"
	"docrisk/internal/service"
	s3storage "docrisk/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		scope       = flag.String("scope", "", "document scope to pull (defaults to DOCRISK_API_SCOPE)")
		classRegex  = flag.String("regex", "", "regex filter on document class")
		outputDir   = flag.String("out", "", "output directory for report files (defaults to DOCRISK_PULL_OUTPUT_DIR)")
		concurrency = flag.Int("concurrency", 0, "number of concurrent document fetches (defaults to DOCRISK_PULL_CONCURRENCY)")
		skipExport  = flag.Bool("skip-export", false, "persist results without writing report files")
		archive     = flag.Bool("archive", false, "archive raw payloads to S3")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	api := apiclient.New(cfg.API)
	assessmentRepo := postgres.NewAssessmentRepo(db)
	questionRepo := postgres.NewQuestionRepo(db)

	var storage port.ObjectStorage
	if *archive {
		if cfg.S3.Bucket == "" {
			return fmt.Errorf("-archive requires DOCRISK_S3_BUCKET to be set")
		}
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	email, err := newEmailSender(cfg.Email)
	if err != nil {
		return fmt.Errorf("failed to initialize email sender: %w", err)
	}

	pullSvc := service.NewPullService(api, assessmentRepo, questionRepo, storage, email, service.PullServiceConfig{
		ArchiveBucket: cfg.S3.Bucket,
		ArchivePrefix: cfg.S3.Prefix,
		SummaryTo:     cfg.Email.To,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := service.PullOptions{
		Scope:       domain.NormalizeScope(firstNonEmpty(*scope, cfg.API.Scope)),
		ClassRegex:  *classRegex,
		OutputDir:   firstNonEmpty(*outputDir, cfg.Pull.OutputDir),
		Concurrency: *concurrency,
		SkipExport:  *skipExport,
		Archive:     *archive,
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = cfg.Pull.Concurrency
	}

	summary, err := pullSvc.Run(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s finished in %s\n", summary.RunID, summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
	fmt.Printf("  scope:    %s\n", summary.Scope)
	fmt.Printf("  total:    %d\n", summary.Total)
	fmt.Printf("  fetched:  %d\n", summary.Fetched)
	fmt.Printf("  analyzed: %d\n", summary.Analyzed)
	if len(summary.Failed) > 0 {
		fmt.Printf("  failed:   %s\n", strings.Join(summary.Failed, ", "))
	}
	return nil
}

func newEmailSender(cfg config.EmailConfig) (port.EmailSender, error) {
	switch cfg.Provider {
	case "ses":
		return ses.NewSESSender(cfg.Region, cfg.FromAddress, cfg.FromName)
	default:
		return noop.NewNoopSender(), nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
