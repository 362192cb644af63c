package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"docrisk/internal/apiclient"
	"docrisk/internal/config"
	"docrisk/internal/domain"
	"docrisk/internal/port"
	"docrisk/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		file       = flag.String("file", "", "single file to upload")
		dir        = flag.String("dir", "", "directory of files to upload one by one")
		folder     = flag.String("folder", "", "directory to upload in a single batch request")
		scope      = flag.String("scope", "", "target document scope (defaults to DOCRISK_API_SCOPE)")
		workflow   = flag.String("workflow", "", "target workflow (defaults to DOCRISK_API_WORKFLOW)")
		documentID = flag.String("document-id", "", "document ID override for single-file uploads")
		extensions = flag.String("ext", "", "comma-separated extension filter for directory uploads, e.g. pdf,docx")
		metadata   = flag.String("metadata", "", "JSON object attached as document metadata")
	)
	flag.Parse()

	targets := 0
	for _, t := range []string{*file, *dir, *folder} {
		if t != "" {
			targets++
		}
	}
	if targets != 1 {
		return fmt.Errorf("exactly one of -file, -dir or -folder must be given")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var meta map[string]any
	if *metadata != "" {
		if err := json.Unmarshal([]byte(*metadata), &meta); err != nil {
			return fmt.Errorf("invalid -metadata: %w", err)
		}
	}

	uploadSvc := service.NewUploadService(apiclient.New(cfg.API))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	uploadScope := domain.NormalizeScope(firstNonEmpty(*scope, cfg.API.Scope))
	uploadWorkflow := firstNonEmpty(*workflow, cfg.API.Workflow)
	extList := splitExtensions(*extensions)

	switch {
	case *file != "":
		result, err := uploadSvc.UploadFile(ctx, *file, port.UploadOptions{
			Scope:      uploadScope,
			Workflow:   uploadWorkflow,
			DocumentID: *documentID,
			Metadata:   meta,
		})
		if err != nil {
			return err
		}
		printResults([]domain.UploadResult{*result})

	case *dir != "":
		results, err := uploadSvc.UploadFiles(ctx, *dir, port.UploadOptions{
			Scope:    uploadScope,
			Workflow: uploadWorkflow,
			Metadata: meta,
		}, extList)
		if err != nil {
			return err
		}
		printResults(results)

	default:
		results, err := uploadSvc.UploadFolder(ctx, *folder, port.FolderUploadOptions{
			Scope:      uploadScope,
			Workflow:   uploadWorkflow,
			Extensions: extList,
		})
		if err != nil {
			return err
		}
		printResults(results)
	}
	return nil
}

func printResults(results []domain.UploadResult) {
	ok := 0
	for _, result := range results {
		if result.Success {
			ok++
			fmt.Printf("uploaded %s (document_id=%s, status=%d)\n", result.FilePath, result.DocumentID, result.Status)
		} else {
			fmt.Printf("FAILED   %s (status=%d): %s\n", result.FilePath, result.Status, result.Error)
		}
	}
	fmt.Printf("%d/%d file(s) uploaded\n", ok, len(results))
}

func splitExtensions(s string) []string {
	if s == "" {
		return nil
	}
	var exts []string
	for _, ext := range strings.Split(s, ",") {
		if ext = strings.TrimSpace(ext); ext != "" {
			exts = append(exts, ext)
		}
	}
	return exts
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
