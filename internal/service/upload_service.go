package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docrisk/internal/domain"
	"docrisk/internal/port"
)

// interFileDelay is the pause between sequential uploads so the ingest
// pipeline is not flooded.
const interFileDelay = 500 * time.Millisecond

// UploadService pushes local files into the document-management API.
type UploadService interface {
	UploadFile(ctx context.Context, path string, opts port.UploadOptions) (*domain.UploadResult, error)
	UploadFiles(ctx context.Context, dir string, opts port.UploadOptions, extensions []string) ([]domain.UploadResult, error)
	UploadFolder(ctx context.Context, dir string, opts port.FolderUploadOptions) ([]domain.UploadResult, error)
}

type uploadService struct {
	api port.DocumentAPI
}

// NewUploadService creates a new UploadService.
func NewUploadService(api port.DocumentAPI) UploadService {
	return &uploadService{api: api}
}

func (s *uploadService) UploadFile(ctx context.Context, path string, opts port.UploadOptions) (*domain.UploadResult, error) {
	return s.api.UploadFile(ctx, path, opts)
}

// UploadFiles uploads every matching file of a directory one by one, pausing
// between files. A failed file is recorded and the batch continues.
func (s *uploadService) UploadFiles(ctx context.Context, dir string, opts port.UploadOptions, extensions []string) ([]domain.UploadResult, error) {
	paths, err := scanFolder(dir, extensions)
	if err != nil {
		return nil, err
	}
	log.Printf("uploadService.UploadFiles: uploading %d file(s) from %s", len(paths), dir)

	results := make([]domain.UploadResult, 0, len(paths))
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := s.api.UploadFile(ctx, path, opts)
		if err != nil {
			log.Printf("uploadService.UploadFiles: %s failed: %v", filepath.Base(path), err)
		}
		if result != nil {
			results = append(results, *result)
		}

		if i < len(paths)-1 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(interFileDelay):
			}
		}
	}
	return results, nil
}

// UploadFolder pushes a whole directory in a single multipart request.
func (s *uploadService) UploadFolder(ctx context.Context, dir string, opts port.FolderUploadOptions) ([]domain.UploadResult, error) {
	return s.api.UploadFolder(ctx, dir, opts)
}

func scanFolder(dir string, extensions []string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: folder not found: %s", domain.ErrUploadFailed, dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", domain.ErrUploadFailed, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if len(allowed) > 0 && !allowed[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files found in %s", domain.ErrUploadFailed, dir)
	}
	return paths, nil
}
