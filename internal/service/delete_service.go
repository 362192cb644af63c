package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"docrisk/internal/domain"
	"docrisk/internal/port"
)

// DeleteOptions controls a bulk export deletion run.
type DeleteOptions struct {
	Scope       domain.Scope
	ClassRegex  string
	Concurrency int
	DryRun      bool
	Confirm     bool
}

// DeleteService bulk-deletes export information for documents in a scope.
type DeleteService interface {
	DeleteExports(ctx context.Context, opts DeleteOptions) ([]domain.DeleteResult, error)
}

type deleteService struct {
	api port.DocumentAPI
}

// NewDeleteService creates a new DeleteService.
func NewDeleteService(api port.DocumentAPI) DeleteService {
	return &deleteService{api: api}
}

// DeleteExports lists the documents in scope and deletes export info for
// each. Without Confirm it refuses to act; DryRun only reports what would
// be deleted.
func (s *deleteService) DeleteExports(ctx context.Context, opts DeleteOptions) ([]domain.DeleteResult, error) {
	if opts.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be >= 1, got %d", opts.Concurrency)
	}

	documentIDs, err := s.api.ListDocuments(ctx, opts.Scope, opts.ClassRegex)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	log.Printf("deleteService.DeleteExports: found %d document(s) in scope %s", len(documentIDs), opts.Scope)

	if len(documentIDs) == 0 {
		return []domain.DeleteResult{}, nil
	}

	if opts.DryRun {
		results := make([]domain.DeleteResult, 0, len(documentIDs))
		for _, id := range documentIDs {
			log.Printf("deleteService.DeleteExports: dry run, would delete export info for %s", id)
			results = append(results, domain.DeleteResult{DocumentID: id})
		}
		return results, nil
	}

	if !opts.Confirm {
		return nil, fmt.Errorf("%w: refusing to delete %d export(s) without confirmation",
			domain.ErrNotConfirmed, len(documentIDs))
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []domain.DeleteResult
	)
	sem := make(chan struct{}, opts.Concurrency)

	for _, documentID := range documentIDs {
		documentID := documentID

		sem <- struct{}{} // acquire
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }() // release

			result, err := s.api.DeleteExport(ctx, documentID, opts.Scope)
			if result == nil {
				result = &domain.DeleteResult{DocumentID: documentID}
				if err != nil {
					result.Error = err.Error()
				}
			}
			if result.Success {
				log.Printf("deleteService.DeleteExports: deleted export info for %s (status=%d, %dms)",
					documentID, result.Status, result.DurationMS)
			} else {
				log.Printf("deleteService.DeleteExports: failed to delete %s: %s (status=%d)",
					documentID, result.Error, result.Status)
			}

			mu.Lock()
			results = append(results, *result)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].DocumentID < results[j].DocumentID
	})
	return results, nil
}
