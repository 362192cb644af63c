package port

import (
	"context"

	"docrisk/internal/domain"
)

// UploadOptions controls a single-file upload to the document-management API.
type UploadOptions struct {
	Scope      domain.Scope
	Workflow   string
	DocumentID string
	Metadata   map[string]any
}

// FolderUploadOptions controls a multi-file folder upload.
type FolderUploadOptions struct {
	Scope       domain.Scope
	Workflow    string
	Extensions  []string
	DocumentIDs map[string]string
}

// DocumentAPI abstracts the upstream document-management REST API.
type DocumentAPI interface {
	Authenticate(ctx context.Context) (string, error)
	ListDocuments(ctx context.Context, scope domain.Scope, classRegex string) ([]string, error)
	GetDocument(ctx context.Context, documentID string, scope domain.Scope) (*domain.DocumentPayload, error)
	DeleteExport(ctx context.Context, documentID string, scope domain.Scope) (*domain.DeleteResult, error)
	UploadFile(ctx context.Context, path string, opts UploadOptions) (*domain.UploadResult, error)
	UploadFolder(ctx context.Context, dir string, opts FolderUploadOptions) ([]domain.UploadResult, error)
}
