package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docrisk/internal/domain"
	"docrisk/internal/port"
)

// MockDocumentAPI is a mock implementation of port.DocumentAPI.
type MockDocumentAPI struct {
	mock.Mock
}

func (m *MockDocumentAPI) Authenticate(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentAPI) ListDocuments(ctx context.Context, scope domain.Scope, classRegex string) ([]string, error) {
	args := m.Called(ctx, scope, classRegex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDocumentAPI) GetDocument(ctx context.Context, documentID string, scope domain.Scope) (*domain.DocumentPayload, error) {
	args := m.Called(ctx, documentID, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentPayload), args.Error(1)
}

func (m *MockDocumentAPI) DeleteExport(ctx context.Context, documentID string, scope domain.Scope) (*domain.DeleteResult, error) {
	args := m.Called(ctx, documentID, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeleteResult), args.Error(1)
}

func (m *MockDocumentAPI) UploadFile(ctx context.Context, path string, opts port.UploadOptions) (*domain.UploadResult, error) {
	args := m.Called(ctx, path, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadResult), args.Error(1)
}

func (m *MockDocumentAPI) UploadFolder(ctx context.Context, dir string, opts port.FolderUploadOptions) ([]domain.UploadResult, error) {
	args := m.Called(ctx, dir, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UploadResult), args.Error(1)
}
