package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docrisk/internal/domain"
)

// MockAssessmentService is a mock implementation of service.AssessmentService.
type MockAssessmentService struct {
	mock.Mock
}

func (m *MockAssessmentService) List(ctx context.Context, filters domain.AssessmentFilters) ([]domain.AssessmentRecord, int, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.AssessmentRecord), args.Int(1), args.Error(2)
}

func (m *MockAssessmentService) Get(ctx context.Context, documentID string) (*domain.AssessmentRecord, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssessmentRecord), args.Error(1)
}

func (m *MockAssessmentService) QuestionRows(ctx context.Context, documentID string) ([]domain.QuestionRow, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.QuestionRow), args.Error(1)
}

func (m *MockAssessmentService) Summary(ctx context.Context) (*domain.AssessmentSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssessmentSummary), args.Error(1)
}
