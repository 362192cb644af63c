package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docrisk/internal/domain"
)

// MockQuestionRepo is a mock implementation of port.QuestionRepository.
type MockQuestionRepo struct {
	mock.Mock
}

func (m *MockQuestionRepo) Upsert(ctx context.Context, record *domain.QuestionsRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockQuestionRepo) GetByDocumentID(ctx context.Context, documentID string) (*domain.QuestionsRecord, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuestionsRecord), args.Error(1)
}
