package service

import (
	"context"
	"encoding/json"
	"fmt"

	"docrisk/internal/domain"
	"docrisk/internal/port"
)

// AssessmentService is the read side over stored assessment results, used
// by the reporting API.
type AssessmentService interface {
	List(ctx context.Context, filters domain.AssessmentFilters) ([]domain.AssessmentRecord, int, error)
	Get(ctx context.Context, documentID string) (*domain.AssessmentRecord, error)
	QuestionRows(ctx context.Context, documentID string) ([]domain.QuestionRow, error)
	Summary(ctx context.Context) (*domain.AssessmentSummary, error)
}

type assessmentService struct {
	assessments port.AssessmentRepository
	questions   port.QuestionRepository
}

// NewAssessmentService creates a new AssessmentService implementation.
func NewAssessmentService(assessments port.AssessmentRepository, questions port.QuestionRepository) AssessmentService {
	return &assessmentService{assessments: assessments, questions: questions}
}

func (s *assessmentService) List(ctx context.Context, filters domain.AssessmentFilters) ([]domain.AssessmentRecord, int, error) {
	return s.assessments.List(ctx, filters)
}

func (s *assessmentService) Get(ctx context.Context, documentID string) (*domain.AssessmentRecord, error) {
	return s.assessments.GetByDocumentID(ctx, documentID)
}

func (s *assessmentService) QuestionRows(ctx context.Context, documentID string) ([]domain.QuestionRow, error) {
	record, err := s.questions.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	var rows []domain.QuestionRow
	if err := json.Unmarshal(record.QuestionsData, &rows); err != nil {
		return nil, fmt.Errorf("decoding question rows for %s: %w", documentID, err)
	}
	return rows, nil
}

func (s *assessmentService) Summary(ctx context.Context) (*domain.AssessmentSummary, error) {
	return s.assessments.Summary(ctx)
}
