package port

import (
	"context"

	"docrisk/internal/domain"
)

// AssessmentRepository persists document-level risk reports.
type AssessmentRepository interface {
	Upsert(ctx context.Context, record *domain.AssessmentRecord) error
	GetByDocumentID(ctx context.Context, documentID string) (*domain.AssessmentRecord, error)
	List(ctx context.Context, filters domain.AssessmentFilters) ([]domain.AssessmentRecord, int, error)
	Summary(ctx context.Context) (*domain.AssessmentSummary, error)
}

// QuestionRepository persists per-document question row bundles.
type QuestionRepository interface {
	Upsert(ctx context.Context, record *domain.QuestionsRecord) error
	GetByDocumentID(ctx context.Context, documentID string) (*domain.QuestionsRecord, error)
}
