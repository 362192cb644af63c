package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docrisk/internal/domain"
	"docrisk/internal/port"
	"docrisk/internal/service"
	"docrisk/mocks"
)

func questionnairePayload(documentID string) *domain.DocumentPayload {
	return &domain.DocumentPayload{
		Upload: domain.UploadInfo{DocumentIDByOrganization: documentID + ".pdf"},
		Document: domain.DocumentTree{
			DocumentID:    documentID,
			DocumentClass: "/credit-check",
			Children: []domain.DocumentNode{
				{
					DisplayName: "Applicant",
					Children: []domain.DocumentNode{
						{
							Identifier: "Income verified | 3 | true | false",
							Children: []domain.DocumentNode{
								{DisplayName: "Yes/No", Value: "false"},
							},
						},
						{
							Identifier: "Address matches | 1 | true | false",
							Children: []domain.DocumentNode{
								{DisplayName: "Yes/No", Value: "true"},
							},
						},
					},
				},
			},
		},
	}
}

func newPullService(storage port.ObjectStorage, email port.EmailSender, cfg service.PullServiceConfig) (service.PullService, *mocks.MockDocumentAPI, *mocks.MockAssessmentRepo, *mocks.MockQuestionRepo) {
	mockAPI := new(mocks.MockDocumentAPI)
	mockAssessments := new(mocks.MockAssessmentRepo)
	mockQuestions := new(mocks.MockQuestionRepo)

	svc := service.NewPullService(mockAPI, mockAssessments, mockQuestions, storage, email, cfg)
	return svc, mockAPI, mockAssessments, mockQuestions
}

func TestPullService_Run_ScoresAndPersists(t *testing.T) {
	svc, mockAPI, mockAssessments, mockQuestions := newPullService(nil, nil, service.PullServiceConfig{})

	mockAPI.On("ListDocuments", mock.Anything, domain.ScopeProduction, "").
		Return([]string{"doc-1"}, nil)
	mockAPI.On("GetDocument", mock.Anything, "doc-1", domain.ScopeProduction).
		Return(questionnairePayload("doc-1"), nil)

	var persisted *domain.AssessmentRecord
	mockAssessments.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.AssessmentRecord")).
		Run(func(args mock.Arguments) {
			persisted = args.Get(1).(*domain.AssessmentRecord)
		}).
		Return(nil)
	mockQuestions.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.QuestionsRecord")).
		Return(nil)

	summary, err := svc.Run(context.Background(), service.PullOptions{
		Scope:      domain.ScopeProduction,
		SkipExport: true,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "Production", summary.Scope)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Fetched)
	assert.Equal(t, 1, summary.Analyzed)
	assert.Empty(t, summary.Failed)

	require.NotNil(t, persisted)
	assert.Equal(t, "doc-1", persisted.DocumentID)
	assert.Equal(t, "doc-1.pdf", persisted.Filename)
	assert.Equal(t, "credit-check", persisted.Assessment)
	// "Income verified" answered no: 3 of 4 possible points scored.
	assert.Equal(t, 4, persisted.MaxTotalRiskPoints)
	assert.Equal(t, 3, persisted.TotalRiskScore)
	assert.InDelta(t, 0.75, persisted.RiskRatio, 1e-9)

	mockAPI.AssertExpectations(t)
	mockAssessments.AssertExpectations(t)
	mockQuestions.AssertExpectations(t)
}

func TestPullService_Run_NormalizesScope(t *testing.T) {
	svc, mockAPI, _, _ := newPullService(nil, nil, service.PullServiceConfig{})

	mockAPI.On("ListDocuments", mock.Anything, mock.Anything, "").
		Return([]string{}, nil)

	summary, err := svc.Run(context.Background(), service.PullOptions{
		Scope:      domain.Scope("development"),
		SkipExport: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Development", summary.Scope)
	assert.Equal(t, 0, summary.Total)
}

func TestPullService_Run_FetchFailureRecorded(t *testing.T) {
	svc, mockAPI, mockAssessments, mockQuestions := newPullService(nil, nil, service.PullServiceConfig{})

	mockAPI.On("ListDocuments", mock.Anything, domain.ScopeProduction, "").
		Return([]string{"doc-1", "doc-2"}, nil)
	mockAPI.On("GetDocument", mock.Anything, "doc-1", domain.ScopeProduction).
		Return(nil, errors.New("upstream timeout"))
	mockAPI.On("GetDocument", mock.Anything, "doc-2", domain.ScopeProduction).
		Return(questionnairePayload("doc-2"), nil)

	mockAssessments.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	mockQuestions.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	summary, err := svc.Run(context.Background(), service.PullOptions{
		Scope:      domain.ScopeProduction,
		SkipExport: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Fetched)
	assert.Equal(t, 1, summary.Analyzed)
	assert.Equal(t, []string{"doc-1"}, summary.Failed)
}

func TestPullService_Run_PersistFailureRecorded(t *testing.T) {
	svc, mockAPI, mockAssessments, _ := newPullService(nil, nil, service.PullServiceConfig{})

	mockAPI.On("ListDocuments", mock.Anything, domain.ScopeProduction, "").
		Return([]string{"doc-1"}, nil)
	mockAPI.On("GetDocument", mock.Anything, "doc-1", domain.ScopeProduction).
		Return(questionnairePayload("doc-1"), nil)
	mockAssessments.On("Upsert", mock.Anything, mock.Anything).
		Return(errors.New("db down"))

	summary, err := svc.Run(context.Background(), service.PullOptions{
		Scope:      domain.ScopeProduction,
		SkipExport: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Fetched)
	assert.Equal(t, 0, summary.Analyzed)
	assert.Equal(t, []string{"doc-1"}, summary.Failed)
}

func TestPullService_Run_ListError(t *testing.T) {
	svc, mockAPI, _, _ := newPullService(nil, nil, service.PullServiceConfig{})

	mockAPI.On("ListDocuments", mock.Anything, domain.ScopeProduction, "").
		Return(nil, errors.New("unauthorized"))

	summary, err := svc.Run(context.Background(), service.PullOptions{
		Scope:      domain.ScopeProduction,
		SkipExport: true,
	})
	assert.Error(t, err)
	assert.Nil(t, summary)
}

func TestPullService_Run_ArchivesPayload(t *testing.T) {
	mockStorage := new(mocks.MockObjectStorage)
	svc, mockAPI, mockAssessments, mockQuestions := newPullService(mockStorage, nil, service.PullServiceConfig{
		ArchiveBucket: "docrisk-archive",
		ArchivePrefix: "payloads",
	})

	mockAPI.On("ListDocuments", mock.Anything, domain.ScopeProduction, "").
		Return([]string{"doc-1"}, nil)
	mockAPI.On("GetDocument", mock.Anything, "doc-1", domain.ScopeProduction).
		Return(questionnairePayload("doc-1"), nil)
	mockAssessments.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	mockQuestions.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	mockStorage.On("Upload", mock.Anything, mock.MatchedBy(func(input port.UploadInput) bool {
		return input.Bucket == "docrisk-archive" && input.Key == "payloads/Production/doc-1.json"
	})).Return(nil, errors.New("bucket unreachable"))

	// An archive failure must not fail the run.
	summary, err := svc.Run(context.Background(), service.PullOptions{
		Scope:      domain.ScopeProduction,
		SkipExport: true,
		Archive:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Analyzed)
	assert.Empty(t, summary.Failed)
	mockStorage.AssertExpectations(t)
}

func TestPullService_Run_SendsSummaryEmail(t *testing.T) {
	mockEmail := new(mocks.MockEmailSender)
	svc, mockAPI, _, _ := newPullService(nil, mockEmail, service.PullServiceConfig{
		SummaryTo: "ops@example.com",
	})

	mockAPI.On("ListDocuments", mock.Anything, domain.ScopeProduction, "").
		Return([]string{}, nil)
	mockEmail.On("SendBatchSummary", mock.Anything, "ops@example.com", mock.AnythingOfType("*domain.BatchSummary")).
		Return(nil)

	_, err := svc.Run(context.Background(), service.PullOptions{
		Scope:      domain.ScopeProduction,
		SkipExport: true,
	})
	require.NoError(t, err)
	mockEmail.AssertExpectations(t)
}
