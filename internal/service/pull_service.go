package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"docrisk/internal/domain"
	"docrisk/internal/export"
	"docrisk/internal/port"
	"docrisk/internal/scoring"
)

const defaultPullConcurrency = 5

// PullOptions controls one pull-and-score run.
type PullOptions struct {
	Scope       domain.Scope
	ClassRegex  string
	OutputDir   string
	Concurrency int
	SkipExport  bool
	Archive     bool
}

// PullServiceConfig carries the optional archive and notification settings.
type PullServiceConfig struct {
	ArchiveBucket string
	ArchivePrefix string
	SummaryTo     string
}

// PullService runs the full pipeline: list documents, fetch their payloads,
// score them, persist the results and export report files.
type PullService interface {
	Run(ctx context.Context, opts PullOptions) (*domain.BatchSummary, error)
}

type pullService struct {
	api         port.DocumentAPI
	assessments port.AssessmentRepository
	questions   port.QuestionRepository
	storage     port.ObjectStorage
	email       port.EmailSender
	cfg         PullServiceConfig
}

// NewPullService creates a new PullService. Storage and email may be nil,
// disabling payload archival and summary notification respectively.
func NewPullService(
	api port.DocumentAPI,
	assessments port.AssessmentRepository,
	questions port.QuestionRepository,
	storage port.ObjectStorage,
	email port.EmailSender,
	cfg PullServiceConfig,
) PullService {
	return &pullService{
		api:         api,
		assessments: assessments,
		questions:   questions,
		storage:     storage,
		email:       email,
		cfg:         cfg,
	}
}

// scoredDocument pairs a report with its question rows for the batch
// workbook.
type scoredDocument struct {
	report *domain.DocumentReport
	rows   []domain.QuestionRow
}

func (s *pullService) Run(ctx context.Context, opts PullOptions) (*domain.BatchSummary, error) {
	summary := &domain.BatchSummary{
		RunID:     uuid.NewString(),
		Scope:     string(domain.NormalizeScope(string(opts.Scope))),
		StartedAt: time.Now().UTC(),
	}

	documentIDs, err := s.api.ListDocuments(ctx, opts.Scope, opts.ClassRegex)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	summary.Total = len(documentIDs)
	log.Printf("pullService.Run: run %s found %d document(s) in scope %s", summary.RunID, summary.Total, summary.Scope)

	if !opts.SkipExport && summary.Total > 0 {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output dir %s: %w", opts.OutputDir, err)
		}
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultPullConcurrency
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		scored []scoredDocument
	)
	sem := make(chan struct{}, concurrency)

	for _, documentID := range documentIDs {
		documentID := documentID

		sem <- struct{}{} // acquire
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }() // release

			payload, err := s.api.GetDocument(ctx, documentID, opts.Scope)
			if err != nil {
				log.Printf("pullService.Run: fetch failed for %s: %v", documentID, err)
				mu.Lock()
				summary.Failed = append(summary.Failed, documentID)
				mu.Unlock()
				return
			}

			report := scoring.AnalyzeDocument(payload)
			rows := scoring.QuestionRows(payload)

			if err := s.processDocument(ctx, documentID, payload, report, rows, opts); err != nil {
				log.Printf("pullService.Run: processing failed for %s: %v", documentID, err)
				mu.Lock()
				summary.Fetched++
				summary.Failed = append(summary.Failed, documentID)
				mu.Unlock()
				return
			}

			mu.Lock()
			summary.Fetched++
			summary.Analyzed++
			scored = append(scored, scoredDocument{report: report, rows: rows})
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Strings(summary.Failed)

	if !opts.SkipExport && len(scored) > 0 {
		if err := s.writeWorkbook(summary.RunID, opts.OutputDir, scored); err != nil {
			log.Printf("pullService.Run: workbook export failed: %v", err)
		}
	}

	summary.FinishedAt = time.Now().UTC()
	log.Printf("pullService.Run: run %s finished — total=%d fetched=%d analyzed=%d failed=%d",
		summary.RunID, summary.Total, summary.Fetched, summary.Analyzed, len(summary.Failed))

	if s.email != nil && s.cfg.SummaryTo != "" {
		if err := s.email.SendBatchSummary(ctx, s.cfg.SummaryTo, summary); err != nil {
			log.Printf("pullService.Run: summary email failed: %v", err)
		}
	}

	return summary, nil
}

// processDocument persists, exports and optionally archives one scored
// document.
func (s *pullService) processDocument(
	ctx context.Context,
	documentID string,
	payload *domain.DocumentPayload,
	report *domain.DocumentReport,
	rows []domain.QuestionRow,
	opts PullOptions,
) error {
	if err := s.persist(ctx, report, rows); err != nil {
		return err
	}

	if !opts.SkipExport {
		if err := s.exportFiles(opts.OutputDir, report, rows); err != nil {
			return err
		}
	}

	if opts.Archive && s.storage != nil {
		if err := s.archivePayload(ctx, documentID, payload, opts.Scope); err != nil {
			// Archival is best-effort; the scored result already landed.
			log.Printf("pullService.processDocument: archive failed for %s: %v", documentID, err)
		}
	}
	return nil
}

func (s *pullService) persist(ctx context.Context, report *domain.DocumentReport, rows []domain.QuestionRow) error {
	record, err := assessmentRecord(report)
	if err != nil {
		return err
	}
	if err := s.assessments.Upsert(ctx, record); err != nil {
		return err
	}

	questionsRecord, err := questionsRecord(report, rows)
	if err != nil {
		return err
	}
	return s.questions.Upsert(ctx, questionsRecord)
}

func (s *pullService) exportFiles(outputDir string, report *domain.DocumentReport, rows []domain.QuestionRow) error {
	now := time.Now().UTC()

	jsonPath := filepath.Join(outputDir, export.AnalyticsFilename(report.DocumentID, now))
	jsonFile, err := os.Create(jsonPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", jsonPath, err)
	}
	if err := export.WriteAnalytics(jsonFile, report); err != nil {
		jsonFile.Close()
		return err
	}
	if err := jsonFile.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", jsonPath, err)
	}

	csvPath := filepath.Join(outputDir, export.ReportFilename(report.DocumentID, now))
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", csvPath, err)
	}
	defer csvFile.Close()

	if _, err := csvFile.Write(export.BOM); err != nil {
		return fmt.Errorf("writing BOM to %s: %w", csvPath, err)
	}
	w := export.NewCSVWriter(csvFile)
	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("writing %s: %w", csvPath, err)
	}
	if err := w.WriteRows(rows); err != nil {
		return fmt.Errorf("writing %s: %w", csvPath, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", csvPath, err)
	}
	return nil
}

func (s *pullService) writeWorkbook(runID, outputDir string, scored []scoredDocument) error {
	// Deterministic sheet order regardless of fetch completion order.
	sort.Slice(scored, func(i, j int) bool {
		return scored[i].report.DocumentID < scored[j].report.DocumentID
	})

	wb, err := export.NewWorkbook()
	if err != nil {
		return err
	}
	defer wb.Close()

	for _, doc := range scored {
		if err := wb.AddDocument(doc.report, doc.rows); err != nil {
			return err
		}
	}
	return wb.Save(filepath.Join(outputDir, export.WorkbookFilename(runID, time.Now().UTC())))
}

func (s *pullService) archivePayload(ctx context.Context, documentID string, payload *domain.DocumentPayload, scope domain.Scope) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload %s: %w", documentID, err)
	}

	key := fmt.Sprintf("%s/%s/%s.json",
		s.cfg.ArchivePrefix, domain.NormalizeScope(string(scope)), documentID)
	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.ArchiveBucket,
		Key:         key,
		Body:        bytes.NewReader(raw),
		ContentType: "application/json",
		Size:        int64(len(raw)),
	})
	return err
}

func assessmentRecord(report *domain.DocumentReport) (*domain.AssessmentRecord, error) {
	categories, err := json.Marshal(report.Categories)
	if err != nil {
		return nil, fmt.Errorf("marshaling categories for %s: %w", report.DocumentID, err)
	}
	return &domain.AssessmentRecord{
		DocumentID:                        report.DocumentID,
		Filename:                          report.Filename,
		Assessment:                        report.Assessment,
		NumberOfQuestions:                 report.NumberOfQuestions,
		NumberOfKOQuestions:               report.NumberOfKOQuestions,
		NumberOfPlausibleChecks:           report.NumberOfPlausibleChecks,
		NumberOfQuestionsAnsweredNo:       report.NumberOfQuestionsAnsweredNo,
		NumberOfKOQuestionsAnsweredNo:     report.NumberOfKOQuestionsAnsweredNo,
		NumberOfPlausibleChecksAnsweredNo: report.NumberOfPlausibleChecksAnsweredNo,
		IsPlausible:                       report.IsPlausible,
		MaxTotalRiskPoints:                report.MaxTotalRiskPoints,
		TotalRiskScore:                    report.TotalRiskScore,
		RiskRatio:                         report.RiskRatio,
		Categories:                        categories,
	}, nil
}

func questionsRecord(report *domain.DocumentReport, rows []domain.QuestionRow) (*domain.QuestionsRecord, error) {
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshaling question rows for %s: %w", report.DocumentID, err)
	}

	potential, actual := 0, 0
	for _, row := range rows {
		potential += row.PotentialRiskPoints
		actual += row.ActualRiskPoints
	}
	return &domain.QuestionsRecord{
		DocumentID:               report.DocumentID,
		Filename:                 report.Filename,
		QuestionsData:            data,
		TotalQuestions:           len(rows),
		TotalPotentialRiskPoints: potential,
		TotalActualRiskPoints:    actual,
	}, nil
}
