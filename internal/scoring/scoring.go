// Package scoring derives risk metrics from the questionnaire tree embedded
// in a document payload. Scored yes/no questions are encoded in a
// pipe-delimited identifier convention ("<text> | <points> | <is_ko> |
// <is_plausible>"); the engine walks the tree, extracts them and aggregates
// per-category and per-document risk reports.
//
// Everything in this package is pure and synchronous. Malformed input
// degrades to zero-valued results rather than errors, so a batch run never
// stops on a single broken document.
package scoring

import (
	"math"
	"strconv"
	"strings"

	"docrisk/internal/domain"
)

// yesNoLabel is the display name of the child node that carries a
// question's answer.
const yesNoLabel = "Yes/No"

// IdentifierFields is the result of parsing a scoring identifier.
type IdentifierFields struct {
	Text        string
	Points      int
	IsKO        bool
	IsPlausible bool
}

// ParseIdentifier splits a scoring identifier into its fields. An identifier
// with fewer than three pipe separators carries no scoring semantics and
// yields the zero value. Fields are trimmed before interpretation; a
// non-numeric or negative points field becomes 0, and the boolean fields are
// true only for a case-insensitive "true". Never fails.
func ParseIdentifier(raw string) IdentifierFields {
	parts := strings.Split(raw, "|")
	if len(parts) < 4 {
		return IdentifierFields{}
	}
	fields := IdentifierFields{Text: strings.TrimSpace(parts[0])}
	if n, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil && n >= 0 {
		fields.Points = n
	}
	fields.IsKO = strings.EqualFold(strings.TrimSpace(parts[2]), "true")
	fields.IsPlausible = strings.EqualFold(strings.TrimSpace(parts[3]), "true")
	return fields
}

// ResolveAnswer reads a question's yes/no answer from the first immediate
// child named "Yes/No" (exact match). A missing answer child counts as
// answered yes. This default is a deliberate business rule: an unanswered
// question never triggers a knock-out.
func ResolveAnswer(node *domain.DocumentNode) bool {
	for i := range node.Children {
		if node.Children[i].DisplayName == yesNoLabel {
			return strings.ToLower(node.Children[i].Value) == "true"
		}
	}
	return true
}

// CollectQuestions walks the forest depth-first in pre-order and emits a
// Question for every node whose identifier contains a pipe. A scored node's
// children are still scanned, so nested questions all end up in the result.
// Order is traversal order and is stable across runs.
func CollectQuestions(children []domain.DocumentNode) []domain.Question {
	var questions []domain.Question
	for i := range children {
		node := &children[i]
		if node.Identifier != "" && strings.Contains(node.Identifier, "|") {
			fields := ParseIdentifier(node.Identifier)
			questions = append(questions, domain.Question{
				Identifier:  node.Identifier,
				Points:      fields.Points,
				IsKO:        fields.IsKO,
				IsPlausible: fields.IsPlausible,
				YesNoValue:  ResolveAnswer(node),
				Node:        node,
			})
		}
		questions = append(questions, CollectQuestions(node.Children)...)
	}
	return questions
}

// Aggregate computes the raw totals over a question list. Every question's
// points count toward the maximum; only KO questions answered no count
// toward the realized score. Empty input yields all zeros.
func Aggregate(questions []domain.Question) domain.Tally {
	var t domain.Tally
	t.Questions = len(questions)
	for _, q := range questions {
		t.MaxTotalRiskPoints += q.Points
		if q.IsKO {
			t.KOQuestions++
		}
		if q.IsPlausible {
			t.PlausibleChecks++
		}
		if !q.YesNoValue {
			t.AnsweredNo++
			if q.IsKO {
				t.KOAnsweredNo++
				t.TotalRiskScore += q.Points
			}
			if q.IsPlausible {
				t.PlausibleAnsweredNo++
			}
		}
	}
	return t
}

// AnalyzeCategory scores one top-level category node.
func AnalyzeCategory(node *domain.DocumentNode) domain.CategoryMetrics {
	tally := Aggregate(CollectQuestions(node.Children))
	return domain.CategoryMetrics{
		CategoryName:       categoryName(node),
		MaxTotalRiskPoints: tally.MaxTotalRiskPoints,
		TotalRiskScore:     tally.TotalRiskScore,
		RiskRatio:          riskRatio(tally.TotalRiskScore, tally.MaxTotalRiskPoints),
	}
}

// AnalyzeDocument produces the full risk report for one document payload.
// Questions are collected per top-level category and concatenated, so
// root-level nodes outside a category are never scored. Absent or malformed
// sections degrade to empty trees and zero metrics.
func AnalyzeDocument(payload *domain.DocumentPayload) *domain.DocumentReport {
	var questions []domain.Question
	categories := make([]domain.CategoryMetrics, 0, len(payload.Document.Children))
	for i := range payload.Document.Children {
		category := &payload.Document.Children[i]
		questions = append(questions, CollectQuestions(category.Children)...)
		categories = append(categories, AnalyzeCategory(category))
	}
	tally := Aggregate(questions)

	return &domain.DocumentReport{
		DocumentID:                        payload.Document.DocumentID,
		Filename:                          payload.Upload.DocumentIDByOrganization,
		Assessment:                        strings.TrimPrefix(payload.Document.DocumentClass, "/"),
		NumberOfQuestions:                 tally.Questions,
		NumberOfKOQuestions:               tally.KOQuestions,
		NumberOfPlausibleChecks:           tally.PlausibleChecks,
		NumberOfQuestionsAnsweredNo:       tally.AnsweredNo,
		NumberOfKOQuestionsAnsweredNo:     tally.KOAnsweredNo,
		NumberOfPlausibleChecksAnsweredNo: tally.PlausibleAnsweredNo,
		IsPlausible:                       tally.PlausibleAnsweredNo == 0,
		MaxTotalRiskPoints:                tally.MaxTotalRiskPoints,
		TotalRiskScore:                    tally.TotalRiskScore,
		RiskRatio:                         riskRatio(tally.TotalRiskScore, tally.MaxTotalRiskPoints),
		Categories:                        categories,
	}
}

// QuestionRows projects a payload into one row per question for the tabular
// exports and the questions table. Row order follows category order, then
// traversal order within each category.
func QuestionRows(payload *domain.DocumentPayload) []domain.QuestionRow {
	var rows []domain.QuestionRow
	for i := range payload.Document.Children {
		category := &payload.Document.Children[i]
		name := categoryName(category)
		for _, q := range CollectQuestions(category.Children) {
			actual := 0
			if q.IsKO && !q.YesNoValue {
				actual = q.Points
			}
			rows = append(rows, domain.QuestionRow{
				Category:            name,
				Question:            questionText(q.Identifier),
				Answer:              yesNo(q.YesNoValue),
				PotentialRiskPoints: q.Points,
				ActualRiskPoints:    actual,
				KOQuestion:          yesNo(q.IsKO),
				PlausibleCheck:      yesNo(q.IsPlausible),
			})
		}
	}
	return rows
}

// categoryName prefers the identifier over the display name, falling back
// to "Unknown" when both are empty.
func categoryName(node *domain.DocumentNode) string {
	switch {
	case node.Identifier != "":
		return node.Identifier
	case node.DisplayName != "":
		return node.DisplayName
	default:
		return "Unknown"
	}
}

// questionText is the identifier text before the first pipe, trimmed.
func questionText(identifier string) string {
	text, _, _ := strings.Cut(identifier, "|")
	return strings.TrimSpace(text)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// riskRatio divides realized by maximum points, rounded to four decimals.
// A zero denominator yields zero.
func riskRatio(score, max int) float64 {
	if max == 0 {
		return 0
	}
	return math.Round(float64(score)/float64(max)*10000) / 10000
}
