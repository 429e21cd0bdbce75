// Package analyzer turns a stored content record into a structured analysis
// by prompting a language model and validating its response.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/awslens/awslens/internal/domain"
	"github.com/awslens/awslens/internal/llm"
	"github.com/awslens/awslens/internal/logging"
)

// Analyzer drives the model over single records.
type Analyzer struct {
	completer llm.Completer
	logger    logging.Logger
}

// New creates an Analyzer.
func New(completer llm.Completer, logger logging.Logger) *Analyzer {
	return &Analyzer{completer: completer, logger: logger}
}

// Analyze prompts the model with rec and returns the validated analysis.
// Model transport failures surface as domain.ErrClientFailure; responses
// that do not match the expected schema surface as domain.ErrInvalidResponse.
func (a *Analyzer) Analyze(ctx context.Context, rec *domain.ContentRecord) (*domain.Analysis, error) {
	prompt := BuildPrompt(rec)

	raw, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	analysis, err := ParseResponse(raw)
	if err != nil {
		a.logger.Warn("analysis response rejected",
			"content_id", rec.ID,
			"error", err,
		)
		return nil, err
	}

	analysis.OverallQualityScore = analysis.QualityScores.Mean()
	return analysis, nil
}

// ParseResponse parses and validates a raw model response. The response must
// contain a JSON object with every schema key present and well-typed; any
// deviation is domain.ErrInvalidResponse.
func ParseResponse(raw string) (*domain.Analysis, error) {
	text, ok := extractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in response", domain.ErrInvalidResponse)
	}

	var resp struct {
		Summary              *string               `json:"summary"`
		DifficultyLevel      *string               `json:"difficulty_level"`
		QualityScores        *domain.QualityScores `json:"quality_scores"`
		AWSServices          []string              `json:"aws_services"`
		Topics               []string              `json:"topics"`
		Categories           []string              `json:"categories"`
		KeyTakeaways         []string              `json:"key_takeaways"`
		TargetAudience       *string               `json:"target_audience"`
		EstimatedReadingTime *int                  `json:"estimated_reading_time"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}

	switch {
	case resp.Summary == nil || *resp.Summary == "":
		return nil, fmt.Errorf("%w: missing summary", domain.ErrInvalidResponse)
	case resp.DifficultyLevel == nil:
		return nil, fmt.Errorf("%w: missing difficulty_level", domain.ErrInvalidResponse)
	case !domain.ValidDifficultyLevel(*resp.DifficultyLevel):
		return nil, fmt.Errorf("%w: unknown difficulty_level %q",
			domain.ErrInvalidResponse, *resp.DifficultyLevel)
	case resp.QualityScores == nil:
		return nil, fmt.Errorf("%w: missing quality_scores", domain.ErrInvalidResponse)
	case resp.TargetAudience == nil:
		return nil, fmt.Errorf("%w: missing target_audience", domain.ErrInvalidResponse)
	case resp.EstimatedReadingTime == nil:
		return nil, fmt.Errorf("%w: missing estimated_reading_time", domain.ErrInvalidResponse)
	case *resp.EstimatedReadingTime < 0:
		return nil, fmt.Errorf("%w: negative estimated_reading_time", domain.ErrInvalidResponse)
	}

	if err := validateScores(resp.QualityScores); err != nil {
		return nil, err
	}

	return &domain.Analysis{
		Summary:              *resp.Summary,
		DifficultyLevel:      *resp.DifficultyLevel,
		QualityScores:        *resp.QualityScores,
		AWSServices:          emptyIfNil(resp.AWSServices),
		Topics:               emptyIfNil(resp.Topics),
		Categories:           emptyIfNil(resp.Categories),
		KeyTakeaways:         emptyIfNil(resp.KeyTakeaways),
		TargetAudience:       *resp.TargetAudience,
		EstimatedReadingTime: *resp.EstimatedReadingTime,
	}, nil
}

func validateScores(scores *domain.QualityScores) error {
	check := map[string]*float64{
		"technical_depth": scores.TechnicalDepth,
		"practical_value": scores.PracticalValue,
		"clarity_score":   scores.ClarityScore,
		"up_to_dateness":  scores.UpToDateness,
	}
	for name, s := range check {
		if s != nil && (*s < 0 || *s > 1) {
			return fmt.Errorf("%w: %s %v out of range [0,1]",
				domain.ErrInvalidResponse, name, *s)
		}
	}
	return nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
