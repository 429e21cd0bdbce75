package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/awslens/awslens/internal/domain"
	"github.com/awslens/awslens/internal/logging"
)

const validResponse = `{
	"summary": "A walkthrough of deploying containers on ECS with Fargate.",
	"difficulty_level": "intermediate",
	"quality_scores": {
		"technical_depth": 0.8,
		"practical_value": 0.9,
		"clarity_score": 0.7,
		"up_to_dateness": 0.6
	},
	"aws_services": ["ecs", "fargate"],
	"topics": ["containers", "deployment"],
	"categories": ["tutorial"],
	"key_takeaways": ["Use Fargate to avoid managing EC2 capacity"],
	"target_audience": "DevOps engineers new to ECS",
	"estimated_reading_time": 8
}`

type stubCompleter struct {
	response string
	err      error
	prompt   string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.response, s.err
}

func TestAnalyzer_Analyze_ComputesOverallScore(t *testing.T) {
	completer := &stubCompleter{response: validResponse}
	a := New(completer, logging.NewNop())

	analysis, err := a.Analyze(context.Background(), &domain.ContentRecord{
		ID:          "rec-1",
		Title:       "ECS Deep Dive",
		ContentType: domain.ContentTypeBlogPost,
		Content:     "body",
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if math.Abs(analysis.OverallQualityScore-0.75) > 1e-9 {
		t.Errorf("OverallQualityScore = %v, want 0.75", analysis.OverallQualityScore)
	}
	if analysis.DifficultyLevel != domain.DifficultyIntermediate {
		t.Errorf("DifficultyLevel = %q, want intermediate", analysis.DifficultyLevel)
	}
}

func TestAnalyzer_Analyze_PropagatesClientError(t *testing.T) {
	completer := &stubCompleter{err: fmt.Errorf("%w: boom", domain.ErrClientFailure)}
	a := New(completer, logging.NewNop())

	_, err := a.Analyze(context.Background(), &domain.ContentRecord{ID: "rec-1"})
	if !errors.Is(err, domain.ErrClientFailure) {
		t.Fatalf("Analyze() error = %v, want ErrClientFailure", err)
	}
}

func TestParseResponse_MarkdownFencedJSON(t *testing.T) {
	fenced := "Here is the analysis:\n```json\n" + validResponse + "\n```"

	analysis, err := ParseResponse(fenced)
	if err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}
	if analysis.Summary == "" {
		t.Error("expected non-empty summary from fenced response")
	}
}

func TestParseResponse_MissingKeys(t *testing.T) {
	tests := []struct {
		name   string
		remove string
	}{
		{"missing summary", "summary"},
		{"missing difficulty_level", "difficulty_level"},
		{"missing quality_scores", "quality_scores"},
		{"missing target_audience", "target_audience"},
		{"missing estimated_reading_time", "estimated_reading_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse(dropKey(t, validResponse, tt.remove))
			if !errors.Is(err, domain.ErrInvalidResponse) {
				t.Errorf("ParseResponse() error = %v, want ErrInvalidResponse", err)
			}
		})
	}
}

func TestParseResponse_InvalidDifficulty(t *testing.T) {
	raw := strings.Replace(validResponse, `"intermediate"`, `"expert"`, 1)

	_, err := ParseResponse(raw)
	if !errors.Is(err, domain.ErrInvalidResponse) {
		t.Fatalf("ParseResponse() error = %v, want ErrInvalidResponse", err)
	}
}

func TestParseResponse_ScoreOutOfRange(t *testing.T) {
	raw := strings.Replace(validResponse, `"technical_depth": 0.8`, `"technical_depth": 1.4`, 1)

	_, err := ParseResponse(raw)
	if !errors.Is(err, domain.ErrInvalidResponse) {
		t.Fatalf("ParseResponse() error = %v, want ErrInvalidResponse", err)
	}
}

func TestParseResponse_NegativeReadingTime(t *testing.T) {
	raw := strings.Replace(validResponse, `"estimated_reading_time": 8`, `"estimated_reading_time": -2`, 1)

	_, err := ParseResponse(raw)
	if !errors.Is(err, domain.ErrInvalidResponse) {
		t.Fatalf("ParseResponse() error = %v, want ErrInvalidResponse", err)
	}
}

func TestParseResponse_NoJSONObject(t *testing.T) {
	_, err := ParseResponse("I could not analyze this content.")
	if !errors.Is(err, domain.ErrInvalidResponse) {
		t.Fatalf("ParseResponse() error = %v, want ErrInvalidResponse", err)
	}
}

func TestParseResponse_NilSlicesBecomeEmpty(t *testing.T) {
	raw := dropKey(t, validResponse, "aws_services")

	analysis, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}
	if analysis.AWSServices == nil {
		t.Error("AWSServices = nil, want empty slice")
	}
}

func TestBuildPrompt_TruncatesLongContent(t *testing.T) {
	rec := &domain.ContentRecord{
		Title:       "Long Doc",
		ContentType: domain.ContentTypeDocumentation,
		Content:     strings.Repeat("x", maxExcerptChars+500),
	}

	prompt := BuildPrompt(rec)

	if strings.Count(prompt, "x") != maxExcerptChars {
		t.Errorf("prompt embeds %d content chars, want %d",
			strings.Count(prompt, "x"), maxExcerptChars)
	}
	if !strings.Contains(prompt, "Long Doc") {
		t.Error("prompt missing record title")
	}
}

func TestBuildPrompt_TruncatesOnRuneBoundary(t *testing.T) {
	rec := &domain.ContentRecord{
		Title:       "Unicode Doc",
		ContentType: domain.ContentTypeDocumentation,
		Content:     strings.Repeat("é", maxExcerptChars+500),
	}

	prompt := BuildPrompt(rec)

	if !utf8.ValidString(prompt) {
		t.Fatal("prompt contains invalid UTF-8 after truncation")
	}
	if got := strings.Count(prompt, "é"); got != maxExcerptChars {
		t.Errorf("prompt embeds %d runes, want %d", got, maxExcerptChars)
	}
}

// dropKey re-renders the fixture JSON without one top-level key.
func dropKey(t *testing.T, raw, key string) string {
	t.Helper()

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		t.Fatalf("fixture is not valid JSON: %v", err)
	}
	delete(obj, key)

	out, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("re-marshal fixture: %v", err)
	}
	return string(out)
}
