package analyzer

import (
	"fmt"
	"strings"

	"github.com/awslens/awslens/internal/domain"
)

// maxExcerptChars caps how much of the stored content body is embedded in
// the prompt. Enough for the model to judge quality without blowing the
// context budget on long documentation pages.
const maxExcerptChars = 4000

const promptTemplate = `Analyze the following AWS-related content and respond with a single JSON object, no surrounding prose.

Title: %s
Type: %s
Description: %s

Content excerpt:
%s

Respond with exactly this JSON structure:
{
  "summary": "2-3 sentence summary of the content",
  "difficulty_level": "beginner | intermediate | advanced",
  "quality_scores": {
    "technical_depth": 0.0,
    "practical_value": 0.0,
    "clarity_score": 0.0,
    "up_to_dateness": 0.0
  },
  "aws_services": ["AWS service names mentioned"],
  "topics": ["technical topics covered"],
  "categories": ["content categories"],
  "key_takeaways": ["the most important points, in order"],
  "target_audience": "who benefits most from this content",
  "estimated_reading_time": 5
}

Scoring guide, each score a real number between 0 and 1:
- technical_depth: how deeply the content covers its subject
- practical_value: how directly a practitioner can apply it
- clarity_score: how clearly it is written and structured
- up_to_dateness: how current the services and practices described are

estimated_reading_time is in minutes. Use only the three listed difficulty levels.`

// BuildPrompt renders the analysis prompt for a record. The content body is
// truncated to maxExcerptChars runes so the cut never splits a multi-byte
// character.
func BuildPrompt(rec *domain.ContentRecord) string {
	excerpt := truncateRunes(rec.Content, maxExcerptChars)
	return fmt.Sprintf(promptTemplate, rec.Title, rec.ContentType, rec.Description, excerpt)
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// extractJSON returns the first top-level JSON object in text. Models
// occasionally wrap the object in markdown fences or prose despite
// instructions.
func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
