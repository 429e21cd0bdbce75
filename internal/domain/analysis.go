package domain

// QualityScores holds the four quality dimensions rated by the analysis pass.
// Each value is in [0,1]. A nil field means the model did not rate that
// dimension; the aggregate score averages only the supplied dimensions.
type QualityScores struct {
	TechnicalDepth *float64 `json:"technical_depth,omitempty"`
	PracticalValue *float64 `json:"practical_value,omitempty"`
	ClarityScore   *float64 `json:"clarity_score,omitempty"`
	UpToDateness   *float64 `json:"up_to_dateness,omitempty"`
}

// Present returns the supplied sub-scores in declaration order.
func (q QualityScores) Present() []float64 {
	scores := make([]float64, 0, 4)
	for _, s := range []*float64{q.TechnicalDepth, q.PracticalValue, q.ClarityScore, q.UpToDateness} {
		if s != nil {
			scores = append(scores, *s)
		}
	}
	return scores
}

// Mean returns the arithmetic mean of the supplied sub-scores, or 0 when
// none were supplied.
func (q QualityScores) Mean() float64 {
	present := q.Present()
	if len(present) == 0 {
		return 0
	}

	var sum float64
	for _, s := range present {
		sum += s
	}
	return sum / float64(len(present))
}

// Analysis is the structured result of one analysis pass over a record.
type Analysis struct {
	Summary              string        `json:"summary"`
	DifficultyLevel      string        `json:"difficulty_level"`
	QualityScores        QualityScores `json:"quality_scores"`
	AWSServices          []string      `json:"aws_services"`
	Topics               []string      `json:"topics"`
	Categories           []string      `json:"categories"`
	KeyTakeaways         []string      `json:"key_takeaways"`
	TargetAudience       string        `json:"target_audience"`
	EstimatedReadingTime int           `json:"estimated_reading_time"`

	// OverallQualityScore is computed by the analyzer, never parsed from
	// the model response.
	OverallQualityScore float64 `json:"overall_quality_score"`
}
