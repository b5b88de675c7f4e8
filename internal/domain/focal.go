package domain

// Intent classifies what the researcher is trying to do this turn.
type Intent string

const (
	IntentTestHypothesis   Intent = "test_hypothesis"
	IntentReviewLiterature Intent = "review_literature"
	IntentBuildTheory      Intent = "build_theory"
	IntentExplore          Intent = "explore"
	IntentValidate         Intent = "validate"
	IntentUnclear          Intent = "unclear"
)

func ValidIntent(s string) bool {
	switch Intent(s) {
	case IntentTestHypothesis, IntentReviewLiterature, IntentBuildTheory,
		IntentExplore, IntentValidate, IntentUnclear:
		return true
	}
	return false
}

// NotSpecified is the sentinel for focal-argument fields the orchestrator
// could not determine yet.
const NotSpecified = "not specified"

// FocalArgument is the orchestrator's compact per-turn summary of the
// user's current direction. It is replaced whole on every turn, never
// merged, so intent changes are visible by comparing consecutive values.
type FocalArgument struct {
	Intent      Intent `json:"intent"`
	Subject     string `json:"subject"`
	Population  string `json:"population"`
	Metrics     string `json:"metrics"`
	ArticleType string `json:"article_type"`
}

// NewUnclearFocalArgument is the safe fallback when extraction fails.
func NewUnclearFocalArgument() *FocalArgument {
	return &FocalArgument{
		Intent:      IntentUnclear,
		Subject:     NotSpecified,
		Population:  NotSpecified,
		Metrics:     NotSpecified,
		ArticleType: NotSpecified,
	}
}

// Normalize fills empty fields with the sentinel and downgrades unknown
// intents to unclear.
func (f *FocalArgument) Normalize() {
	if !ValidIntent(string(f.Intent)) {
		f.Intent = IntentUnclear
	}
	if f.Subject == "" {
		f.Subject = NotSpecified
	}
	if f.Population == "" {
		f.Population = NotSpecified
	}
	if f.Metrics == "" {
		f.Metrics = NotSpecified
	}
	if f.ArticleType == "" {
		f.ArticleType = NotSpecified
	}
}

// DirectionChanged reports whether two consecutive focal arguments indicate
// the user changed direction: both known, with differing intents.
func DirectionChanged(prev, next *FocalArgument) bool {
	if prev == nil || next == nil {
		return false
	}
	if prev.Intent == IntentUnclear || next.Intent == IntentUnclear {
		return false
	}
	return prev.Intent != next.Intent
}
