package domain

// Parser source tags for RawAction.
const (
	SourceHeuristic = "heuristic"
	SourceModel     = "model"
)

// RawAction is a candidate action produced by a parser, before fusion
// resolves duration and the postprocessor finalizes it.
type RawAction struct {
	Category    string
	Subcategory string
	Description string
	Kind        Kind

	// ExplicitMinutes is a duration stated verbatim in the text.
	// Only the heuristic parser sets it.
	ExplicitMinutes *int

	// EstimatedMinutes is a parser's own estimate when the text carries
	// no explicit duration.
	EstimatedMinutes *int

	Confidence        float64
	AchievementWeight *int
	Source            string
}

// ParseResult is the output of one parser pass over the cleaned text.
type ParseResult struct {
	Actions []RawAction

	// Confidence is the mean of per-action confidences; zero when no
	// actions were found. It gates the model fallback decision.
	Confidence float64

	LatencyMS int64

	// Heuristics names the rules that fired (heuristic parser only).
	Heuristics []string

	// Model call accounting (model parser only).
	ModelName  string
	TokensUsed int

	Errors []string
}

// MeanConfidence computes the aggregate confidence policy used across
// the pipeline: the arithmetic mean of per-action confidences.
func MeanConfidence(actions []RawAction) float64 {
	if len(actions) == 0 {
		return 0
	}
	var sum float64
	for _, a := range actions {
		sum += a.Confidence
	}
	return sum / float64(len(actions))
}
