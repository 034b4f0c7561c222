package models

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// SentimentResult is the outcome of scoring one text.
// Score is in [-1, 1]; Confidence is the model's own certainty.
type SentimentResult struct {
	Sentiment  string  `json:"sentiment"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// BatchSentiment aggregates sentiment over a set of entries.
type BatchSentiment struct {
	OverallSentiment  float64            `json:"overall_sentiment"`
	DominantSentiment string             `json:"dominant_sentiment"`
	Distribution      map[string]float64 `json:"score_distribution"`
	EntryCount        int                `json:"entry_count"`
}

// Summary is the outcome of summarizing one or more texts.
type Summary struct {
	Summary        string `json:"summary"`
	OriginalLength int    `json:"original_length"`
	SummaryLength  int    `json:"summary_length"`
}

// TrendReport is a windowed emotional trend assessment for a user.
type TrendReport struct {
	OverallSentiment  float64  `json:"overall_sentiment"`
	DominantSentiment string   `json:"dominant_sentiment"`
	RiskFlags         []string `json:"risk_flags"`
	EntryCount        int      `json:"entry_count"`
	WindowDays        int      `json:"window_days"`
}

// Risk flags raised by trend detection.
const (
	RiskConsistentlyNegative = "consistently_negative"
	RiskConsistentlyPositive = "consistently_positive"
)
