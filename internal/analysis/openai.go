package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/healinggarden/kokoro/internal/models"
)

// DefaultChatModel is the model used for chat-based analysis when none
// is configured.
const DefaultChatModel = "gpt-4o-mini"

// ErrAPIKeyNotSet is returned when a chat-backed analyzer is constructed
// without an API key.
var ErrAPIKeyNotSet = errors.New("openai api key not set")

// OpenAIAnalyzer scores sentiment through the chat completions API with a
// JSON response contract.
type OpenAIAnalyzer struct {
	client openai.Client
	model  string
}

// NewOpenAIAnalyzer creates a chat-backed sentiment analyzer.
func NewOpenAIAnalyzer(apiKey, model string) (*OpenAIAnalyzer, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if model == "" {
		model = DefaultChatModel
	}
	return &OpenAIAnalyzer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// Analyze asks the model for a sentiment judgment and normalizes it into
// the local result shape.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, text string) (*models.SentimentResult, error) {
	prompt := "Classify the sentiment of the following journal entry. " +
		`Respond with JSON: {"sentiment": "positive"|"negative"|"neutral", ` +
		`"score": number in [-1,1], "confidence": number in [0,1]}.` +
		"\n\nEntry:\n" + text

	completion, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: "json_object"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai sentiment call failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned")
	}

	var result models.SentimentResult
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &result); err != nil {
		return nil, fmt.Errorf("parse sentiment response: %w", err)
	}
	switch result.Sentiment {
	case models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral:
	default:
		result.Sentiment = models.SentimentNeutral
	}
	return &result, nil
}

// OpenAISummarizer condenses text through the chat completions API.
type OpenAISummarizer struct {
	client openai.Client
	model  string
}

// NewOpenAISummarizer creates a chat-backed summarizer.
func NewOpenAISummarizer(apiKey, model string) (*OpenAISummarizer, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if model == "" {
		model = DefaultChatModel
	}
	return &OpenAISummarizer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// Summarize asks the model for a summary of at most maxLen characters.
func (s *OpenAISummarizer) Summarize(ctx context.Context, text string, maxLen int) (string, error) {
	prompt := fmt.Sprintf(
		"Summarize the following journal text in a warm, supportive tone, "+
			"in at most %d characters. Return only the summary.\n\n%s",
		maxLen, text,
	)
	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		return "", fmt.Errorf("openai summarize call failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return completion.Choices[0].Message.Content, nil
}

var (
	_ SentimentAnalyzer = (*OpenAIAnalyzer)(nil)
	_ Summarizer        = (*OpenAISummarizer)(nil)
)
