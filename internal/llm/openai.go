package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/diaryd/internal/config"
	"github.com/fyrsmithlabs/diaryd/internal/domain"
)

const defaultBaseBackoff = 500 * time.Millisecond

// openAIParser implements Parser against an OpenAI-compatible chat
// completions endpoint.
type openAIParser struct {
	model       string
	apiKey      string
	baseURL     string
	maxTokens   int
	temperature float64
	budget      time.Duration
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxRetries  int
}

func newOpenAIParser(cfg config.LLMConfig) (Parser, error) {
	if !cfg.APIKey.IsSet() {
		return nil, fmt.Errorf("llm: API key required")
	}
	return &openAIParser{
		model:       cfg.Model,
		apiKey:      cfg.APIKey.Value(),
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		budget:      cfg.Budget.Duration(),
		httpClient: &http.Client{
			Timeout: cfg.Timeout.Duration(),
		},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerMinute/60.0), cfg.Burst),
		maxRetries: cfg.MaxRetries,
	}, nil
}

// chatRequest is the chat completions request body.
type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

// chatResponse is the chat completions response body.
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Parse sends the diary entry to the model and validates the structured
// output. The whole attempt loop runs under a wall-clock budget; when the
// budget or retries are exhausted it returns an empty result wrapped in
// ErrModelUnavailable.
func (o *openAIParser) Parse(ctx context.Context, text string) (domain.ParseResult, error) {
	start := time.Now()

	if o.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.budget)
		defer cancel()
	}

	result := domain.ParseResult{
		Actions:   []domain.RawAction{},
		ModelName: o.model,
	}

	if err := o.limiter.Wait(ctx); err != nil {
		result.LatencyMS = time.Since(start).Milliseconds()
		result.Errors = []string{fmt.Sprintf("rate limiter: %v", err)}
		return result, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	req := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt()},
			{Role: "user", Content: userPrompt(text)},
		},
		MaxTokens:      o.maxTokens,
		Temperature:    o.temperature,
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				result.LatencyMS = time.Since(start).Milliseconds()
				result.Errors = []string{fmt.Sprintf("budget exhausted: %v", ctx.Err())}
				return result, fmt.Errorf("%w: %v", ErrModelUnavailable, ctx.Err())
			}
		}

		actions, tokens, err := o.doRequest(ctx, req)
		if err == nil {
			result.Actions = actions
			result.Confidence = domain.MeanConfidence(actions)
			result.LatencyMS = time.Since(start).Milliseconds()
			result.TokensUsed = tokens
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}

	result.LatencyMS = time.Since(start).Milliseconds()
	result.Errors = []string{fmt.Sprintf("llm parsing failed: %v", lastErr)}
	return result, fmt.Errorf("%w: %v", ErrModelUnavailable, lastErr)
}

// doRequest performs one HTTP round trip and parses the model output.
func (o *openAIParser) doRequest(ctx context.Context, req chatRequest) ([]domain.RawAction, int, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, &retryableError{err: fmt.Errorf("API request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, 0, &retryableError{err: fmt.Errorf("rate limited (429)")}
	}
	if resp.StatusCode >= 500 {
		return nil, 0, &retryableError{err: fmt.Errorf("server error (%d)", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		var errResp apiError
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, 0, fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return nil, 0, fmt.Errorf("API error (%d)", resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, 0, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, 0, fmt.Errorf("empty response from API")
	}

	actions, err := parseActionsJSON(chatResp.Choices[0].Message.Content)
	if err != nil {
		return nil, 0, err
	}
	return actions, chatResp.Usage.TotalTokens, nil
}

// Available returns true if the parser is configured.
func (o *openAIParser) Available() bool {
	return o.apiKey != ""
}

// modelAction is the expected per-action shape in the model output.
type modelAction struct {
	Category          string  `json:"category"`
	Subcategory       *string `json:"subcategory"`
	Action            string  `json:"action"`
	Type              string  `json:"type"`
	EstimatedMinutes  int     `json:"estimated_time_minutes"`
	Confidence        float64 `json:"confidence"`
	AchievementWeight *int    `json:"achievement_weight"`
}

type modelResponse struct {
	Actions []modelAction `json:"actions"`
}

// parseActionsJSON validates and converts model output. Out-of-range
// fields are clamped rather than rejected; actions with an unknown
// category or empty description are dropped.
func parseActionsJSON(content string) ([]domain.RawAction, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var resp modelResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return nil, fmt.Errorf("invalid model response format: %w", err)
	}

	actions := make([]domain.RawAction, 0, len(resp.Actions))
	for _, a := range resp.Actions {
		if a.Action == "" || !domain.ValidCategory(a.Category) {
			continue
		}

		kind := domain.KindActivity
		if a.Type == string(domain.KindAchievement) {
			kind = domain.KindAchievement
		}

		var weight *int
		if kind == domain.KindAchievement && a.AchievementWeight != nil {
			w := domain.ClampWeight(*a.AchievementWeight)
			weight = &w
		}

		var subcategory string
		if a.Subcategory != nil {
			subcategory = *a.Subcategory
		}

		minutes := a.EstimatedMinutes
		var estimated *int
		if minutes > 0 {
			estimated = &minutes
		}

		actions = append(actions, domain.RawAction{
			Category:          a.Category,
			Subcategory:       subcategory,
			Description:       a.Action,
			Kind:              kind,
			EstimatedMinutes:  estimated,
			Confidence:        domain.ClampConfidence(a.Confidence),
			AchievementWeight: weight,
			Source:            domain.SourceModel,
		})
	}
	return actions, nil
}

// retryableError wraps an error to indicate it can be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryableError checks if an error should be retried.
func isRetryableError(err error) bool {
	for e := err; e != nil; {
		if _, ok := e.(*retryableError); ok {
			return true
		}
		if unwrapper, ok := e.(interface{ Unwrap() error }); ok {
			e = unwrapper.Unwrap()
		} else {
			break
		}
	}
	return false
}

var _ Parser = (*openAIParser)(nil)
