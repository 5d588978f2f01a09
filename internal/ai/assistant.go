package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/westend/backend/internal/kv"
	"github.com/westend/backend/internal/metrics"
	"github.com/westend/backend/internal/models"
	"github.com/westend/backend/internal/quota"
	"github.com/westend/backend/internal/utils"
)

const (
	DefaultTimeout = 45 * time.Second
	historyTurns   = 3
)

type Client struct {
	BaseURL     string
	Model       string
	APIKey      string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	HTTP        *http.Client

	Budget       quota.Limiter
	Cache        kv.Store
	CacheEnabled bool
	Catalog      VerticalLister
	Company      models.CompanyInfo
	Tokens       *TokenEstimator
	Logger       zerolog.Logger
}

type RateLimitError struct {
	RetryAfter time.Duration
}

func (r RateLimitError) Error() string {
	if r.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", r.RetryAfter)
	}
	return "rate limited"
}

func (c *Client) Available() bool {
	return c != nil && strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.BaseURL) != ""
}

// Complete makes a single attempt at answering message. Remote failures are
// reported through Result.Err with Fallback filled in, never retried.
func (c *Client) Complete(ctx context.Context, message string, history []models.ChatMessage) Result {
	if !c.Available() {
		return Result{Err: ErrNotConfigured, Fallback: FallbackResponse(message, c.company())}
	}

	if c.Budget != nil {
		ok, err := c.Budget.Allow(ctx)
		switch {
		case err != nil:
			c.Logger.Warn().Err(err).Msg("token budget check failed, allowing request")
		case !ok:
			return Result{Err: ErrDailyLimit, Fallback: HighDemandMessage, Model: c.Model}
		}
	}

	cacheKey := "ai_response_" + utils.QuestionHash(message)
	if c.CacheEnabled && c.Cache != nil {
		cached, ok, err := c.Cache.Get(ctx, cacheKey)
		if err != nil {
			c.Logger.Warn().Err(err).Msg("ai response cache read failed")
		}
		metrics.RecordCacheLookup("ai_response", ok)
		if ok {
			return Result{Success: true, Response: cached, Cached: true, Model: c.Model}
		}
	}

	messages := []chatMessage{{Role: "system", Content: c.systemPrompt(ctx)}}
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, chatMessage{Role: "user", Content: message})

	budget := DynamicMaxTokens(message)
	if c.MaxTokens > 0 && budget > c.MaxTokens {
		budget = c.MaxTokens
	}

	start := time.Now()
	answer, tokens, err := c.ask(ctx, messages, budget)
	if err != nil {
		metrics.RecordCompletion(c.Model, "error", time.Since(start))
		c.Logger.Error().Err(err).Str("model", c.Model).Msg("remote completion failed")
		return Result{
			Err:         err,
			Fallback:    FallbackResponse(message, c.company()),
			Model:       c.Model,
			TokenBudget: budget,
		}
	}
	metrics.RecordCompletion(c.Model, "ok", time.Since(start))

	if tokens == 0 {
		tokens = c.Tokens.CountMessages(messages) + c.Tokens.Count(answer)
	}
	metrics.RecordTokens(tokens)
	if c.Budget != nil {
		if _, err := c.Budget.Record(ctx, tokens); err != nil {
			c.Logger.Warn().Err(err).Int("tokens", tokens).Msg("token usage not recorded")
		}
	}

	if c.CacheEnabled && c.Cache != nil {
		if err := c.Cache.Set(ctx, cacheKey, answer, CacheDuration(message)); err != nil {
			c.Logger.Warn().Err(err).Msg("ai response cache write failed")
		}
	}

	return Result{
		Success:     true,
		Response:    answer,
		Model:       c.Model,
		TokensUsed:  tokens,
		TokenBudget: budget,
	}
}

func (c *Client) ask(ctx context.Context, messages []chatMessage, maxTokens int) (string, int, error) {
	payload := struct {
		Model       string        `json:"model"`
		Temperature float64       `json:"temperature"`
		MaxTokens   int           `json:"max_tokens,omitempty"`
		Stream      bool          `json:"stream"`
		Messages    []chatMessage `json:"messages"`
	}{
		Model:       c.Model,
		Temperature: c.Temperature,
		MaxTokens:   maxTokens,
		Messages:    messages,
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return "", 0, err
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.httpClient(ctx).Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", 0, fmt.Errorf("completion request timed out")
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", 0, fmt.Errorf("completion request timed out")
		}
		return "", 0, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", 0, RateLimitError{RetryAfter: retryAfter(resp.Header.Get("Retry-After"), errBody)}
		}
		return "", 0, fmt.Errorf("completion http error: %s: %v", resp.Status, errBody)
	}

	var res struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", 0, fmt.Errorf("decode completion response: %w", err)
	}
	if len(res.Choices) == 0 || strings.TrimSpace(res.Choices[0].Message.Content) == "" {
		return "", 0, fmt.Errorf("empty completion response")
	}
	return res.Choices[0].Message.Content, res.Usage.TotalTokens, nil
}

func (c *Client) httpClient(ctx context.Context) *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < timeout {
			timeout = remaining
		}
	}
	return &http.Client{Timeout: timeout}
}

func (c *Client) company() models.CompanyInfo {
	if c == nil {
		return models.CompanyInfo{}
	}
	return c.Company
}

// historyMessages maps the last few stored turns onto chat roles. System
// messages are dropped.
func historyMessages(history []models.ChatMessage) []chatMessage {
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	out := make([]chatMessage, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case models.RoleUser:
			out = append(out, chatMessage{Role: "user", Content: m.Content})
		case models.RoleBot:
			out = append(out, chatMessage{Role: "assistant", Content: m.Content})
		}
	}
	return out
}

func retryAfter(header string, errBody map[string]any) time.Duration {
	if header != "" {
		if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	errObj, ok := errBody["error"].(map[string]any)
	if !ok {
		return 0
	}
	details, ok := errObj["details"].([]any)
	if !ok {
		return 0
	}
	for _, d := range details {
		m, ok := d.(map[string]any)
		if !ok {
			continue
		}
		if t, ok := m["@type"].(string); ok && strings.Contains(t, "RetryInfo") {
			if s, ok := m["retryDelay"].(string); ok {
				if dur, err := time.ParseDuration(s); err == nil {
					return dur
				}
			}
		}
	}
	return 0
}
