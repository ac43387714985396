// Package llm wraps the model runtime behind a small client. The runtime
// is any OpenAI-compatible endpoint; in development that is Ollama's /v1
// API serving a local model.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/Songmu/retry"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/opsdeck/opsdeck/internal/pkg/metrics"
	"golang.org/x/time/rate"
)

// Config contains model runtime connection settings.
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
	Timeout        time.Duration
	MaxRetries     int
	RetryInterval  time.Duration
	RateLimit      float64
	RateBurst      int
}

// Client calls the model runtime for completions and embeddings.
// All calls share a token-bucket rate limiter so a burst of analyze and
// chat requests cannot overload a single-GPU runtime.
type Client struct {
	api           openai.Client
	model         string
	embedModel    string
	limiter       *rate.Limiter
	maxRetries    uint
	retryInterval time.Duration
}

// New creates a model runtime client.
func New(cfg Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	retryInterval := cfg.RetryInterval
	if retryInterval <= 0 {
		retryInterval = time.Second
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		api:           openai.NewClient(opts...),
		model:         cfg.Model,
		embedModel:    cfg.EmbeddingModel,
		limiter:       rate.NewLimiter(limit, burst),
		maxRetries:    uint(maxRetries),
		retryInterval: retryInterval,
	}
}

// Complete sends a single-turn prompt and returns the generated text.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userPrompt))

	start := time.Now()
	var result string
	err := retry.Retry(c.maxRetries, c.retryInterval, func() error {
		resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Messages: messages,
			Model:    openai.ChatModel(c.model),
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no choices in completion response")
		}
		result = resp.Choices[0].Message.Content
		return nil
	})
	metrics.LLMRequestDuration.WithLabelValues("completion").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestErrors.WithLabelValues("completion").Inc()
		return "", fmt.Errorf("completion: %w", err)
	}

	return result, nil
}

// Embed returns embedding vectors for the given inputs, in input order.
func (c *Client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	var vectors [][]float32
	err := retry.Retry(c.maxRetries, c.retryInterval, func() error {
		resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
			Model: openai.EmbeddingModel(c.embedModel),
		})
		if err != nil {
			return err
		}
		if len(resp.Data) != len(inputs) {
			return fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Data), len(inputs))
		}

		vectors = make([][]float32, len(resp.Data))
		for _, d := range resp.Data {
			vec := make([]float32, len(d.Embedding))
			for i, v := range d.Embedding {
				vec[i] = float32(v)
			}
			vectors[int(d.Index)] = vec
		}
		return nil
	})
	metrics.LLMRequestDuration.WithLabelValues("embedding").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestErrors.WithLabelValues("embedding").Inc()
		return nil, fmt.Errorf("embeddings: %w", err)
	}

	return vectors, nil
}
