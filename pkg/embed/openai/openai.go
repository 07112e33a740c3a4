// Package openai implements the embed.Embedder interface against the OpenAI
// embeddings API or any compatible endpoint.
package openai

import (
	"math"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"

	"github.com/ikbp/dave/backend/pkg/embed"
)

type Client struct {
	embeddingModel string
	timeoutMin     int

	embeddingLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     embed.ModelMetrics

	EmbeddingClient *openai.Client
}

type NewClientParams struct {
	EmbeddingModel string
	BaseURL        string
	ApiKey         string

	TimeoutMin            int
	MaxConcurrentRequests int64
}

func NewClient(params NewClientParams) *Client {
	if params.TimeoutMin <= 0 {
		params.TimeoutMin = 5
	}
	if params.MaxConcurrentRequests <= 0 {
		params.MaxConcurrentRequests = 1
	}
	return &Client{
		embeddingModel:  params.EmbeddingModel,
		timeoutMin:      params.TimeoutMin,
		embeddingLock:   semaphore.NewWeighted(params.MaxConcurrentRequests),
		EmbeddingClient: newOpenaiClient(params.BaseURL, params.ApiKey),
	}
}

func newOpenaiClient(baseURL, apiKey string) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(options...)
	return &client
}

// ResetMetrics clears all accumulated token and timing metrics to zero.
func (c *Client) ResetMetrics() {
	c.metricsLock.Lock()
	c.metrics = embed.ModelMetrics{}
	c.metricsLock.Unlock()
}

// GetMetrics returns the accumulated token usage and timing metrics since
// the last reset.
func (c *Client) GetMetrics() embed.ModelMetrics {
	return c.metrics
}

func (c *Client) modifyMetrics(m embed.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += m.InputTokens
	c.metrics.OutputTokens += m.OutputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs

	if c.metrics.DurationMs > 0 {
		tokensPerSecond := (float64(c.metrics.TotalTokens) * 1000.0) / float64(c.metrics.DurationMs)
		c.metrics.TokenPerSecond = float32(math.Round(tokensPerSecond*100) / 100)
	}
}
