package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client is an abstraction over LLM text-generation providers
type Client interface {
	// GenerateContent generates text content using the specified model tier
	GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GetModel returns the underlying provider model for a tier (for direct access if needed)
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// Embedder produces fixed-length embedding vectors for text. Dimensions returns
// the vector length every call yields; the chunk store relies on it being constant.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return NewGeminiClient(ctx, config, apiKey)
	}
}

// GeminiClient implements Client and Embedder for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// GenerateContent generates text content using the specified model tier.
// Transient API failures are retried with exponential backoff before the call
// surfaces a GenerationError.
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", &GenerationError{Model: string(tier), Message: "no model configured for tier"}
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(0.7)

	var resp *genai.GenerateContentResponse
	err := c.withRetry(ctx, func(callCtx context.Context) error {
		var callErr error
		resp, callErr = model.GenerateContent(callCtx, genai.Text(prompt))
		return callErr
	})
	if err != nil {
		return "", &GenerationError{Model: modelName, Message: "content generation failed", Cause: err}
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", &GenerationError{Model: modelName, Message: "malformed response", Cause: err}
	}
	return text, nil
}

// EmbedText generates an embedding vector for a single text
func (c *GeminiClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	em := c.client.EmbeddingModel(c.config.EmbedModel)

	var resp *genai.EmbedContentResponse
	err := c.withRetry(ctx, func(callCtx context.Context) error {
		var callErr error
		resp, callErr = em.EmbedContent(callCtx, genai.Text(text))
		return callErr
	})
	if err != nil {
		return nil, &EmbeddingError{Model: c.config.EmbedModel, Message: "embed call failed", Cause: err}
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, &EmbeddingError{Model: c.config.EmbedModel, Message: "empty embedding in response"}
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch generates embedding vectors for multiple texts in one API call
func (c *GeminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	em := c.client.EmbeddingModel(c.config.EmbedModel)
	batch := em.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	var resp *genai.BatchEmbedContentsResponse
	err := c.withRetry(ctx, func(callCtx context.Context) error {
		var callErr error
		resp, callErr = em.BatchEmbedContents(callCtx, batch)
		return callErr
	})
	if err != nil {
		return nil, &EmbeddingError{Model: c.config.EmbedModel, Message: "batch embed call failed", Cause: err}
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, &EmbeddingError{
			Model:   c.config.EmbedModel,
			Message: fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)),
		}
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, &EmbeddingError{Model: c.config.EmbedModel, Message: fmt.Sprintf("empty embedding at index %d", i)}
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// Dimensions returns the configured embedding vector length
func (c *GeminiClient) Dimensions() int {
	return c.config.EmbedDim
}

// GetModel returns the model name for a tier
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// withRetry runs fn with a per-attempt timeout, retrying transient failures
// with exponential backoff up to the configured attempt budget.
func (c *GeminiClient) withRetry(ctx context.Context, fn func(context.Context) error) error {
	backoff := time.Second
	attempts := c.config.MaxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.config.CallTimeout)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsTransient(err) || attempt == attempts {
			return lastErr
		}

		log.Printf("[LLM] transient error (attempt %d/%d), retrying in %v: %v", attempt, attempts, backoff, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return lastErr
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
