package openai_provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/provider"
	"github.com/sashabaranov/go-openai"
)

var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not configured")

// Client implements provider.Provider on top of the OpenAI API.
type Client struct {
	api             *openai.Client
	completionModel string
	embeddingModel  string
	temperature     float32
	maxTokens       int
}

var _ provider.Provider = (*Client)(nil)

// New builds a client from the llm section; embeddingModel may be empty
// when embeddings come from elsewhere.
func New(cfg config.LLMConfig, embeddingModel string) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{
		api:             openai.NewClientWithConfig(oc),
		completionModel: cfg.Model,
		embeddingModel:  embeddingModel,
		temperature:     cfg.Temperature,
		maxTokens:       cfg.MaxTokens,
	}, nil
}

// Complete runs one chat completion. When format is set the model is
// constrained to the given JSON schema.
func (c *Client) Complete(ctx context.Context, messages []provider.Message, format *provider.ResponseSchema) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.completionModel,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	if format != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   format.Name,
				Schema: format.Schema,
				Strict: format.Strict,
			},
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// CreateEmbedding returns one vector per input, in input order.
func (c *Client) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.embeddingModel == "" {
		return nil, errors.New("embedding model not configured")
	}
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
