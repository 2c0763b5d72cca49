package provider

import (
	"context"
	"encoding/json"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI Client = "openai"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a message in a conversation
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ResponseSchema asks the model to emit JSON matching Schema.
type ResponseSchema struct {
	Name   string
	Schema json.RawMessage
	Strict bool
}

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	Complete(ctx context.Context, messages []Message, format *ResponseSchema) (string, error)
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}
