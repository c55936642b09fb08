package provider

import (
	"context"
	"errors"

	"github.com/mohammad-safakhou/agentd/config"
	openai_provider "github.com/mohammad-safakhou/agentd/provider/openai"
)

// Message is a single entry in a chat conversation.
type Message = openai_provider.Message

// ToolCall is a structured request from the model to invoke a tool.
type ToolCall = openai_provider.ToolCall

// FunctionCall carries a tool call's name and JSON-encoded arguments.
type FunctionCall = openai_provider.FunctionCall

// Tool is a tool definition advertised to the model.
type Tool = openai_provider.Tool

// ToolFunction describes one callable function to the model.
type ToolFunction = openai_provider.ToolFunction

// ChatRequest is one inference call: model, conversation, tool definitions.
type ChatRequest = openai_provider.ChatRequest

// ChatResult is the terminal outcome of one streamed inference call.
type ChatResult = openai_provider.ChatResult

// Provider is the interface all inference backends must satisfy
type Provider interface {
	// ChatStream issues one streaming chat-completion request. onDelta is
	// invoked for every incremental text fragment, in order, before
	// ChatStream returns.
	ChatStream(ctx context.Context, req ChatRequest, onDelta func(string)) (ChatResult, error)

	// Models lists model identifiers available on the backend.
	Models(ctx context.Context) ([]string, error)

	// Health probes the backend with a short deadline.
	Health(ctx context.Context) error
}

// NewProvider creates an inference client from the first configured provider
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	for _, p := range cfg.Providers {
		if p.Type == "openai" {
			return openai_provider.NewClient(p.BaseURL, p.APIKey, p.Timeout), nil
		}
	}
	return nil, errors.New("no openai-compatible LLM provider configured")
}
