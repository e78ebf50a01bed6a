package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/Champion2005/amicooked-sub000/pkg/logger"
)

// OpenRouterClient talks to OpenRouter through its OpenAI-compatible API.
type OpenRouterClient struct {
	client      *openai.Client
	temperature float32
	maxTokens   int
	logger      logger.Logger
}

// Config for the OpenRouter client
type Config struct {
	APIKey      string
	BaseURL     string  // default: https://openrouter.ai/api/v1
	Temperature float32 // default: 0.7
	MaxTokens   int     // default: 2000
}

// NewOpenRouterClient creates a new OpenRouter client
func NewOpenRouterClient(cfg Config, log logger.Logger) *OpenRouterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2000
	}
	if log == nil {
		log = logger.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &OpenRouterClient{
		client:      openai.NewClientWithConfig(clientCfg),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      log,
	}
}

// Chat sends a chat completion request
func (c *OpenRouterClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("chat request missing model")
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    convertMessages(req.Messages),
		Temperature: c.resolveTemperature(req.Temperature),
		MaxTokens:   c.resolveMaxTokens(req.MaxTokens),
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("chat completion failed", "model", req.Model, "duration", duration, "error", err)
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in completion response")
	}

	c.logger.Debug("chat completion done",
		"model", req.Model,
		"tokens", resp.Usage.TotalTokens,
		"duration", duration)

	return &ChatResponse{
		Message:      resp.Choices[0].Message.Content,
		TokensUsed:   resp.Usage.TotalTokens,
		FinishReason: string(resp.Choices[0].FinishReason),
	}, nil
}

// Complete sends a simple completion request (helper for single prompts)
func (c *OpenRouterClient) Complete(ctx context.Context, model, prompt string, systemPrompt ...string) (string, error) {
	messages := []ChatMessage{}

	if len(systemPrompt) > 0 && systemPrompt[0] != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: systemPrompt[0]})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: prompt})

	resp, err := c.Chat(ctx, ChatRequest{Model: model, Messages: messages})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// StreamChat sends a streaming chat completion request. Chunks arrive on the
// first channel; at most one error on the second.
func (c *OpenRouterClient) StreamChat(ctx context.Context, req ChatRequest) (<-chan string, <-chan error) {
	responseChan := make(chan string, 100)
	errorChan := make(chan error, 1)

	go func() {
		defer close(responseChan)
		defer close(errorChan)

		stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:       req.Model,
			Messages:    convertMessages(req.Messages),
			Temperature: c.resolveTemperature(req.Temperature),
			MaxTokens:   c.resolveMaxTokens(req.MaxTokens),
			Stream:      true,
		})
		if err != nil {
			errorChan <- fmt.Errorf("stream start failed: %w", err)
			return
		}
		defer stream.Close()

		for {
			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errorChan <- fmt.Errorf("stream recv failed: %w", err)
				return
			}
			if len(chunk.Choices) > 0 {
				select {
				case responseChan <- chunk.Choices[0].Delta.Content:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return responseChan, errorChan
}

func (c *OpenRouterClient) resolveTemperature(t float32) float32 {
	if t == 0 {
		return c.temperature
	}
	return t
}

func (c *OpenRouterClient) resolveMaxTokens(n int) int {
	if n == 0 {
		return c.maxTokens
	}
	return n
}

func convertMessages(in []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(in))
	for i, msg := range in {
		out[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return out
}
