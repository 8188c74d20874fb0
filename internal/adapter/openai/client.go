// Package openai implements the reasoning provider port against any
// OpenAI-compatible chat completions API. Groq exposes the same surface, so
// one client covers both backends; only base URL, key and default model differ.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/taskchat/taskchat/internal/domain"
	"github.com/taskchat/taskchat/internal/port/reasoning"
	"github.com/taskchat/taskchat/internal/resilience"
)

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	name       string
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a provider client. The http.Client carries no timeout of
// its own; callers bound each call through the request context.
func NewClient(name, baseURL, apiKey, model string) *Client {
	return &Client{
		name:       name,
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// Name identifies the backend for logs and metrics.
func (c *Client) Name() string {
	return c.name
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// BreakerState reports the circuit state, "closed" when no breaker is attached.
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "closed"
	}
	return c.breaker.State()
}

// --- chat completions wire format ---

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Tools      []toolDef     `json:"tools,omitempty"`
	ToolChoice string        `json:"tool_choice,omitempty"`
}

type chatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type toolDef struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type toolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function toolCallFunction `json:"function"`
}

type toolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// Route performs one reasoning round against the chat completions API.
func (c *Client) Route(ctx context.Context, req reasoning.Request) (*reasoning.Result, error) {
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	data, err := c.doRequest(ctx, body)
	if err != nil {
		return nil, err
	}

	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("provider %s returned no choices", c.name)
	}

	msg := out.Choices[0].Message
	result := &reasoning.Result{
		Reply: msg.Content,
		Model: out.Model,
	}
	if result.Model == "" {
		result.Model = c.model
	}
	for i, tc := range msg.ToolCalls {
		args := tc.Function.Arguments
		if args == "" {
			args = "{}"
		}
		id := tc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		result.Calls = append(result.Calls, reasoning.ProposedCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(args),
		})
	}
	return result, nil
}

// buildRequest flattens the neutral routing request into the provider's
// message transcript: system, bounded history, the new user message, then
// one assistant/tool exchange per completed round.
func (c *Client) buildRequest(req reasoning.Request) chatRequest {
	msgs := make([]chatMessage, 0, len(req.History)+2)
	if req.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.System})
	}
	for _, h := range req.History {
		msgs = append(msgs, chatMessage{Role: h.Role, Content: h.Content})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: req.Message})

	for _, round := range req.Rounds {
		assistant := chatMessage{Role: "assistant"}
		for _, call := range round.Calls {
			assistant.ToolCalls = append(assistant.ToolCalls, toolCall{
				ID:   call.ID,
				Type: "function",
				Function: toolCallFunction{
					Name:      call.Name,
					Arguments: string(call.Arguments),
				},
			})
		}
		msgs = append(msgs, assistant)
		for _, res := range round.Results {
			msgs = append(msgs, chatMessage{
				Role:       "tool",
				ToolCallID: res.CallID,
				Content:    res.Content,
			})
		}
	}

	out := chatRequest{Model: c.model, Messages: msgs}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, toolDef{
			Type: "function",
			Function: toolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	if len(out.Tools) > 0 {
		out.ToolChoice = "auto"
	}
	return out
}

func (c *Client) doRequest(ctx context.Context, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reach provider %s: %v: %w", c.name, err, domain.ErrProviderUnavailable)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("provider %s API error %d: %s", c.name, resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
