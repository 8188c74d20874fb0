package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/taskchat/taskchat/internal/adapter/openai"
	"github.com/taskchat/taskchat/internal/config"
	"github.com/taskchat/taskchat/internal/domain"
	"github.com/taskchat/taskchat/internal/port/reasoning"
	"github.com/taskchat/taskchat/internal/resilience"
)

// wireMessage mirrors the chat completions message shape for decoding
// captured requests.
type wireMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	ToolCalls []struct {
		ID       string `json:"id"`
		Type     string `json:"type"`
		Function struct {
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		} `json:"function"`
	} `json:"tool_calls"`
	ToolCallID string `json:"tool_call_id"`
}

type wireTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

type wireRequest struct {
	Model      string        `json:"model"`
	Messages   []wireMessage `json:"messages"`
	Tools      []wireTool    `json:"tools"`
	ToolChoice string        `json:"tool_choice"`
}

func TestRouteReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth: %q", auth)
		}

		var req wireRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("expected test-model, got %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected transcript: %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"test-model-2024","choices":[{"message":{"role":"assistant","content":"All done."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client := openai.NewClient("openai", srv.URL, "test-key", "test-model")
	result, err := client.Route(context.Background(), reasoning.Request{
		System:  "You manage tasks.",
		Message: "hi there",
	})
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if result.Reply != "All done." {
		t.Fatalf("expected reply, got %q", result.Reply)
	}
	if result.Model != "test-model-2024" {
		t.Fatalf("expected served model name, got %q", result.Model)
	}
	if len(result.Calls) != 0 {
		t.Fatalf("expected no tool calls, got %d", len(result.Calls))
	}
}

func TestRouteToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"","tool_calls":[
			{"id":"call_abc","type":"function","function":{"name":"add","arguments":"{\"title\":\"milk\"}"}},
			{"type":"function","function":{"name":"list","arguments":""}}
		]},"finish_reason":"tool_calls"}]}`))
	}))
	defer srv.Close()

	client := openai.NewClient("openai", srv.URL, "k", "test-model")
	result, err := client.Route(context.Background(), reasoning.Request{Message: "add milk"})
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}

	if len(result.Calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(result.Calls))
	}
	if result.Calls[0].ID != "call_abc" || result.Calls[0].Name != "add" {
		t.Fatalf("unexpected first call: %+v", result.Calls[0])
	}
	if string(result.Calls[0].Arguments) != `{"title":"milk"}` {
		t.Fatalf("unexpected arguments: %s", result.Calls[0].Arguments)
	}
	// Missing IDs and empty argument strings are normalized.
	if result.Calls[1].ID != "call_1" {
		t.Fatalf("expected synthesized id call_1, got %q", result.Calls[1].ID)
	}
	if string(result.Calls[1].Arguments) != "{}" {
		t.Fatalf("expected empty object arguments, got %s", result.Calls[1].Arguments)
	}
	// Response carried no model field, so the configured one backfills.
	if result.Model != "test-model" {
		t.Fatalf("expected configured model, got %q", result.Model)
	}
}

func TestRouteTranscriptOrdering(t *testing.T) {
	var captured wireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Added it."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client := openai.NewClient("groq", srv.URL, "k", "test-model")
	_, err := client.Route(context.Background(), reasoning.Request{
		System:  "contract",
		History: []reasoning.HistoryMessage{{Role: "user", Content: "earlier"}, {Role: "assistant", Content: "noted"}},
		Message: "add milk",
		Tools: []reasoning.ToolSpec{
			{Name: "add", Description: "Create a task", Parameters: json.RawMessage(`{"type":"object"}`)},
		},
		Rounds: []reasoning.Round{
			{
				Calls:   []reasoning.ProposedCall{{ID: "call_1", Name: "add", Arguments: json.RawMessage(`{"title":"milk"}`)}},
				Results: []reasoning.CallResult{{CallID: "call_1", Name: "add", Content: `{"id":7}`}},
			},
		},
	})
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}

	roles := make([]string, 0, len(captured.Messages))
	for _, m := range captured.Messages {
		roles = append(roles, m.Role)
	}
	want := []string{"system", "user", "assistant", "user", "assistant", "tool"}
	if len(roles) != len(want) {
		t.Fatalf("expected %d messages, got %d (%v)", len(want), len(roles), roles)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("message %d: expected role %s, got %s", i, want[i], roles[i])
		}
	}

	assistant := captured.Messages[4]
	if len(assistant.ToolCalls) != 1 || assistant.ToolCalls[0].ID != "call_1" {
		t.Fatalf("expected echoed tool call, got %+v", assistant.ToolCalls)
	}
	toolMsg := captured.Messages[5]
	if toolMsg.ToolCallID != "call_1" || toolMsg.Content != `{"id":7}` {
		t.Fatalf("unexpected tool result message: %+v", toolMsg)
	}

	if len(captured.Tools) != 1 || captured.Tools[0].Function.Name != "add" {
		t.Fatalf("expected add tool forwarded, got %+v", captured.Tools)
	}
	if captured.ToolChoice != "auto" {
		t.Fatalf("expected tool_choice auto, got %q", captured.ToolChoice)
	}
}

func TestRouteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	client := openai.NewClient("openai", srv.URL, "k", "test-model")
	_, err := client.Route(context.Background(), reasoning.Request{Message: "hi"})
	if err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestRouteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := openai.NewClient("openai", srv.URL, "k", "test-model")
	_, err := client.Route(context.Background(), reasoning.Request{Message: "hi"})
	if err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestRouteUnreachableProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := openai.NewClient("openai", srv.URL, "k", "test-model")
	_, err := client.Route(context.Background(), reasoning.Request{Message: "hi"})
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestRouteContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := openai.NewClient("openai", srv.URL, "k", "test-model")
	_, err := client.Route(ctx, reasoning.Request{Message: "hi"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestRouteBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := openai.NewClient("openai", srv.URL, "k", "test-model")
	client.SetBreaker(resilience.NewBreaker(1, time.Minute))

	if _, err := client.Route(context.Background(), reasoning.Request{Message: "hi"}); err == nil {
		t.Fatal("expected first call to fail")
	}
	_, err := client.Route(context.Background(), reasoning.Request{Message: "hi"})
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", got)
	}
	if client.BreakerState() != "open" {
		t.Fatalf("expected open state, got %s", client.BreakerState())
	}
}

func TestResolve(t *testing.T) {
	cases := []struct {
		name      string
		cfg       config.Reasoning
		wantNil   bool
		wantName  string
		wantModel string
	}{
		{
			name:    "nothing configured",
			cfg:     config.Reasoning{},
			wantNil: true,
		},
		{
			name:      "explicit openai",
			cfg:       config.Reasoning{Provider: "openai", OpenAIAPIKey: "sk-1"},
			wantName:  "openai",
			wantModel: openai.DefaultOpenAIModel,
		},
		{
			name:      "explicit groq",
			cfg:       config.Reasoning{Provider: "Groq", GroqAPIKey: "gsk-1"},
			wantName:  "groq",
			wantModel: openai.DefaultGroqModel,
		},
		{
			name:      "groq key wins over openai key",
			cfg:       config.Reasoning{GroqAPIKey: "gsk-1", OpenAIAPIKey: "sk-1"},
			wantName:  "groq",
			wantModel: openai.DefaultGroqModel,
		},
		{
			name:      "openai key alone",
			cfg:       config.Reasoning{OpenAIAPIKey: "sk-1"},
			wantName:  "openai",
			wantModel: openai.DefaultOpenAIModel,
		},
		{
			name:      "configured model overrides default",
			cfg:       config.Reasoning{Provider: "groq", GroqAPIKey: "gsk-1", Model: "llama-3.3-70b-versatile"},
			wantName:  "groq",
			wantModel: "llama-3.3-70b-versatile",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := openai.Resolve(tc.cfg)
			if tc.wantNil {
				if client != nil {
					t.Fatalf("expected nil client, got %s", client.Name())
				}
				return
			}
			if client == nil {
				t.Fatal("expected a client")
			}
			if client.Name() != tc.wantName {
				t.Errorf("expected provider %s, got %s", tc.wantName, client.Name())
			}
			if client.Model() != tc.wantModel {
				t.Errorf("expected model %s, got %s", tc.wantModel, client.Model())
			}
		})
	}
}
