// internal/llm/openai/openai_test.go
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/llm"
)

func TestProvider_ImplementsInterface(t *testing.T) {
	var _ llm.Provider = (*Provider)(nil)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("", "model", "")
	if !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected ErrConfigMissing for empty API key, got %v", err)
	}
}

func TestNew_DefaultModel(t *testing.T) {
	p, err := New("test-key", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.model != defaultModel {
		t.Errorf("expected default model %s, got %s", defaultModel, p.model)
	}
}

type chatBody struct {
	Model          string `json:"model"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestProvider_Chat(t *testing.T) {
	var got chatBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-test",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"action\":\"final\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 9, "completion_tokens": 4, "total_tokens": 13}
		}`))
	}))
	defer srv.Close()

	p, err := New("test-key", "gpt-test", srv.URL+"/v1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		SystemPrompt: "system",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "go"},
			{Role: llm.RoleAssistant, Content: "{}"},
		},
		JSONMode: true,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != `{"action":"final"}` || resp.FinishReason != "stop" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Usage.InputTokens != 9 || resp.Usage.OutputTokens != 4 {
		t.Errorf("unexpected usage %+v", resp.Usage)
	}

	if got.Model != "gpt-test" {
		t.Errorf("expected model gpt-test, got %s", got.Model)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Errorf("expected json_object response format")
	}
	if len(got.Messages) != 3 || got.Messages[0].Role != "system" || got.Messages[2].Role != "assistant" {
		t.Errorf("unexpected messages %+v", got.Messages)
	}
}

func TestProvider_ChatError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	p, err := New("test-key", "", srv.URL+"/v1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = p.Chat(context.Background(), llm.ChatRequest{Messages: []llm.Message{{Role: llm.RoleUser, Content: "go"}}})
	if !errors.Is(err, core.ErrLLMFailed) {
		t.Errorf("expected ErrLLMFailed, got %v", err)
	}
}
