package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

func completionServer(t *testing.T, content string, status int) (*httptest.Server, *openai.ChatCompletionRequest) {
	t.Helper()
	var got openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}

		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream unavailable","type":"server_error"}}`))
			return
		}

		resp := openai.ChatCompletionResponse{
			ID:    "chatcmpl-123",
			Model: DefaultModel,
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						Role:    openai.ChatMessageRoleAssistant,
						Content: content,
					},
					FinishReason: "stop",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server, &got
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(SuggestRequest{ClinicalNote: "Deep occlusal decay noted", ToothNumber: "30", Surface: "O"})

	for _, want := range []string{
		"Clinical Note: Deep occlusal decay noted\n",
		"Tooth Number: 30\n",
		"Surface: O\n",
		"CDT Code: <code>\nReason: <why this fits>",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	empty := BuildPrompt(SuggestRequest{})
	if !strings.Contains(empty, "Clinical Note: \n") {
		t.Errorf("empty note should be forwarded as-is:\n%s", empty)
	}
}

func TestOpenAISuggester_Suggest(t *testing.T) {
	server, got := completionServer(t, "  CDT Code: D2392\nReason: composite fits\n", http.StatusOK)

	s, err := NewOpenAISuggester(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5 * time.Second}, nil)
	if err != nil {
		t.Fatalf("NewOpenAISuggester failed: %v", err)
	}

	text, err := s.Suggest(context.Background(), SuggestRequest{ClinicalNote: "Deep occlusal decay noted", ToothNumber: "30", Surface: "O"})
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if text != "CDT Code: D2392\nReason: composite fits" {
		t.Errorf("unexpected text: %q", text)
	}

	if got.Model != DefaultModel {
		t.Errorf("expected default model, got %q", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != openai.ChatMessageRoleSystem || got.Messages[0].Content != SystemPrompt {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
	if !strings.Contains(got.Messages[1].Content, "Tooth Number: 30") {
		t.Errorf("unexpected user prompt: %q", got.Messages[1].Content)
	}
}

func TestOpenAISuggester_EndpointFailure(t *testing.T) {
	server, _ := completionServer(t, "", http.StatusInternalServerError)

	s, err := NewOpenAISuggester(Config{APIKey: "test-key", BaseURL: server.URL}, nil)
	if err != nil {
		t.Fatalf("NewOpenAISuggester failed: %v", err)
	}
	if _, err := s.Suggest(context.Background(), SuggestRequest{}); err == nil {
		t.Fatal("expected error from failing endpoint")
	}
}

func TestNewOpenAISuggester_RequiresKey(t *testing.T) {
	if _, err := NewOpenAISuggester(Config{}, nil); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestOpenAISuggester_OneRequestPerCall(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream unavailable","type":"server_error"}}`))
	}))
	defer server.Close()

	s, err := NewOpenAISuggester(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5 * time.Second}, nil)
	if err != nil {
		t.Fatalf("NewOpenAISuggester failed: %v", err)
	}

	const calls = 7
	for i := 0; i < calls; i++ {
		if _, err := s.Suggest(context.Background(), SuggestRequest{ClinicalNote: "pain"}); err == nil {
			t.Fatalf("call %d: expected error from failing endpoint", i)
		}
	}
	if got := hits.Load(); got != calls {
		t.Errorf("expected %d requests to the endpoint, got %d", calls, got)
	}
}
