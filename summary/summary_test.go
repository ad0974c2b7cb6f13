package summary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatServer(t *testing.T, status int, reply string, got *chatRequest, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"upstream failed","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   "gpt-oss-120b",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": reply}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSummarize(t *testing.T) {
	var (
		req   chatRequest
		calls atomic.Int32
	)
	srv := chatServer(t, http.StatusOK, "  決定事項: 金曜リリース  ", &req, &calls)
	s := New(Config{BaseURL: srv.URL + "/v1", APIKey: "key"}, nil, nil)

	got := s.Summarize(context.Background(), "[09:31:05] **Alice**: 金曜に出します\n")
	if got != "決定事項: 金曜リリース" {
		t.Errorf("Summarize = %q", got)
	}
	if req.Model != "gpt-oss-120b" {
		t.Errorf("model = %q", req.Model)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[0].Content != systemPrompt {
		t.Fatalf("messages = %+v", req.Messages)
	}
	if req.Messages[1].Content != "[09:31:05] **Alice**: 金曜に出します\n" {
		t.Errorf("user message = %q", req.Messages[1].Content)
	}
}

func TestSummarizeFailureYieldsEmpty(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, http.StatusInternalServerError, "", nil, &calls)
	s := New(Config{BaseURL: srv.URL + "/v1", APIKey: "key", Timeout: 2 * time.Second}, nil, nil)

	if got := s.Summarize(context.Background(), "line\n"); got != "" {
		t.Errorf("Summarize = %q, want empty", got)
	}
	if calls.Load() == 0 {
		t.Error("server was never called")
	}
}

func TestSummarizeSkipsWithoutInputOrKey(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, http.StatusOK, "summary", nil, &calls)

	s := New(Config{BaseURL: srv.URL + "/v1", APIKey: "key"}, nil, nil)
	if got := s.Summarize(context.Background(), "   \n"); got != "" {
		t.Errorf("blank transcript summarized to %q", got)
	}

	s = New(Config{BaseURL: srv.URL + "/v1"}, nil, nil)
	if got := s.Summarize(context.Background(), "line\n"); got != "" {
		t.Errorf("summary without key = %q", got)
	}
	if calls.Load() != 0 {
		t.Errorf("server calls = %d, want 0", calls.Load())
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Enabled: true}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("enabled summary without api key should fail validation")
	}
	if cfg.Model != defaultModel || cfg.Timeout != defaultTimeout {
		t.Errorf("defaults = %q %v", cfg.Model, cfg.Timeout)
	}
}
