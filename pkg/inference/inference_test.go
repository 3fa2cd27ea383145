package inference

import (
	"context"
	"errors"
	"testing"
)

func TestMockProvider(t *testing.T) {
	ctx := context.Background()
	mock := NewMock()

	// Test Chat
	resp, err := mock.Chat(ctx, &ChatRequest{
		Messages: []Message{NewUserMessage("Hello")},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Message.Content == "" {
		t.Error("Expected content in response")
	}
	if resp.FinishReason != "stop" {
		t.Errorf("Expected finish_reason 'stop', got %s", resp.FinishReason)
	}

	// Test Embed
	embedResp, err := mock.Embed(ctx, &EmbedRequest{
		Input: []string{"hello", "world"},
	})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(embedResp.Embeddings) != 2 {
		t.Errorf("Expected 2 embeddings, got %d", len(embedResp.Embeddings))
	}

	// Test call tracking
	if mock.CallCount("Chat") != 1 {
		t.Errorf("Expected 1 Chat call, got %d", mock.CallCount("Chat"))
	}
	if mock.CallCount("Embed") != 1 {
		t.Errorf("Expected 1 Embed call, got %d", mock.CallCount("Embed"))
	}

	// Test all calls
	calls := mock.Calls()
	if len(calls) != 2 {
		t.Errorf("Expected 2 calls, got %d", len(calls))
	}

	// Test reset
	mock.Reset()
	if len(mock.Calls()) != 0 {
		t.Error("Expected 0 calls after reset")
	}
}

func TestMockWithError(t *testing.T) {
	ctx := context.Background()
	testErr := errors.New("test error")
	mock := WithError(testErr)

	_, err := mock.Chat(ctx, &ChatRequest{})
	if !errors.Is(err, testErr) {
		t.Errorf("Expected test error, got: %v", err)
	}

	_, err = mock.Embed(ctx, &EmbedRequest{})
	if !errors.Is(err, testErr) {
		t.Errorf("Expected test error, got: %v", err)
	}
}

func TestMockStream(t *testing.T) {
	ctx := context.Background()
	mock := NewMock()
	mock.StreamFunc = func(ctx context.Context, req *ChatRequest) (Stream, error) {
		return &MockStream{Chunks: []string{"Hello", " there", "!"}}, nil
	}

	stream, err := mock.Stream(ctx, &ChatRequest{
		Messages: []Message{NewUserMessage("Hi")},
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	defer stream.Close()

	var got string
	for {
		chunk, err := stream.Recv()
		if err != nil {
			t.Fatalf("Recv failed: %v", err)
		}
		got += chunk.Delta
		if chunk.Done {
			break
		}
	}

	if got != "Hello there!" {
		t.Errorf("Expected 'Hello there!', got %q", got)
	}
}

func TestFunctionalOptions(t *testing.T) {
	cfg := DefaultConfig()

	// Apply options
	cfg.Apply(
		WithBaseURL("http://localhost:11434/v1"),
		WithAPIKey("test-key"),
		WithModel("llama3"),
		WithEmbedModel("nomic-embed-text"),
		WithMaxTokens(512),
		WithTemperature(0.5),
	)

	if cfg.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("Expected Ollama URL, got %s", cfg.BaseURL)
	}
	if cfg.APIKey != "test-key" {
		t.Errorf("Expected test-key, got %s", cfg.APIKey)
	}
	if cfg.Model != "llama3" {
		t.Errorf("Expected llama3, got %s", cfg.Model)
	}
	if cfg.EmbedModel != "nomic-embed-text" {
		t.Errorf("Expected nomic-embed-text, got %s", cfg.EmbedModel)
	}
	if cfg.MaxTokens != 512 {
		t.Errorf("Expected 512, got %d", cfg.MaxTokens)
	}
	if cfg.Temperature != 0.5 {
		t.Errorf("Expected 0.5, got %f", cfg.Temperature)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaseURL != "http://127.0.0.1:1234/v1" {
		t.Errorf("Expected local server URL, got %s", cfg.BaseURL)
	}
	if cfg.MaxTokens != 1024 {
		t.Errorf("Expected 1024, got %d", cfg.MaxTokens)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("Expected 3 retries, got %d", cfg.MaxRetries)
	}
}

func TestAPIError(t *testing.T) {
	// Test rate limit
	err := &APIError{StatusCode: 429, Message: "rate limited", Provider: "test"}
	if !err.IsRateLimit() {
		t.Error("Expected IsRateLimit() to be true")
	}
	if !err.IsRetryable() {
		t.Error("Expected IsRetryable() to be true for 429")
	}

	// Test unauthorized
	err = &APIError{StatusCode: 401, Message: "unauthorized", Provider: "test"}
	if !err.IsAuthError() {
		t.Error("Expected IsAuthError() to be true")
	}
	if err.IsRetryable() {
		t.Error("Expected IsRetryable() to be false for 401")
	}

	// Test server error
	err = &APIError{StatusCode: 500, Message: "server error", Provider: "test"}
	if !err.IsServerError() {
		t.Error("Expected IsServerError() to be true")
	}
	if !err.IsRetryable() {
		t.Error("Expected IsRetryable() to be true for 500")
	}

	// Test error string with code
	err = &APIError{StatusCode: 400, Message: "bad request", Code: "invalid_api_key", Provider: "test"}
	errStr := err.Error()
	if errStr == "" {
		t.Error("Expected non-empty error string")
	}
}

func TestProviderError(t *testing.T) {
	inner := errors.New("connection refused")
	err := WrapError("client", inner)

	if !errors.Is(err, inner) {
		t.Error("Expected wrapped error to match inner")
	}
	if err.Error() == "" {
		t.Error("Expected non-empty error string")
	}
	if WrapError("client", nil) != nil {
		t.Error("Expected nil when wrapping nil")
	}
}

func TestMessageHelpers(t *testing.T) {
	// Test NewSystemMessage
	sys := NewSystemMessage("You are helpful")
	if sys.Role != RoleSystem || sys.Content != "You are helpful" {
		t.Error("NewSystemMessage failed")
	}

	// Test NewUserMessage
	user := NewUserMessage("Hello")
	if user.Role != RoleUser || user.Content != "Hello" {
		t.Error("NewUserMessage failed")
	}

	// Test NewAssistantMessage
	asst := NewAssistantMessage("Hi there")
	if asst.Role != RoleAssistant || asst.Content != "Hi there" {
		t.Error("NewAssistantMessage failed")
	}
}

func TestCapabilities(t *testing.T) {
	mock := NewMock()
	caps := mock.Capabilities()

	if !caps.Chat {
		t.Error("Expected Chat capability")
	}
	if !caps.Streaming {
		t.Error("Expected Streaming capability")
	}
	if !caps.Embeddings {
		t.Error("Expected Embeddings capability")
	}
}

func TestMockLastCall(t *testing.T) {
	mock := NewMock()

	// No calls yet
	if mock.LastCall() != nil {
		t.Error("Expected nil LastCall before any calls")
	}

	// Make a call
	ctx := context.Background()
	mock.Chat(ctx, &ChatRequest{})

	last := mock.LastCall()
	if last == nil {
		t.Fatal("Expected non-nil LastCall after call")
	}
	if last.Method != "Chat" {
		t.Errorf("Expected method 'Chat', got %s", last.Method)
	}
}
