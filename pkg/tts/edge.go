package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const providerEdge = "edge"

// Edge implements Provider for an openai-edge-tts compatible server
// (POST /v1/audio/speech with input/voice/speed, mp3 back).
type Edge struct {
	config *Config
	client *http.Client
	logger *slog.Logger
}

// NewEdge creates an edge-tts provider.
func NewEdge(opts ...Option) (*Edge, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Edge{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: cfg.Logger.With("component", "tts.edge"),
	}, nil
}

// Synthesize converts text to audio, returning the complete buffer.
func (e *Edge) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	payload := map[string]interface{}{
		"input":           text,
		"voice":           e.config.Voice,
		"response_format": e.config.OutputFormat,
		"speed":           e.config.Speed,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerEdge, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.config.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerEdge, fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	if e.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.config.APIKey)
	}

	resp, err := e.doWithRetry(ctx, req, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, e.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerEdge, fmt.Errorf("read response: %w", err))
	}

	e.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", e.config.Voice,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    e.config.OutputFormat,
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Health checks API connectivity with a minimal synthesis request.
func (e *Edge) Health(ctx context.Context) error {
	_, err := e.Synthesize(ctx, "ok")
	return err
}

// Close releases resources.
func (e *Edge) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// doWithRetry performs the request with retry logic.
func (e *Edge) doWithRetry(ctx context.Context, req *http.Request, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.config.RetryDelay * time.Duration(attempt)):
			}

			// Reset body for retry
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err := e.client.Do(req)
		if err != nil {
			lastErr = WrapError(providerEdge, err)
			continue
		}

		// Check if retryable
		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = &APIError{StatusCode: resp.StatusCode, Message: "retryable status", Provider: providerEdge}
			e.logger.Warn("retrying request",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads an error response body.
func (e *Edge) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    string(body),
		Provider:   providerEdge,
	}
}

// Verify Edge implements Provider at compile time.
var _ Provider = (*Edge)(nil)
