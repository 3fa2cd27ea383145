package inference

import (
	"context"
	"os"
	"testing"
	"time"
)

// Integration tests require a live OpenAI-compatible server. Set
// BNUUY_INFERENCE_URL and BNUUY_MODEL to run them.
func liveClient(t *testing.T) *Client {
	t.Helper()
	url := os.Getenv("BNUUY_INFERENCE_URL")
	model := os.Getenv("BNUUY_MODEL")
	if url == "" || model == "" {
		t.Skip("BNUUY_INFERENCE_URL and BNUUY_MODEL not set")
	}
	client, err := NewClient(
		WithBaseURL(url),
		WithModel(model),
		WithAPIKey(os.Getenv("BNUUY_INFERENCE_KEY")),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestLiveChat(t *testing.T) {
	client := liveClient(t)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	resp, err := client.Chat(ctx, &ChatRequest{
		Messages: []Message{NewUserMessage("Reply with the single word: pong")},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message.Content == "" {
		t.Error("empty completion from live server")
	}
	t.Logf("completion in %dms: %q", resp.LatencyMs, resp.Message.Content)
}

func TestLiveStream(t *testing.T) {
	client := liveClient(t)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	stream, err := client.Stream(ctx, &ChatRequest{
		Messages: []Message{NewUserMessage("Count from 1 to 5.")},
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	var chunks int
	for {
		chunk, err := stream.Recv()
		if err != nil {
			t.Fatalf("Recv after %d chunks: %v", chunks, err)
		}
		if chunk.Done {
			break
		}
		chunks++
	}
	if chunks == 0 {
		t.Error("stream finished without content")
	}
}
