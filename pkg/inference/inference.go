// Package inference provides a unified interface for chat completion and
// text-embedding inference.
//
// The package abstracts streaming chat completions behind a single Provider
// interface, enabling seamless switching between OpenAI-compatible backends
// (LM Studio, Ollama, vLLM, OpenAI, Together, and others).
//
// Example usage:
//
//	client, _ := inference.NewClient(
//	    inference.WithBaseURL("http://192.168.2.47:1234/v1"),
//	    inference.WithModel("darkidol-llama-3.1-8b-instruct"),
//	)
//	defer client.Close()
//
//	stream, _ := client.Stream(ctx, &inference.ChatRequest{
//	    Messages: []inference.Message{
//	        {Role: inference.RoleUser, Content: "Hello!"},
//	    },
//	})
//	for {
//	    chunk, err := stream.Recv()
//	    if err != nil || chunk.Done {
//	        break
//	    }
//	    fmt.Print(chunk.Delta)
//	}
package inference

import "context"

// Provider is the unified inference interface for chat and embeddings.
// All implementations must satisfy this interface.
type Provider interface {
	// Chat generates a response from a sequence of messages.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Stream generates a streaming response for real-time output.
	Stream(ctx context.Context, req *ChatRequest) (Stream, error)

	// Embed generates vector embeddings for text.
	Embed(ctx context.Context, req *EmbedRequest) (*EmbedResponse, error)

	// Capabilities returns what features this provider supports.
	Capabilities() Capabilities

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Stream is a streaming response for real-time output.
type Stream interface {
	// Recv returns the next chunk.
	Recv() (*StreamChunk, error)

	// Close stops the stream and releases resources.
	Close() error
}

// StreamChunk is a piece of a streaming response.
type StreamChunk struct {
	// Delta is the incremental text content.
	Delta string

	// FinishReason indicates why generation stopped (stop, length).
	FinishReason string

	// Done is true when the stream is complete.
	Done bool
}

// Capabilities describes what features a provider supports.
type Capabilities struct {
	Chat       bool // Supports chat completions
	Streaming  bool // Supports streaming responses
	Embeddings bool // Supports text embeddings
}

// ChatRequest for chat completions.
type ChatRequest struct {
	// Messages is the conversation history.
	Messages []Message

	// Model overrides the default model.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness (0.0-2.0).
	Temperature float64

	// TopP controls nucleus sampling.
	TopP float64

	// Stop sequences that halt generation.
	Stop []string
}

// ChatResponse from chat completion.
type ChatResponse struct {
	// Message is the assistant's response.
	Message Message

	// FinishReason indicates why generation stopped.
	FinishReason string

	// Usage tracks token consumption.
	Usage Usage

	// Model used for generation.
	Model string

	// LatencyMs is the response time in milliseconds.
	LatencyMs int64
}

// EmbedRequest for text embeddings.
type EmbedRequest struct {
	// Input texts to embed.
	Input []string

	// Model overrides the default embedding model.
	Model string
}

// EmbedResponse with vector embeddings.
type EmbedResponse struct {
	// Embeddings are the vector representations.
	Embeddings [][]float32

	// Usage tracks token consumption.
	Usage Usage

	// LatencyMs is the response time in milliseconds.
	LatencyMs int64
}

// Usage tracks token consumption for billing and limits.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
