package stt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrNotConnected is returned when a control frame cannot be sent.
var ErrNotConnected = errors.New("stt: not connected")

// Event types on the wire.
const (
	eventVADStart = "vad_start"
	eventVADEnd   = "vad_end"
	eventInterim  = "interim"
	eventFinal    = "final"
)

// wireEvent is a server-to-client message.
type wireEvent struct {
	Type       string  `json:"type"`
	Text       string  `json:"text,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// controlFrame is a client-to-server message.
type controlFrame struct {
	Type string `json:"type"`
}

// Client talks to an external transcription server over a websocket.
// The server handles audio capture and VAD; the client only consumes the
// resulting event stream and sends control frames.
type Client struct {
	url    string
	logger *slog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	listening bool
	done      chan struct{}

	// writeMu serializes frame writes; the websocket connection allows
	// only one concurrent writer.
	writeMu sync.Mutex

	onVADStart []func()
	onVADEnd   []func()
	onInterim  []func(string)
	onFinal    []func(string)
}

// NewClient creates a transcription client for the given websocket URL.
func NewClient(url string, logger *slog.Logger) *Client {
	return &Client{
		url:    url,
		logger: logger.With("component", "stt.client"),
	}
}

// OnVoiceActivityStarted registers a VAD-start observer.
func (c *Client) OnVoiceActivityStarted(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onVADStart = append(c.onVADStart, fn)
}

// OnVoiceActivityEnded registers a VAD-end observer.
func (c *Client) OnVoiceActivityEnded(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onVADEnd = append(c.onVADEnd, fn)
}

// OnInterimTranscript registers a partial-result observer.
func (c *Client) OnInterimTranscript(fn func(string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onInterim = append(c.onInterim, fn)
}

// OnFinalTranscript registers a final-result observer.
func (c *Client) OnFinalTranscript(fn func(string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFinal = append(c.onFinal, fn)
}

// Start dials the server and begins dispatching events. Idempotent while
// already listening.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.listening {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("dial stt server %s: %w", c.url, err)
	}

	c.conn = conn
	c.listening = true
	c.done = make(chan struct{})

	c.writeMu.Lock()
	err = conn.WriteJSON(controlFrame{Type: "start"})
	c.writeMu.Unlock()
	if err != nil {
		conn.Close()
		c.conn = nil
		c.listening = false
		return fmt.Errorf("send start frame: %w", err)
	}

	go c.readLoop(conn, c.done)

	c.logger.Info("listening started", "url", c.url)
	return nil
}

// Stop sends the stop frame and closes the connection.
func (c *Client) Stop() error {
	c.mu.Lock()
	if !c.listening {
		c.mu.Unlock()
		return nil
	}
	c.listening = false
	conn := c.conn
	c.conn = nil
	done := c.done
	c.mu.Unlock()

	// Best effort; the close below is what matters
	c.writeMu.Lock()
	_ = conn.WriteJSON(controlFrame{Type: "stop"})
	c.writeMu.Unlock()
	conn.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		c.logger.Warn("stt read loop did not stop in time")
	}

	c.logger.Info("listening stopped")
	return nil
}

// IsListening reports whether the client is connected and dispatching.
func (c *Client) IsListening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listening
}

// NotifyTTSStarted tells the server to suppress recognition while the
// assistant speaks.
func (c *Client) NotifyTTSStarted() {
	c.sendControl("tts_started")
}

// NotifyTTSFinished re-enables recognition.
func (c *Client) NotifyTTSFinished() {
	c.sendControl("tts_finished")
}

func (c *Client) sendControl(kind string) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}
	c.writeMu.Lock()
	err := conn.WriteJSON(controlFrame{Type: kind})
	c.writeMu.Unlock()
	if err != nil {
		c.logger.Warn("control frame failed", "type", kind, "error", err)
	}
}

func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			stillListening := c.listening && c.conn == conn
			c.mu.Unlock()
			if stillListening {
				c.logger.Error("stt connection lost", "error", err)
			}
			return
		}

		var ev wireEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn("malformed stt event", "error", err)
			continue
		}
		c.dispatch(ev)
	}
}

func (c *Client) dispatch(ev wireEvent) {
	c.mu.Lock()
	vadStart := append([]func(){}, c.onVADStart...)
	vadEnd := append([]func(){}, c.onVADEnd...)
	interim := append([]func(string){}, c.onInterim...)
	final := append([]func(string){}, c.onFinal...)
	c.mu.Unlock()

	switch ev.Type {
	case eventVADStart:
		for _, fn := range vadStart {
			fn()
		}
	case eventVADEnd:
		for _, fn := range vadEnd {
			fn()
		}
	case eventInterim:
		for _, fn := range interim {
			fn(ev.Text)
		}
	case eventFinal:
		// Low-confidence recognizers emit empty finals; drop them here
		if strings.TrimSpace(ev.Text) == "" {
			return
		}
		for _, fn := range final {
			fn(ev.Text)
		}
	default:
		c.logger.Debug("unknown stt event", "type", ev.Type)
	}
}

// Verify Client implements Engine at compile time.
var _ Engine = (*Client)(nil)
