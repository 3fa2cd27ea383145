// BnuuyBot - conversational AI VTuber pipeline.
// Listens over a transcription websocket, streams completions from an
// OpenAI-compatible server, and speaks the replies back.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/LumiBunny/BnuuyBotApp/pkg/bunny"
)

func main() {
	// Missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := parseFlags()

	app, err := bunny.New(cfg)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	if err := app.Init(); err != nil {
		log.Fatalf("initialization failed: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("runtime error: %v", err)
	}
}

// parseFlags parses command line flags and returns configuration.
// Environment overrides are applied later by bunny.New.
func parseFlags() bunny.Config {
	cfg := bunny.DefaultConfig()

	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	inferenceURL := flag.String("inference-url", cfg.InferenceURL, "OpenAI-compatible completion server base URL")
	model := flag.String("model", cfg.Model, "Chat completion model name")
	ttsURL := flag.String("tts-url", cfg.TTSURL, "Speech synthesis endpoint")
	ttsVoice := flag.String("tts-voice", cfg.TTSVoice, "Synthesis voice")
	sttURL := flag.String("stt-url", cfg.STTURL, "Transcription server websocket URL")
	webPort := flag.String("port", cfg.WebPort, "Web interface listen port")
	userID := flag.String("user", cfg.UserID, "Default user id for memory and profiles")
	promptMin := flag.Duration("prompt-min", cfg.PromptMin, "Minimum quiet time before a self-prompt")
	promptMax := flag.Duration("prompt-max", cfg.PromptMax, "Maximum quiet time before a self-prompt")
	flag.Parse()

	cfg.Debug = *debug
	cfg.InferenceURL = *inferenceURL
	cfg.Model = *model
	cfg.TTSURL = *ttsURL
	cfg.TTSVoice = *ttsVoice
	cfg.STTURL = *sttURL
	cfg.WebPort = *webPort
	cfg.UserID = *userID
	cfg.PromptMin = *promptMin
	cfg.PromptMax = *promptMax
	return cfg
}
