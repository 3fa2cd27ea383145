package tts

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// CommandSink plays audio by handing it to an external player binary
// (mpv, ffplay, and friends). The audio is written to a temp file and the
// player is invoked with it; Play blocks until the player exits.
type CommandSink struct {
	player string
	args   []string
}

// NewCommandSink creates a sink around a player binary. Extra args are
// passed before the file path. An empty player defaults to mpv with
// no-video quiet flags.
func NewCommandSink(player string, args ...string) *CommandSink {
	if player == "" {
		player = "mpv"
		args = []string{"--no-video", "--really-quiet"}
	}
	return &CommandSink{player: player, args: args}
}

// Play writes the audio to a temp file and runs the player.
func (s *CommandSink) Play(ctx context.Context, audio []byte, format string) error {
	dir, err := os.MkdirTemp("", "bnuuy-audio-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "speech."+format)
	if err := os.WriteFile(path, audio, 0600); err != nil {
		return fmt.Errorf("write audio file: %w", err)
	}

	args := append(append([]string{}, s.args...), path)
	cmd := exec.CommandContext(ctx, s.player, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", s.player, err)
	}
	return nil
}

// NopSink discards audio. Useful when the UI renders responses as text
// only, and in tests.
type NopSink struct{}

func (NopSink) Play(ctx context.Context, audio []byte, format string) error {
	return nil
}

var (
	_ Sink = (*CommandSink)(nil)
	_ Sink = NopSink{}
)
