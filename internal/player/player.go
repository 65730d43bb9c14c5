// Package player plays the current selection's audio on the host through an
// external mpv process.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	"jukebox/internal/platform/logger"
)

// DefaultBinary is the player executable looked up on PATH.
const DefaultBinary = "mpv"

// ErrNoURL is returned by Play when given an empty URL.
var ErrNoURL = errors.New("player: empty url")

type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Player runs at most one mpv process at a time. mpv resolves YouTube links
// itself through its yt-dlp hook, so the watch URL is passed straight through.
type Player struct {
	binary  string
	log     *slog.Logger
	command commandFunc

	mu       sync.Mutex
	cancel   context.CancelFunc
	playing  string
	gen      uint64
	autoplay bool
	onFinish func()
}

// New returns a Player using binary (DefaultBinary when empty).
func New(binary string, log *slog.Logger) *Player {
	if binary == "" {
		binary = DefaultBinary
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Player{binary: binary, log: log, command: exec.CommandContext}
}

// Available reports whether the player binary can be found on PATH.
func (p *Player) Available() bool {
	_, err := exec.LookPath(p.binary)
	return err == nil
}

// OnFinish sets fn to run when a track ends on its own while autoplay is on.
// fn runs on its own goroutine.
func (p *Player) OnFinish(fn func()) {
	p.mu.Lock()
	p.onFinish = fn
	p.mu.Unlock()
}

// Play stops whatever is playing and starts url.
func (p *Player) Play(url string) error {
	if url == "" {
		return ErrNoURL
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	cmd := p.command(ctx, p.binary, "--no-video", "--really-quiet", url)
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start %s: %w", p.binary, err)
	}

	p.gen++
	p.cancel = cancel
	p.playing = url
	p.log.Info("playback started", slog.String("url", url), slog.Int("pid", cmd.Process.Pid))

	go p.wait(cmd, p.gen)
	return nil
}

func (p *Player) wait(cmd *exec.Cmd, gen uint64) {
	err := cmd.Wait()

	p.mu.Lock()
	if p.gen != gen {
		// Stopped or replaced; whoever did that owns the state now.
		p.mu.Unlock()
		return
	}
	url := p.playing
	p.cancel()
	p.cancel = nil
	p.playing = ""
	next := p.onFinish
	if !p.autoplay {
		next = nil
	}
	p.mu.Unlock()

	if err != nil {
		p.log.Warn("playback exited with error", slog.String("url", url), slog.String("error", err.Error()))
	} else {
		p.log.Info("playback finished", slog.String("url", url))
	}
	if next != nil {
		go next()
	}
}

// Stop ends the current track without triggering autoplay.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.gen++
	p.cancel()
	p.cancel = nil
	p.log.Info("playback stopped", slog.String("url", p.playing))
	p.playing = ""
}

// Playing returns the URL being played, ok=false when idle.
func (p *Player) Playing() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing, p.playing != ""
}

// Autoplay reports whether finished tracks advance the queue.
func (p *Player) Autoplay() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.autoplay
}

// ToggleAutoplay flips autoplay and returns the new value.
func (p *Player) ToggleAutoplay() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.autoplay = !p.autoplay
	p.log.Info("autoplay toggled", slog.Bool("enabled", p.autoplay))
	return p.autoplay
}
