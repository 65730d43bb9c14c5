package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"
)

// TestHelperProcess stands in for mpv. It is not a real test.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	if os.Getenv("HELPER_SLEEP") == "1" {
		time.Sleep(time.Minute)
	}
	os.Exit(0)
}

func fakeCommand(sleep bool) commandFunc {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("HELPER_SLEEP=%d", boolToInt(sleep)))
		return cmd
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func newTestPlayer(sleep bool) *Player {
	p := New("mpv", nil)
	p.command = fakeCommand(sleep)
	return p
}

func TestPlayer_Play_empty_url(t *testing.T) {
	p := newTestPlayer(false)
	if err := p.Play(""); !errors.Is(err, ErrNoURL) {
		t.Errorf("expected ErrNoURL, got %v", err)
	}
}

func TestPlayer_Stop(t *testing.T) {
	p := newTestPlayer(true)
	finished := make(chan struct{}, 1)
	p.OnFinish(func() { finished <- struct{}{} })
	p.ToggleAutoplay()

	if err := p.Play("https://youtu.be/9bZkp7q19f0"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if url, ok := p.Playing(); !ok || url != "https://youtu.be/9bZkp7q19f0" {
		t.Errorf("Playing: got %q, %v", url, ok)
	}

	p.Stop()
	if _, ok := p.Playing(); ok {
		t.Error("expected idle after Stop")
	}
	select {
	case <-finished:
		t.Error("Stop must not trigger autoplay")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestPlayer_autoplay_on_finish(t *testing.T) {
	p := newTestPlayer(false)
	finished := make(chan struct{}, 1)
	p.OnFinish(func() { finished <- struct{}{} })

	if !p.ToggleAutoplay() || !p.Autoplay() {
		t.Fatal("autoplay should be on")
	}
	if err := p.Play("https://youtu.be/9bZkp7q19f0"); err != nil {
		t.Fatalf("Play: %v", err)
	}

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("OnFinish not called")
	}
	if _, ok := p.Playing(); ok {
		t.Error("expected idle after track finished")
	}
}

func TestPlayer_no_autoplay_when_disabled(t *testing.T) {
	p := newTestPlayer(false)
	finished := make(chan struct{}, 1)
	p.OnFinish(func() { finished <- struct{}{} })

	if err := p.Play("https://youtu.be/9bZkp7q19f0"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, ok := p.Playing(); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("track never finished")
		}
		time.Sleep(10 * time.Millisecond)
	}
	select {
	case <-finished:
		t.Error("OnFinish called with autoplay off")
	case <-time.After(100 * time.Millisecond):
	}
}
