package player

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCommandScripts(t *testing.T) {
	ctx := context.Background()

	tt := []struct {
		name string
		call func(p *Player) error
		want string
	}{
		{`play`, func(p *Player) error { return p.Play(ctx) }, `player.playVideo();`},
		{`pause`, func(p *Player) error { return p.Pause(ctx) }, `player.pauseVideo();`},
		{`stop`, func(p *Player) error { return p.Stop(ctx) }, `player.stopVideo();`},
		{`clear`, func(p *Player) error { return p.Clear(ctx) }, `player.clearVideo();`},
		{`seek`, func(p *Player) error { return p.SeekTo(ctx, 42.5, true) }, `player.seekTo(42.5, true);`},
		{`seek whole`, func(p *Player) error { return p.SeekTo(ctx, 10, false) }, `player.seekTo(10, false);`},
		{`previous`, func(p *Player) error { return p.PreviousVideo(ctx) }, `player.previousVideo();`},
		{`next`, func(p *Player) error { return p.NextVideo(ctx) }, `player.nextVideo();`},
		{`play at`, func(p *Player) error { return p.PlayVideoAt(ctx, 3) }, `player.playVideoAt(3);`},
		{`mute`, func(p *Player) error { return p.Mute(ctx) }, `player.mute();`},
		{`unmute`, func(p *Player) error { return p.UnMute(ctx) }, `player.unMute();`},
		{`volume`, func(p *Player) error { return p.SetVolume(ctx, 55) }, `player.setVolume(55);`},
		{`volume clamped high`, func(p *Player) error { return p.SetVolume(ctx, 250) }, `player.setVolume(100);`},
		{`volume clamped low`, func(p *Player) error { return p.SetVolume(ctx, -4) }, `player.setVolume(0);`},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			surface := newFakeSurface()
			p := New(surface, nil)

			if err := tc.call(p); err != nil {
				t.Fatalf("%s: unexpected error: %s", tc.name, err)
			}

			scripts := surface.lastScripts()
			if len(scripts) != 1 || scripts[0] != tc.want {
				t.Fatalf("%s: got: %v, want: [%s].", tc.name, scripts, tc.want)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	surface := newFakeSurface()
	surface.results["player.getDuration();"] = "212.3"
	p := New(surface, nil)

	out, err := p.Evaluate(context.Background(), "pauseVideo()")
	if err != nil {
		t.Fatalf("Evaluate failed: %s", err)
	}
	if out.IsPresent() {
		t.Fatalf("empty result must be absent, got: %v", out)
	}

	duration, err := p.GetDuration(context.Background())
	if err != nil {
		t.Fatalf("GetDuration failed: %s", err)
	}
	if got := duration.OrElse(""); got != "212.3" {
		t.Fatalf("GetDuration got: %q", got)
	}

	want := []string{"player.pauseVideo();", "player.getDuration();"}
	scripts := surface.lastScripts()
	if len(scripts) != len(want) {
		t.Fatalf("got scripts: %v, want: %v.", scripts, want)
	}
	for i := range want {
		if scripts[i] != want[i] {
			t.Fatalf("script %d got: %s, want: %s.", i, scripts[i], want[i])
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	surface := newFakeSurface()
	surface.evalErr = errStub
	p := New(surface, nil)

	_, err := p.Evaluate(context.Background(), "playVideo()")
	if !errors.Is(err, errStub) {
		t.Fatalf("got err: %v, want errStub", err)
	}
	if !strings.Contains(err.Error(), "player.playVideo();") {
		t.Fatalf("error should name the command: %s", err)
	}

	if _, err := New(nil, nil).Evaluate(context.Background(), "playVideo()"); !errors.Is(err, ErrNoSurface) {
		t.Fatalf("got err: %v, want ErrNoSurface", err)
	}
}

func TestEvaluateTimeout(t *testing.T) {
	surface := newFakeSurface()
	surface.block = true
	p := New(surface, nil, WithCommandTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := p.Evaluate(context.Background(), "getCurrentTime()")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got err: %v, want DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout not applied, took %s", elapsed)
	}
}

func TestEvaluateAsync(t *testing.T) {
	surface := newFakeSurface()
	surface.results["player.getCurrentTime();"] = "7.25"
	p := New(surface, nil)

	out, err := p.EvaluateAsync("getCurrentTime()").Collect()
	if err != nil {
		t.Fatalf("EvaluateAsync failed: %s", err)
	}
	if got := out.OrElse(""); got != "7.25" {
		t.Fatalf("got: %q, want: 7.25.", got)
	}

	surface.evalErr = errStub
	if _, err := p.EvaluateAsync("getCurrentTime()").Collect(); !errors.Is(err, errStub) {
		t.Fatalf("got err: %v, want errStub", err)
	}
}

func TestCurrentTimeSeconds(t *testing.T) {
	surface := newFakeSurface()
	p := New(surface, nil)

	secs, err := p.CurrentTimeSeconds(context.Background())
	if err != nil || secs != 0 {
		t.Fatalf("absent result got: %v, %v", secs, err)
	}

	surface.results["player.getCurrentTime();"] = "93.5"
	secs, err = p.CurrentTimeSeconds(context.Background())
	if err != nil || secs != 93.5 {
		t.Fatalf("got: %v, %v, want: 93.5.", secs, err)
	}

	surface.results["player.getCurrentTime();"] = "undefined"
	if _, err := p.CurrentTimeSeconds(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}
