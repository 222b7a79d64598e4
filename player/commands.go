package player

import (
	"context"
	"fmt"
	"strconv"

	"github.com/samber/mo"
)

// Evaluate runs "player.<command>;" inside the page and returns the
// string result, if any. The call is bounded by the command timeout.
// The command text is not validated.
func (p *Player) Evaluate(ctx context.Context, command string) (mo.Option[string], error) {
	fullCommand := "player." + command + ";"

	if p.surface == nil {
		return mo.None[string](), fmt.Errorf("%s: %w", fullCommand, ErrNoSurface)
	}

	timeout := p.commandTimeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p.Log().Debug().Str("Method", "Evaluate").Str("Command", fullCommand).Msg("evaluating")
	out, err := p.surface.Evaluate(ctx, fullCommand)
	if err != nil {
		p.Log().Error().Str("Method", "Evaluate").Str("Command", fullCommand).Err(err).Msg("failed")
		return mo.None[string](), fmt.Errorf("%s: %w", fullCommand, err)
	}

	if out == "" {
		return mo.None[string](), nil
	}

	return mo.Some(out), nil
}

// EvaluateAsync is the non-blocking form of Evaluate.
func (p *Player) EvaluateAsync(command string) *mo.Future[mo.Option[string]] {
	return mo.NewFuture(func(resolve func(mo.Option[string]), reject func(error)) {
		out, err := p.Evaluate(context.Background(), command)
		if err != nil {
			reject(err)
			return
		}
		resolve(out)
	})
}

func (p *Player) run(ctx context.Context, command string) error {
	_, err := p.Evaluate(ctx, command)
	return err
}

// Play starts or resumes playback.
func (p *Player) Play(ctx context.Context) error {
	return p.run(ctx, "playVideo()")
}

// Pause pauses playback.
func (p *Player) Pause(ctx context.Context) error {
	return p.run(ctx, "pauseVideo()")
}

// Stop stops playback and cancels loading of the current video.
func (p *Player) Stop(ctx context.Context) error {
	return p.run(ctx, "stopVideo()")
}

// Clear clears the video display.
func (p *Player) Clear(ctx context.Context) error {
	return p.run(ctx, "clearVideo()")
}

// SeekTo seeks to seconds. seekAhead allows the player to request
// unbuffered data from the server.
func (p *Player) SeekTo(ctx context.Context, seconds float64, seekAhead bool) error {
	return p.run(ctx, fmt.Sprintf("seekTo(%s, %t)", strconv.FormatFloat(seconds, 'f', -1, 64), seekAhead))
}

// GetDuration returns the duration of the current video in seconds, as
// reported by the page.
func (p *Player) GetDuration(ctx context.Context) (mo.Option[string], error) {
	return p.Evaluate(ctx, "getDuration()")
}

// GetCurrentTime returns the elapsed time in seconds, as reported by the page.
func (p *Player) GetCurrentTime(ctx context.Context) (mo.Option[string], error) {
	return p.Evaluate(ctx, "getCurrentTime()")
}

// CurrentTimeSeconds is GetCurrentTime parsed as a number. It returns 0
// when the page has no answer.
func (p *Player) CurrentTimeSeconds(ctx context.Context) (float64, error) {
	out, err := p.GetCurrentTime(ctx)
	if err != nil {
		return 0, err
	}

	v, ok := out.Get()
	if !ok {
		return 0, nil
	}

	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("CurrentTimeSeconds parse %q: %w", v, err)
	}
	return secs, nil
}

// PreviousVideo plays the previous playlist entry.
func (p *Player) PreviousVideo(ctx context.Context) error {
	return p.run(ctx, "previousVideo()")
}

// NextVideo plays the next playlist entry.
func (p *Player) NextVideo(ctx context.Context) error {
	return p.run(ctx, "nextVideo()")
}

// PlayVideoAt plays the playlist entry at index (zero based).
func (p *Player) PlayVideoAt(ctx context.Context, index int) error {
	return p.run(ctx, fmt.Sprintf("playVideoAt(%d)", index))
}

// Mute mutes the player.
func (p *Player) Mute(ctx context.Context) error {
	return p.run(ctx, "mute()")
}

// UnMute unmutes the player.
func (p *Player) UnMute(ctx context.Context) error {
	return p.run(ctx, "unMute()")
}

// SetVolume sets the volume, clamped to 0-100.
func (p *Player) SetVolume(ctx context.Context, volume int) error {
	volume = max(0, min(volume, 100))
	return p.run(ctx, fmt.Sprintf("setVolume(%d)", volume))
}
