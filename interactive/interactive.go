// Package interactive is a terminal remote control for the player.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gdamore/tcell/v2/encoding"
	"github.com/mattn/go-runewidth"

	"ytplayer.app/ytplayer/player"
)

const (
	waitingMsg = "Waiting for status..."

	// SeekStep is how far the arrow keys seek.
	SeekStep = 10 * time.Second
)

// Controller is the part of player.Player the terminal drives.
type Controller interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	NextVideo(ctx context.Context) error
	PreviousVideo(ctx context.Context) error
	SeekTo(ctx context.Context, seconds float64, seekAhead bool) error
	CurrentTimeSeconds(ctx context.Context) (float64, error)
	State() player.PlayerState
}

// Action is a user request issued from the keyboard.
type Action int

const (
	ActionNone Action = iota
	ActionPlayPause
	ActionPlay
	ActionPause
	ActionStop
	ActionNext
	ActionPrevious
	ActionSeekForward
	ActionSeekBackward
	ActionQuit
)

// NewScreen is a tcell screen showing the player state. It implements
// player.Delegate.
type NewScreen struct {
	player.NopDelegate

	Current    tcell.Screen
	videoTitle string

	mu         sync.Mutex
	lastAction string
	quality    player.PlaybackQuality
}

func (p *NewScreen) emitStr(x, y int, style tcell.Style, str string) {
	s := p.Current
	for _, c := range str {
		var comb []rune
		w := runewidth.RuneWidth(c)
		if w == 0 {
			comb = []rune{c}
			c = ' '
			w = 1
		}
		s.SetContent(x, y, c, comb, style)
		x += w
	}
}

// EmitMsg - Display the status line in the interactive terminal.
func (p *NewScreen) EmitMsg(inputtext string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastAction = inputtext
	s := p.Current
	title := "Title: " + p.videoTitle
	w, h := s.Size()
	boldStyle := tcell.StyleDefault.
		Background(tcell.ColorBlack).
		Foreground(tcell.ColorWhite).Bold(true)
	blinkStyle := tcell.StyleDefault.
		Background(tcell.ColorBlack).
		Foreground(tcell.ColorWhite).Blink(true)

	s.Clear()

	p.emitStr(centerX(w, title), h/2-2, tcell.StyleDefault, title)
	style := boldStyle
	if inputtext == waitingMsg {
		style = blinkStyle
	}
	p.emitStr(centerX(w, inputtext), h/2, style, inputtext)

	if p.quality != "" {
		q := "Quality: " + string(p.quality)
		p.emitStr(centerX(w, q), h/2+1, tcell.StyleDefault, q)
	}

	p.emitStr(1, 1, tcell.StyleDefault, "Press ESC / q to exit.")
	for i, line := range helpLines {
		p.emitStr(centerX(w, line), h/2+3+i, tcell.StyleDefault, line)
	}

	s.Show()
}

// centerX is the column where str starts when centred on a w cells wide line.
func centerX(w int, str string) int {
	return w/2 - runewidth.StringWidth(str)/2
}

var helpLines = []string{
	"Press p to Pause/Play.",
	"Press s to Stop.",
	"Press n / b for Next / Previous.",
	"Press <- / -> to seek.",
}

// LastMsg returns the status line currently shown.
func (p *NewScreen) LastMsg() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastAction
}

// PlayerReady shows that the page is ready for commands.
func (p *NewScreen) PlayerReady(*player.Player) {
	p.EmitMsg("Ready")
}

// PlayerStateChanged shows the new state.
func (p *NewScreen) PlayerStateChanged(_ *player.Player, state player.PlayerState) {
	p.EmitMsg(state.String())
}

// PlayerQualityChanged shows the new playback quality.
func (p *NewScreen) PlayerQualityChanged(_ *player.Player, quality player.PlaybackQuality) {
	p.mu.Lock()
	p.quality = quality
	last := p.lastAction
	p.mu.Unlock()

	p.EmitMsg(last)
}

// InterInit - Start the interactive terminal. It returns when the user
// quits or ctx is done, with the terminal released.
func (p *NewScreen) InterInit(ctx context.Context, ctrl Controller, videoTitle string) error {
	p.videoTitle = videoTitle

	encoding.Register()
	s := p.Current
	if err := s.Init(); err != nil {
		return fmt.Errorf("interactive screen init: %w", err)
	}
	defer s.Fini()

	go func() {
		<-ctx.Done()
		s.Fini()
	}()

	defStyle := tcell.StyleDefault.
		Background(tcell.ColorBlack).
		Foreground(tcell.ColorWhite)
	s.SetStyle(defStyle)

	p.EmitMsg(waitingMsg)

	for {
		switch ev := s.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			s.Sync()
			p.EmitMsg(p.LastMsg())
		case *tcell.EventKey:
			action := keyAction(ev)
			if err := runAction(ctx, ctrl, action); err != nil {
				p.EmitMsg("Error: " + err.Error())
			}
			if action == ActionQuit {
				return nil
			}
		}
	}
}

// Fini releases the terminal.
func (p *NewScreen) Fini() {
	p.Current.Fini()
}

func keyAction(ev *tcell.EventKey) Action {
	switch ev.Key() {
	case tcell.KeyEscape:
		return ActionQuit
	case tcell.KeyRight:
		return ActionSeekForward
	case tcell.KeyLeft:
		return ActionSeekBackward
	case tcell.KeyRune:
	default:
		return ActionNone
	}

	switch ev.Rune() {
	case 'q':
		return ActionQuit
	case 'p', ' ':
		return ActionPlayPause
	case 's':
		return ActionStop
	case 'n':
		return ActionNext
	case 'b':
		return ActionPrevious
	}
	return ActionNone
}

// playPauseActionFromState picks what the play/pause key does.
func playPauseActionFromState(state player.PlayerState) Action {
	switch state {
	case player.Playing, player.Buffering:
		return ActionPause
	}
	return ActionPlay
}

func runAction(ctx context.Context, ctrl Controller, action Action) error {
	if action == ActionPlayPause {
		action = playPauseActionFromState(ctrl.State())
	}

	switch action {
	case ActionPlay:
		return ctrl.Play(ctx)
	case ActionPause:
		return ctrl.Pause(ctx)
	case ActionStop, ActionQuit:
		return ctrl.Stop(ctx)
	case ActionNext:
		return ctrl.NextVideo(ctx)
	case ActionPrevious:
		return ctrl.PreviousVideo(ctx)
	case ActionSeekForward, ActionSeekBackward:
		now, err := ctrl.CurrentTimeSeconds(ctx)
		if err != nil {
			return err
		}

		step := SeekStep.Seconds()
		if action == ActionSeekBackward {
			step = -step
		}
		return ctrl.SeekTo(ctx, max(0, now+step), true)
	}

	return nil
}

// InitTcellNewScreen .
func InitTcellNewScreen() (*NewScreen, error) {
	s, e := tcell.NewScreen()
	if e != nil {
		return nil, errors.New("can't start new interactive screen")
	}
	return &NewScreen{
		Current: s,
	}, nil
}
