// Package player bridges a host application and the YouTube iframe player
// page running inside an embedding surface. The host loads the page with
// a JSON configuration, drives it with "player.<command>;" scripts and
// learns about state changes from "ytplayer://<event>?data=<payload>"
// navigations the page issues.
package player

import (
	"context"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCommandTimeout bounds a single script evaluation.
const DefaultCommandTimeout = 5 * time.Second

// Surface renders the player page and runs scripts inside it.
type Surface interface {
	LoadHTML(ctx context.Context, html string, baseURL *url.URL) error
	Evaluate(ctx context.Context, script string) (string, error)
}

// NavigationInterceptor is implemented by surfaces that report page
// navigations. New registers Player.ShouldLoad with such surfaces.
type NavigationInterceptor interface {
	SetNavigationHandler(func(u *url.URL) bool)
}

// TemplateSource provides the player page template.
type TemplateSource interface {
	Template(ctx context.Context) (string, error)
}

// Player embeds and controls a YouTube player.
type Player struct {
	mu         sync.RWMutex
	surface    Surface
	source     TemplateSource
	delegate   Delegate
	playerVars Parameters
	lastParams Parameters

	ready   bool
	state   PlayerState
	quality PlaybackQuality

	onDecodeError  func(error)
	commandTimeout time.Duration

	Logger      zerolog.Logger
	LogOutput   io.Writer
	initLogOnce sync.Once
}

// Option configures a Player.
type Option func(*Player)

// WithDelegate sets the delegate.
func WithDelegate(d Delegate) Option {
	return func(p *Player) {
		p.delegate = d
	}
}

// WithErrorObserver registers f to receive event decoding errors.
func WithErrorObserver(f func(error)) Option {
	return func(p *Player) {
		p.onDecodeError = f
	}
}

// WithLogOutput enables logging to w.
func WithLogOutput(w io.Writer) Option {
	return func(p *Player) {
		p.LogOutput = w
	}
}

// WithLogger sets a preconfigured logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Player) {
		p.Logger = l
	}
}

// WithCommandTimeout bounds every script evaluation by d.
func WithCommandTimeout(d time.Duration) Option {
	return func(p *Player) {
		p.commandTimeout = d
	}
}

// WithPlayerVars seeds the playerVars mapping.
func WithPlayerVars(vars Parameters) Option {
	return func(p *Player) {
		p.playerVars = vars.Clone()
	}
}

// New creates a Player rendering into surface with the template from source.
func New(surface Surface, source TemplateSource, opts ...Option) *Player {
	p := &Player{
		surface:        surface,
		source:         source,
		playerVars:     NewParameters(),
		state:          Unstarted,
		quality:        Small,
		commandTimeout: DefaultCommandTimeout,
	}

	for _, opt := range opts {
		opt(p)
	}

	if ni, ok := surface.(NavigationInterceptor); ok {
		ni.SetNavigationHandler(p.ShouldLoad)
	}

	return p
}

// Log returns the zerolog logger, initializing it lazily if LogOutput is set.
func (p *Player) Log() *zerolog.Logger {
	if p.LogOutput != nil {
		p.initLogOnce.Do(func() {
			p.Logger = zerolog.New(p.LogOutput).With().Timestamp().Str("Component", "player").Logger()
		})
	}
	return &p.Logger
}

// Ready reports whether the iframe API finished loading. Once true it stays true.
func (p *Player) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ready
}

// State returns the last state reported by the page.
func (p *Player) State() PlayerState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Quality returns the last playback quality reported by the page.
func (p *Player) Quality() PlaybackQuality {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.quality
}

// Delegate returns the current delegate, nil if none.
func (p *Player) Delegate() Delegate {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.delegate
}

// SetDelegate replaces the delegate. Pass nil to restore the defaults.
func (p *Player) SetDelegate(d Delegate) {
	p.mu.Lock()
	p.delegate = d
	p.mu.Unlock()
}

// PlayerVars returns a copy of the variables passed through to the page.
func (p *Player) PlayerVars() Parameters {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.playerVars.Clone()
}

// SetPlayerVar sets one pass-through variable for the next load.
func (p *Player) SetPlayerVar(key string, value any) {
	p.mu.Lock()
	p.playerVars.Set(key, value)
	p.mu.Unlock()
}

// SetPlayerVars replaces the pass-through variables for the next load.
func (p *Player) SetPlayerVars(vars Parameters) {
	p.mu.Lock()
	p.playerVars = vars.Clone()
	p.mu.Unlock()
}

// Parameters builds the configuration object for the next load from the
// current playerVars.
func (p *Player) Parameters() Parameters {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return buildParameters(p.playerVars)
}

// LastParameters returns the parameters of the most recent successful
// load. ok is false before the first one.
func (p *Player) LastParameters() (params Parameters, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastParams.OrderedMap == nil {
		return Parameters{}, false
	}
	return p.lastParams.Clone(), true
}
