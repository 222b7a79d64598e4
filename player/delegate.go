package player

import (
	"net/url"
)

// Delegate receives player notifications and authorises page navigations.
// Callbacks run on the surface's navigation goroutine, outside of any
// player lock. They may issue player commands: a surface keeps delivering
// script results while a callback is running.
type Delegate interface {
	// PlayerReady is called when the embedded player fired onReady.
	PlayerReady(p *Player)
	// PlayerStateChanged is called after the stored state was updated.
	PlayerStateChanged(p *Player, state PlayerState)
	// PlayerQualityChanged is called after the stored quality was updated.
	PlayerQualityChanged(p *Player, quality PlaybackQuality)
	// PlayerShouldLoadURL decides whether the surface may follow a navigation.
	PlayerShouldLoadURL(p *Player, u *url.URL) bool
}

// NopDelegate implements Delegate with the default behaviour: notifications
// are ignored and every navigation is allowed. Embed it to implement only
// the callbacks you care about.
type NopDelegate struct{}

func (NopDelegate) PlayerReady(*Player)                           {}
func (NopDelegate) PlayerStateChanged(*Player, PlayerState)       {}
func (NopDelegate) PlayerQualityChanged(*Player, PlaybackQuality) {}
func (NopDelegate) PlayerShouldLoadURL(*Player, *url.URL) bool    { return true }

// DelegateFuncs adapts plain functions to Delegate. Nil fields fall back
// to the NopDelegate behaviour.
type DelegateFuncs struct {
	Ready          func(p *Player)
	StateChanged   func(p *Player, state PlayerState)
	QualityChanged func(p *Player, quality PlaybackQuality)
	ShouldLoadURL  func(p *Player, u *url.URL) bool
}

func (d DelegateFuncs) PlayerReady(p *Player) {
	if d.Ready != nil {
		d.Ready(p)
	}
}

func (d DelegateFuncs) PlayerStateChanged(p *Player, state PlayerState) {
	if d.StateChanged != nil {
		d.StateChanged(p, state)
	}
}

func (d DelegateFuncs) PlayerQualityChanged(p *Player, quality PlaybackQuality) {
	if d.QualityChanged != nil {
		d.QualityChanged(p, quality)
	}
}

func (d DelegateFuncs) PlayerShouldLoadURL(p *Player, u *url.URL) bool {
	if d.ShouldLoadURL != nil {
		return d.ShouldLoadURL(p, u)
	}
	return true
}
