package player

import (
	"net/url"

	"ytplayer.app/ytplayer/utils"
)

// EventScheme is the URL scheme of event envelopes.
const EventScheme = "ytplayer"

// ShouldLoad is the navigation hook for the surface. Event envelopes are
// decoded and applied first, then the delegate decides whether the
// navigation may proceed. Without a delegate every navigation is allowed.
func (p *Player) ShouldLoad(u *url.URL) bool {
	if u != nil && u.Scheme == EventScheme {
		p.handleEvent(u)
	}

	d := p.Delegate()
	if d == nil {
		return true
	}
	return d.PlayerShouldLoadURL(p, u)
}

func (p *Player) handleEvent(eventURL *url.URL) {
	data, hasData := utils.QueryComponents(eventURL)["data"]

	event, err := ParsePlayerEvent(eventURL.Host)
	if err != nil {
		p.reportDecodeError(&DecodeError{Event: eventURL.Host, Data: data, Err: err})
		return
	}

	p.Log().Debug().Str("Method", "handleEvent").Str("Event", string(event)).Str("Data", data).Msg("event received")

	switch event {
	case IframeAPIReady:
		p.mu.Lock()
		p.ready = true
		p.mu.Unlock()

	case Ready:
		if d := p.Delegate(); d != nil {
			d.PlayerReady(p)
		}

	case StateChange:
		if !hasData {
			p.reportDecodeError(&DecodeError{Event: string(event), Err: ErrMalformedPayload})
			return
		}

		newState, err := ParsePlayerState(data)
		if err != nil {
			p.reportDecodeError(&DecodeError{Event: string(event), Data: data, Err: err})
			return
		}

		p.mu.Lock()
		p.state = newState
		d := p.delegate
		p.mu.Unlock()

		if d != nil {
			d.PlayerStateChanged(p, newState)
		}

	case QualityChange:
		if !hasData {
			p.reportDecodeError(&DecodeError{Event: string(event), Err: ErrMalformedPayload})
			return
		}

		newQuality, err := ParsePlaybackQuality(data)
		if err != nil {
			p.reportDecodeError(&DecodeError{Event: string(event), Data: data, Err: err})
			return
		}

		p.mu.Lock()
		p.quality = newQuality
		d := p.delegate
		p.mu.Unlock()

		if d != nil {
			d.PlayerQualityChanged(p, newQuality)
		}
	}
}

func (p *Player) reportDecodeError(err *DecodeError) {
	p.Log().Warn().Str("Method", "handleEvent").Err(err).Msg("event ignored")

	p.mu.RLock()
	observer := p.onDecodeError
	p.mu.RUnlock()

	if observer != nil {
		observer(err)
	}
}
