package player

import (
	"fmt"
)

// PlayerState is the playback state reported by the embedded player.
// The underlying string is the code the page sends on the wire.
type PlayerState string

const (
	Unstarted PlayerState = "-1"
	Ended     PlayerState = "0"
	Playing   PlayerState = "1"
	Paused    PlayerState = "2"
	Buffering PlayerState = "3"
	Queued    PlayerState = "4"
)

// ParsePlayerState maps a wire code to a PlayerState.
func ParsePlayerState(s string) (PlayerState, error) {
	switch st := PlayerState(s); st {
	case Unstarted, Ended, Playing, Paused, Buffering, Queued:
		return st, nil
	}

	return "", fmt.Errorf("%w: unknown player state %q", ErrMalformedPayload, s)
}

// String returns a human-readable label for the state.
func (s PlayerState) String() string {
	switch s {
	case Unstarted:
		return "Unstarted"
	case Ended:
		return "Ended"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	case Buffering:
		return "Buffering"
	case Queued:
		return "Queued"
	default:
		return "Unknown"
	}
}

// PlaybackQuality is the quality level reported by the embedded player.
type PlaybackQuality string

const (
	Small          PlaybackQuality = "small"
	Medium         PlaybackQuality = "medium"
	Large          PlaybackQuality = "large"
	HD720          PlaybackQuality = "hd720"
	HD1080         PlaybackQuality = "hd1080"
	HighResolution PlaybackQuality = "highres"
)

// ParsePlaybackQuality maps a wire token to a PlaybackQuality.
func ParsePlaybackQuality(s string) (PlaybackQuality, error) {
	switch q := PlaybackQuality(s); q {
	case Small, Medium, Large, HD720, HD1080, HighResolution:
		return q, nil
	}

	return "", fmt.Errorf("%w: unknown playback quality %q", ErrMalformedPayload, s)
}

func (q PlaybackQuality) String() string {
	return string(q)
}

// PlayerEvent identifies an event envelope by its host.
type PlayerEvent string

const (
	IframeAPIReady PlayerEvent = "onYouTubeIframeAPIReady"
	Ready          PlayerEvent = "onReady"
	StateChange    PlayerEvent = "onStateChange"
	QualityChange  PlayerEvent = "onPlaybackQualityChange"
)

// ParsePlayerEvent maps an envelope host to a PlayerEvent.
func ParsePlayerEvent(s string) (PlayerEvent, error) {
	switch ev := PlayerEvent(s); ev {
	case IframeAPIReady, Ready, StateChange, QualityChange:
		return ev, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownEvent, s)
}
