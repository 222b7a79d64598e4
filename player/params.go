package player

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	// DefaultDimension is used for both the height and the width of the player.
	DefaultDimension = "100%"

	// Callback names understood by the player page script.
	onReadyCallback       = "onReady"
	onStateChangeCallback = "onStateChange"
	onQualityCallback     = "onPlaybackQualityChange"
	onPlayerErrorCallback = "onPlayerError"
)

// Parameters is an insertion-ordered JSON object. Nested objects are
// Parameters as well.
type Parameters struct {
	*orderedmap.OrderedMap[string, any]
}

// NewParameters returns an empty Parameters.
func NewParameters() Parameters {
	return Parameters{orderedmap.New[string, any]()}
}

// Clone returns a deep copy; nested Parameters are copied too.
func (p Parameters) Clone() Parameters {
	out := NewParameters()
	if p.OrderedMap == nil {
		return out
	}

	for pair := p.Oldest(); pair != nil; pair = pair.Next() {
		if nested, ok := pair.Value.(Parameters); ok {
			out.Set(pair.Key, nested.Clone())
			continue
		}
		out.Set(pair.Key, pair.Value)
	}

	return out
}

// Keys returns the keys in insertion order.
func (p Parameters) Keys() []string {
	if p.OrderedMap == nil {
		return nil
	}

	keys := make([]string, 0, p.Len())
	for pair := p.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// JSON returns the pretty-printed JSON form of p, without a trailing
// newline. '<', '>' and '&' stay escaped as \u003c, \u003e and \u0026 so
// the result can be placed inside an inline <script>.
func (p Parameters) JSON() (string, error) {
	if p.OrderedMap == nil {
		p = NewParameters()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSerialize, err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// playerCallbacks binds every player event to the callback name the page
// script defines. The names are fixed and do not depend on configuration.
func playerCallbacks() Parameters {
	events := NewParameters()
	events.Set(onReadyCallback, onReadyCallback)
	events.Set(onStateChangeCallback, onStateChangeCallback)
	events.Set(onQualityCallback, onQualityCallback)
	events.Set("onError", onPlayerErrorCallback)
	return events
}

// buildParameters assembles the object handed to the page at load time.
func buildParameters(playerVars Parameters) Parameters {
	params := NewParameters()
	params.Set("height", DefaultDimension)
	params.Set("width", DefaultDimension)
	params.Set("events", playerCallbacks())
	params.Set("playerVars", playerVars.Clone())
	return params
}
