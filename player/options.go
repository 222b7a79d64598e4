package player

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/go-viper/mapstructure/v2"
)

// Options is a typed view of the most common iframe player variables.
// Nil and empty fields are left out of the generated playerVars so the
// page falls back to the platform defaults.
type Options struct {
	Autoplay       *int   `mapstructure:"autoplay,omitempty"`
	Controls       *int   `mapstructure:"controls,omitempty"`
	PlaysInline    *int   `mapstructure:"playsinline,omitempty"`
	Loop           *int   `mapstructure:"loop,omitempty"`
	Mute           *int   `mapstructure:"mute,omitempty"`
	Rel            *int   `mapstructure:"rel,omitempty"`
	FullScreen     *int   `mapstructure:"fs,omitempty"`
	ModestBranding *int   `mapstructure:"modestbranding,omitempty"`
	CCLoadPolicy   *int   `mapstructure:"cc_load_policy,omitempty"`
	IVLoadPolicy   *int   `mapstructure:"iv_load_policy,omitempty"`
	Start          int    `mapstructure:"start,omitempty"`
	End            int    `mapstructure:"end,omitempty"`
	Origin         string `mapstructure:"origin,omitempty"`
	Language       string `mapstructure:"hl,omitempty"`
}

// Flag returns a pointer to 1 or 0, the encoding the player expects
// for boolean variables.
func Flag(b bool) *int {
	v := 0
	if b {
		v = 1
	}
	return &v
}

// PlayerVars converts o into a Parameters mapping, keys in lexical order.
func (o Options) PlayerVars() (Parameters, error) {
	raw := make(map[string]any)
	if err := mapstructure.Decode(o, &raw); err != nil {
		return Parameters{}, fmt.Errorf("Options.PlayerVars decode error: %w", err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := NewParameters()
	for _, k := range keys {
		v, ok := deref(raw[k])
		if !ok {
			continue
		}
		out.Set(k, v)
	}

	return out, nil
}

// deref unwraps pointer values and drops nil pointers and zero values.
func deref(v any) (any, bool) {
	if v == nil {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		return rv.Elem().Interface(), true
	}

	if rv.IsZero() {
		return nil, false
	}

	return v, true
}
