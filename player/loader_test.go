package player

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const testTemplate = "<script>var params = %@;</script>"

func decodeLoaded(t *testing.T, html string) map[string]any {
	t.Helper()

	if !strings.HasPrefix(html, "<script>var params = ") || !strings.HasSuffix(html, ";</script>") {
		t.Fatalf("placeholder not substituted: %s", html)
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(html, "<script>var params = "), ";</script>")

	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("loaded parameters are not JSON: %s\n%s", err, raw)
	}
	return out
}

func TestLoadVideoID(t *testing.T) {
	surface := newFakeSurface()
	p := New(surface, stubSource{html: testTemplate})
	p.SetPlayerVar("autoplay", 1)

	if err := p.LoadVideoID(context.Background(), "dQw4w9WgXcQ"); err != nil {
		t.Fatalf("LoadVideoID failed: %s", err)
	}

	if len(surface.html) != 1 {
		t.Fatalf("expected 1 load, got %d", len(surface.html))
	}
	if got := surface.baseURLs[0].String(); got != BaseURL {
		t.Fatalf("base url got: %s, want: %s.", got, BaseURL)
	}

	params := decodeLoaded(t, surface.html[0])
	if params["videoId"] != "dQw4w9WgXcQ" {
		t.Fatalf("videoId got: %v", params["videoId"])
	}

	vars := params["playerVars"].(map[string]any)
	if vars["autoplay"] != float64(1) {
		t.Fatalf("autoplay got: %v", vars["autoplay"])
	}

	last, ok := p.LastParameters()
	if !ok {
		t.Fatalf("LastParameters not recorded")
	}
	if v, _ := last.Get("videoId"); v != "dQw4w9WgXcQ" {
		t.Fatalf("LastParameters videoId got: %v", v)
	}

	// Building parameters must not leak the video id into later loads.
	if _, present := p.Parameters().Get("videoId"); present {
		t.Fatalf("videoId leaked into the player parameters")
	}
}

func TestLoadPlaylistID(t *testing.T) {
	surface := newFakeSurface()
	p := New(surface, stubSource{html: testTemplate})

	if err := p.LoadPlaylistID(context.Background(), "PL123"); err != nil {
		t.Fatalf("LoadPlaylistID failed: %s", err)
	}

	params := decodeLoaded(t, surface.html[0])
	if _, present := params["videoId"]; present {
		t.Fatalf("playlist load must not carry videoId: %v", params)
	}

	vars := params["playerVars"].(map[string]any)
	if vars["listType"] != "playlist" || vars["list"] != "PL123" {
		t.Fatalf("playerVars got: %v", vars)
	}
}

func TestLoadVideoURL(t *testing.T) {
	tt := []struct {
		name    string
		input   string
		wantID  string
		wantErr error
	}{
		{`short link`, `https://youtu.be/abc123`, `abc123`, nil},
		{`watch url`, `https://www.youtube.com/watch?v=xyz&foo=bar`, `xyz`, nil},
		{`no id`, `https://www.youtube.com/feed/trending`, ``, ErrNoVideoID},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			surface := newFakeSurface()
			p := New(surface, stubSource{html: testTemplate})

			err := p.LoadVideoURL(context.Background(), mustParse(tc.input))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("%s: got err: %v, want: %v.", tc.name, err, tc.wantErr)
				}
				if len(surface.html) != 0 {
					t.Fatalf("%s: nothing should be loaded", tc.name)
				}
				return
			}

			if err != nil {
				t.Fatalf("%s: LoadVideoURL failed: %s", tc.name, err)
			}
			if got := decodeLoaded(t, surface.html[0])["videoId"]; got != tc.wantID {
				t.Fatalf("%s: got: %v, want: %s.", tc.name, got, tc.wantID)
			}
		})
	}
}

func TestLoadFailures(t *testing.T) {
	surfaceErr := errors.New("surface gone")

	tt := []struct {
		name    string
		source  TemplateSource
		surface *fakeSurface
		vars    func(p *Player)
		wantErr error
	}{
		{
			name:    `template unreadable`,
			source:  stubSource{err: errStub},
			surface: newFakeSurface(),
			wantErr: ErrTemplate,
		},
		{
			name:    `template without placeholder`,
			source:  stubSource{html: "<html></html>"},
			surface: newFakeSurface(),
			wantErr: ErrTemplate,
		},
		{
			name:    `unserializable playerVars`,
			source:  stubSource{html: testTemplate},
			surface: newFakeSurface(),
			vars:    func(p *Player) { p.SetPlayerVar("bad", func() {}) },
			wantErr: ErrSerialize,
		},
		{
			name:    `surface refuses`,
			source:  stubSource{html: testTemplate},
			surface: &fakeSurface{results: map[string]string{}, loadErr: surfaceErr},
			wantErr: surfaceErr,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			p := New(tc.surface, tc.source)
			if tc.vars != nil {
				tc.vars(p)
			}

			err := p.LoadVideoID(context.Background(), "abc")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("%s: got err: %v, want: %v.", tc.name, err, tc.wantErr)
			}
			if len(tc.surface.html) != 0 {
				t.Fatalf("%s: nothing should be loaded", tc.name)
			}
			if _, ok := p.LastParameters(); ok {
				t.Fatalf("%s: failed load must not be recorded", tc.name)
			}
		})
	}
}

func TestLoadWithoutSurface(t *testing.T) {
	p := New(nil, stubSource{html: testTemplate})
	if err := p.LoadVideoID(context.Background(), "abc"); !errors.Is(err, ErrNoSurface) {
		t.Fatalf("got err: %v, want ErrNoSurface", err)
	}
}

func TestLoadDefaultsToEmbeddedTemplate(t *testing.T) {
	surface := newFakeSurface()
	p := New(surface, nil)

	if err := p.LoadVideoID(context.Background(), "abc"); err != nil {
		t.Fatalf("LoadVideoID failed: %s", err)
	}
	if !strings.Contains(surface.html[0], `"videoId": "abc"`) {
		t.Fatalf("embedded template not filled: %s", surface.html[0])
	}
	if strings.Contains(surface.html[0], "%@") {
		t.Fatalf("placeholder left in page")
	}
}
