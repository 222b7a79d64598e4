package player

import (
	"context"
	"errors"
	"net/url"
	"sync"
)

type fakeSurface struct {
	mu       sync.Mutex
	html     []string
	baseURLs []*url.URL
	scripts  []string
	results  map[string]string
	evalErr  error
	loadErr  error
	handler  func(*url.URL) bool
	block    bool
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{results: make(map[string]string)}
}

func (s *fakeSurface) LoadHTML(_ context.Context, html string, baseURL *url.URL) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return s.loadErr
	}
	s.html = append(s.html, html)
	s.baseURLs = append(s.baseURLs, baseURL)
	return nil
}

func (s *fakeSurface) Evaluate(ctx context.Context, script string) (string, error) {
	s.mu.Lock()
	s.scripts = append(s.scripts, script)
	block, evalErr, out := s.block, s.evalErr, s.results[script]
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if evalErr != nil {
		return "", evalErr
	}
	return out, nil
}

func (s *fakeSurface) SetNavigationHandler(f func(*url.URL) bool) {
	s.handler = f
}

func (s *fakeSurface) lastScripts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.scripts...)
}

type stubSource struct {
	html string
	err  error
}

func (s stubSource) Template(context.Context) (string, error) {
	return s.html, s.err
}

var errStub = errors.New("stub failure")

type recordingDelegate struct {
	NopDelegate
	ready     int
	states    []PlayerState
	qualities []PlaybackQuality
	urls      []*url.URL
	allow     bool
}

func (d *recordingDelegate) PlayerReady(*Player) {
	d.ready++
}

func (d *recordingDelegate) PlayerStateChanged(_ *Player, state PlayerState) {
	d.states = append(d.states, state)
}

func (d *recordingDelegate) PlayerQualityChanged(_ *Player, quality PlaybackQuality) {
	d.qualities = append(d.qualities, quality)
}

func (d *recordingDelegate) PlayerShouldLoadURL(_ *Player, u *url.URL) bool {
	d.urls = append(d.urls, u)
	return d.allow
}

func mustParse(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}
