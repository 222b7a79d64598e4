// Package httphandlers serves the player page to a browser and relays
// script evaluation and page navigations over a websocket.
package httphandlers

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"ytplayer.app/ytplayer/player"
)

//go:embed bridge.js
var bridgeJS string

const (
	// NavigationRate and NavigationBurst bound the navigations accepted
	// from a single page connection.
	NavigationRate  = 50
	NavigationBurst = 100

	bridgeTag    = `<script src="/bridge.js"></script>`
	writeTimeout = 10 * time.Second
	readLimit    = 64 << 10
)

// ErrPageScript is returned when the page reports a script error.
var ErrPageScript = errors.New("page script error")

var (
	_ player.Surface               = (*HTTPserver)(nil)
	_ player.NavigationInterceptor = (*HTTPserver)(nil)
)

// HTTPserver - browser embedding surface for the player.
type HTTPserver struct {
	http     *http.Server
	Mux      *chi.Mux
	upgrader websocket.Upgrader
	addr     string

	mu         sync.Mutex
	page       string
	baseURL    *url.URL
	conns      []*bridgeConn
	connChange chan struct{}
	pending    map[string]chan evalResult
	navHandler func(*url.URL) bool

	Logger      zerolog.Logger
	LogOutput   io.Writer
	initLogOnce sync.Once
}

// wireMessage is the JSON envelope exchanged with the page.
type wireMessage struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	Script string `json:"script,omitempty"`
	URL    string `json:"url,omitempty"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	Allow  *bool  `json:"allow,omitempty"`
}

type evalResult struct {
	out string
	err error
}

type bridgeConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	limiter *rate.Limiter
}

func (c *bridgeConn) send(msg wireMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(msg)
}

// NewServer returns an HTTPserver for address a. Nothing listens until StartServer.
func NewServer(a string) *HTTPserver {
	s := &HTTPserver{
		addr:       a,
		Mux:        chi.NewRouter(),
		connChange: make(chan struct{}),
		pending:    make(map[string]chan evalResult),
	}

	s.Mux.Get("/", s.pageHandler)
	s.Mux.Get("/bridge.js", bridgeScriptHandler)
	s.Mux.Get("/bridge", s.bridgeHandler)
	s.Mux.Get("/healthz", healthHandler)

	s.http = &http.Server{Addr: a, Handler: s.Mux, ReadHeaderTimeout: 10 * time.Second}

	return s
}

// Log returns the zerolog logger, initializing it lazily if LogOutput is set.
func (s *HTTPserver) Log() *zerolog.Logger {
	if s.LogOutput != nil {
		s.initLogOnce.Do(func() {
			s.Logger = zerolog.New(s.LogOutput).With().Timestamp().Str("Component", "httphandlers").Logger()
		})
	}
	return &s.Logger
}

// StartServer listens on the configured address and serves until
// StopServer is called. The listen outcome is reported on serverStarted.
func (s *HTTPserver) StartServer(serverStarted chan<- error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		serverStarted <- fmt.Errorf("server listen error: %w", err)
		return
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	s.Log().Info().Str("Method", "StartServer").Str("Addr", ln.Addr().String()).Msg("listening")
	serverStarted <- nil
	_ = s.http.Serve(ln)
}

// StopServer forcefully closes the HTTP server and every page connection.
func (s *HTTPserver) StopServer() {
	s.http.Close()

	s.mu.Lock()
	conns := append([]*bridgeConn(nil), s.conns...)
	s.mu.Unlock()

	for _, c := range conns {
		c.ws.Close()
	}
}

// URL is the address a browser should open.
func (s *HTTPserver) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "http://" + s.addr + "/"
}

// Connections returns the number of connected pages.
func (s *HTTPserver) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// BaseURL returns the base URL of the current page, nil before the
// first load.
func (s *HTTPserver) BaseURL() *url.URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseURL
}

// LoadHTML replaces the served page and asks connected pages to reload.
func (s *HTTPserver) LoadHTML(ctx context.Context, html string, baseURL *url.URL) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.page = injectBridge(html)
	s.baseURL = baseURL
	conns := append([]*bridgeConn(nil), s.conns...)
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.send(wireMessage{Type: "load"}); err != nil {
			s.Log().Warn().Str("Method", "LoadHTML").Err(err).Msg("reload request failed")
		}
	}

	return nil
}

// Evaluate runs script in the most recently connected page. It waits for
// a page to connect as long as ctx allows.
func (s *HTTPserver) Evaluate(ctx context.Context, script string) (string, error) {
	c, err := s.waitConn(ctx)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	reply := make(chan evalResult, 1)

	s.mu.Lock()
	s.pending[id] = reply
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	if err := c.send(wireMessage{Type: "eval", ID: id, Script: script}); err != nil {
		return "", fmt.Errorf("send eval: %w", err)
	}

	select {
	case res := <-reply:
		return res.out, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// SetNavigationHandler registers the function deciding page navigations.
func (s *HTTPserver) SetNavigationHandler(f func(u *url.URL) bool) {
	s.mu.Lock()
	s.navHandler = f
	s.mu.Unlock()
}

func (s *HTTPserver) waitConn(ctx context.Context) (*bridgeConn, error) {
	for {
		s.mu.Lock()
		var c *bridgeConn
		if n := len(s.conns); n > 0 {
			c = s.conns[n-1]
		}
		changed := s.connChange
		s.mu.Unlock()

		if c != nil {
			return c, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return nil, fmt.Errorf("no page connected: %w", ctx.Err())
		}
	}
}

func (s *HTTPserver) addConn(c *bridgeConn) {
	s.mu.Lock()
	s.conns = append(s.conns, c)
	close(s.connChange)
	s.connChange = make(chan struct{})
	s.mu.Unlock()
}

func (s *HTTPserver) removeConn(c *bridgeConn) {
	s.mu.Lock()
	for i := range s.conns {
		if s.conns[i] == c {
			s.conns = append(s.conns[:i], s.conns[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}

func (s *HTTPserver) pageHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	page := s.page
	s.mu.Unlock()

	if page == "" {
		http.Error(w, "no player loaded", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.WriteString(w, page)
}

func bridgeScriptHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	_, _ = io.WriteString(w, bridgeJS)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "OK\n")
}

func (s *HTTPserver) bridgeHandler(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log().Error().Str("Method", "bridgeHandler").Err(err).Msg("upgrade failed")
		return
	}

	c := &bridgeConn{
		ws:      ws,
		limiter: rate.NewLimiter(rate.Limit(NavigationRate), NavigationBurst),
	}

	s.addConn(c)
	s.Log().Debug().Str("Method", "bridgeHandler").Str("Remote", r.RemoteAddr).Msg("page connected")

	// Navigations run the delegate, which may evaluate scripts in this
	// same page. They are served on their own goroutine so the reader
	// below keeps delivering results.
	navigations := make(chan wireMessage, NavigationBurst)
	go s.serveNavigations(c, navigations)

	defer func() {
		close(navigations)
		s.removeConn(c)
		ws.Close()
		s.Log().Debug().Str("Method", "bridgeHandler").Str("Remote", r.RemoteAddr).Msg("page disconnected")
	}()

	ws.SetReadLimit(readLimit)

	for {
		var msg wireMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.Log().Warn().Str("Method", "bridgeHandler").Err(err).Msg("read failed")
			}
			return
		}

		switch msg.Type {
		case "result":
			s.deliverResult(msg)
		case "navigate":
			if !c.limiter.Allow() {
				s.Log().Warn().Str("Method", "bridgeHandler").Str("URL", msg.URL).Msg("navigation dropped, rate exceeded")
				continue
			}

			select {
			case navigations <- msg:
			default:
				s.Log().Warn().Str("Method", "bridgeHandler").Str("URL", msg.URL).Msg("navigation dropped, queue full")
			}
		default:
			s.Log().Warn().Str("Method", "bridgeHandler").Str("Type", msg.Type).Msg("unknown message")
		}
	}
}

func (s *HTTPserver) deliverResult(msg wireMessage) {
	s.mu.Lock()
	reply, ok := s.pending[msg.ID]
	s.mu.Unlock()

	if !ok {
		s.Log().Debug().Str("Method", "deliverResult").Str("ID", msg.ID).Msg("late result dropped")
		return
	}

	res := evalResult{out: msg.Result}
	if msg.Error != "" {
		res.err = fmt.Errorf("%w: %s", ErrPageScript, msg.Error)
	}

	select {
	case reply <- res:
	default:
	}
}

// serveNavigations answers the navigations of one page in arrival order.
func (s *HTTPserver) serveNavigations(c *bridgeConn, navigations <-chan wireMessage) {
	for msg := range navigations {
		s.handleNavigate(c, msg)
	}
}

func (s *HTTPserver) handleNavigate(c *bridgeConn, msg wireMessage) {
	u, err := url.Parse(msg.URL)
	if err != nil {
		s.Log().Warn().Str("Method", "handleNavigate").Str("URL", msg.URL).Err(err).Msg("invalid url")
		return
	}

	s.mu.Lock()
	handler := s.navHandler
	s.mu.Unlock()

	allow := true
	if handler != nil {
		allow = handler(u)
	}

	if err := c.send(wireMessage{Type: "navigate-result", URL: msg.URL, Allow: &allow}); err != nil {
		s.Log().Warn().Str("Method", "handleNavigate").Err(err).Msg("reply failed")
	}
}

func injectBridge(html string) string {
	if i := strings.Index(html, "<head>"); i >= 0 {
		i += len("<head>")
		return html[:i] + bridgeTag + html[i:]
	}
	return bridgeTag + html
}
