// Package resources provides the HTML template of the player page.
package resources

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"ytplayer.app/ytplayer/utils"
)

//go:embed YTPlayer.html
var playerHTML string

// Source provides the player page template.
type Source interface {
	Template(ctx context.Context) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (string, error)

func (f SourceFunc) Template(ctx context.Context) (string, error) {
	return f(ctx)
}

type embeddedSource struct{}

// Embedded returns the template bundled with the module.
func Embedded() Source {
	return embeddedSource{}
}

func (embeddedSource) Template(context.Context) (string, error) {
	return playerHTML, nil
}

type fileSource struct {
	path string
}

// File returns a Source reading the template from path on every load.
// Templates that are not UTF-8 are converted.
func File(path string) Source {
	return fileSource{path: path}
}

func (f fileSource) Template(context.Context) (string, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("template lookup error: %w", err)
	}

	out, err := utils.ToUTF8(b)
	if err != nil {
		return "", fmt.Errorf("template %s: %w", f.path, err)
	}

	return out, nil
}

type remoteSource struct {
	url    string
	client *http.Client
}

type remoteConfig struct {
	retryMax int
	logger   zerolog.Logger
}

// RemoteOption configures a Remote source.
type RemoteOption func(*remoteConfig)

// WithRetryMax sets how often a failed fetch is repeated.
func WithRetryMax(n int) RemoteOption {
	return func(c *remoteConfig) {
		c.retryMax = max(0, n)
	}
}

// WithLogger logs fetch attempts and failures to l.
func WithLogger(l zerolog.Logger) RemoteOption {
	return func(c *remoteConfig) {
		c.logger = l
	}
}

// Remote returns a Source fetching the template from url over HTTP.
// Transport failures and server errors are retried, other non-200
// answers fail at once.
func Remote(url string, opts ...RemoteOption) Source {
	cfg := remoteConfig{retryMax: DefaultRetryMax, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return remoteSource{url: url, client: newTemplateClient(cfg.retryMax, cfg.logger)}
}

func (r remoteSource) Template(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return "", fmt.Errorf("template request error: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("template fetch error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("template fetch error: bad status %d", resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("template read error: %w", err)
	}

	return utils.ToUTF8(b)
}
