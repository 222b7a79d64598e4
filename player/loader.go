package player

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"ytplayer.app/ytplayer/resources"
	"ytplayer.app/ytplayer/utils"
)

const (
	// BaseURL is the origin the player page is loaded under.
	BaseURL = "http://www.youtube.com"

	templatePlaceholder = "%@"
)

var baseURL = &url.URL{Scheme: "http", Host: "www.youtube.com"}

// LoadVideoURL loads the video a YouTube URL points at. Nothing is loaded
// and ErrNoVideoID is returned when the URL carries no video ID.
func (p *Player) LoadVideoURL(ctx context.Context, videoURL *url.URL) error {
	videoID, ok := utils.VideoIDFromURL(videoURL)
	if !ok {
		p.Log().Warn().Str("Method", "LoadVideoURL").Str("URL", fmt.Sprint(videoURL)).Msg("no video id found")
		return fmt.Errorf("LoadVideoURL %s: %w", videoURL, ErrNoVideoID)
	}

	return p.LoadVideoID(ctx, videoID)
}

// LoadVideoID loads a single video.
func (p *Player) LoadVideoID(ctx context.Context, videoID string) error {
	params := p.Parameters()
	params.Set("videoId", videoID)

	return p.loadWithParameters(ctx, params)
}

// LoadPlaylistID loads a playlist. The list variables stay in playerVars
// for subsequent loads.
func (p *Player) LoadPlaylistID(ctx context.Context, playlistID string) error {
	// No videoId necessary when listType = playlist, list = [playlist Id]
	p.mu.Lock()
	p.playerVars.Set("listType", "playlist")
	p.playerVars.Set("list", playlistID)
	p.mu.Unlock()

	return p.loadWithParameters(ctx, p.Parameters())
}

func (p *Player) loadWithParameters(ctx context.Context, params Parameters) error {
	if p.surface == nil {
		p.Log().Error().Str("Method", "loadWithParameters").Err(ErrNoSurface).Msg("")
		return ErrNoSurface
	}

	source := p.source
	if source == nil {
		source = resources.Embedded()
	}

	rawHTML, err := source.Template(ctx)
	if err != nil {
		p.Log().Error().Str("Method", "loadWithParameters").Err(err).Msg("template lookup failed")
		return fmt.Errorf("%w: %w", ErrTemplate, err)
	}

	if !strings.Contains(rawHTML, templatePlaceholder) {
		p.Log().Error().Str("Method", "loadWithParameters").Msg("template has no placeholder")
		return fmt.Errorf("%w: missing %q placeholder", ErrTemplate, templatePlaceholder)
	}

	jsonParameters, err := params.JSON()
	if err != nil {
		p.Log().Error().Str("Method", "loadWithParameters").Err(err).Msg("parameters serialization failed")
		return err
	}

	html := strings.ReplaceAll(rawHTML, templatePlaceholder, jsonParameters)

	p.Log().Debug().Str("Method", "loadWithParameters").RawJSON("Parameters", []byte(jsonParameters)).Msg("loading player")
	base := *baseURL
	if err := p.surface.LoadHTML(ctx, html, &base); err != nil {
		p.Log().Error().Str("Method", "loadWithParameters").Err(err).Msg("surface load failed")
		return fmt.Errorf("loadWithParameters: %w", err)
	}

	p.mu.Lock()
	p.lastParams = params.Clone()
	p.mu.Unlock()

	return nil
}
