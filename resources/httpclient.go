package resources

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

const (
	// DefaultRetryMax is how often a failed template fetch is repeated.
	DefaultRetryMax = 3

	fetchTimeout = 15 * time.Second
	retryWaitMin = 100 * time.Millisecond
	retryWaitMax = time.Second
	userAgent    = "ytplayer"
)

// newTemplateClient returns a client for template downloads. Every attempt
// is logged through logger.
func newTemplateClient(retryMax int, logger zerolog.Logger) *http.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = retryMax
	c.RetryWaitMin = retryWaitMin
	c.RetryWaitMax = retryWaitMax
	c.Logger = nil
	c.HTTPClient = &http.Client{Timeout: fetchTimeout}
	c.CheckRetry = retryTemplateFetch

	c.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		req.Header.Set("User-Agent", userAgent)
		logger.Debug().Str("Method", "Template").Str("URL", req.URL.String()).Int("Attempt", attempt).Msg("fetching template")
	}
	c.ResponseLogHook = func(_ retryablehttp.Logger, resp *http.Response) {
		if resp.StatusCode != http.StatusOK {
			logger.Warn().Str("Method", "Template").Str("URL", resp.Request.URL.String()).Int("Status", resp.StatusCode).Msg("template fetch failed")
		}
	}

	return c.StandardClient()
}

// retryTemplateFetch repeats transport failures, server errors and
// throttled requests. Any other status is final: a missing template
// stays missing.
func retryTemplateFetch(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError, nil
}
