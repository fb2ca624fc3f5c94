package http

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"github.com/go-resty/resty/v2"
)

const (
	userAgent    = "Mozilla/5.0 (X11; Linux x86_64) telegram-fetch-bot/1.0"
	maxRedirects = 10
	dialTimeout  = 15 * time.Second
)

// Options configures Client.
type Options struct {
	ProbeTimeout    time.Duration
	ResponseTimeout time.Duration
	// ProxyFor returns the proxy for a request URL, or nil for a direct connection.
	ProxyFor func(*http.Request) (*url.URL, error)
}

// Client is the HTTP collaborator used for direct links.
type Client struct {
	client       *resty.Client
	probeTimeout time.Duration
}

var _ domain.HTTPSource = (*Client)(nil)

func NewClient(opts Options) *Client {
	transport := &http.Transport{
		Proxy:                 opts.ProxyFor,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ResponseHeaderTimeout: opts.ResponseTimeout,
		TLSHandshakeTimeout:   dialTimeout,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
	}

	// Deadlines come from the request context; a client timeout would cap the body read.
	client := resty.New().
		SetTransport(transport).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects)).
		SetHeader("User-Agent", userAgent)

	return &Client{client: client, probeTimeout: opts.ProbeTimeout}
}

// ProxyFromConfig adapts a per-URL proxy decision into a transport proxy func.
func ProxyFromConfig(proxy string, shouldUse func(rawURL string) bool) func(*http.Request) (*url.URL, error) {
	if proxy == "" {
		return nil
	}
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		logutils.Log.WithError(err).Warn("Ignoring unparsable proxy")
		return nil
	}
	return func(req *http.Request) (*url.URL, error) {
		if shouldUse(req.URL.String()) {
			return proxyURL, nil
		}
		return nil, nil
	}
}

// Probe issues a HEAD request. DeclaredSize is -1 when the server does not report one.
func (c *Client) Probe(ctx context.Context, rawURL string) (*domain.ProbeResult, error) {
	if c.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.probeTimeout)
		defer cancel()
	}

	resp, err := c.client.R().SetContext(ctx).Head(rawURL)
	if err != nil {
		return nil, err
	}

	result := &domain.ProbeResult{Status: resp.StatusCode(), DeclaredSize: -1}
	if raw := resp.Header().Get("Content-Length"); raw != "" {
		if size, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil && size >= 0 {
			result.DeclaredSize = size
		}
	}
	logutils.Log.WithFields(map[string]any{
		"url":    rawURL,
		"status": result.Status,
		"size":   result.DeclaredSize,
	}).Debug("Probe finished")
	return result, nil
}

// StreamGet opens a GET whose body is left unread for the caller.
func (c *Client) StreamGet(ctx context.Context, rawURL string) (*domain.StreamResponse, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		if resp != nil && resp.RawBody() != nil {
			resp.RawBody().Close()
		}
		return nil, err
	}

	contentLength := int64(-1)
	if resp.RawResponse != nil {
		contentLength = resp.RawResponse.ContentLength
	}
	return &domain.StreamResponse{
		Status:        resp.StatusCode(),
		Header:        resp.Header(),
		ContentLength: contentLength,
		Body:          resp.RawBody(),
	}, nil
}
