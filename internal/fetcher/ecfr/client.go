// Package ecfr implements tracker.CatalogClient against the eCFR
// versioner API.
package ecfr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fedreg/ecfr-tracker/internal/tracker"
)

// DefaultBaseURL is the public eCFR versioner endpoint.
const DefaultBaseURL = "https://www.ecfr.gov/api/versioner/v1"

// Config controls client behavior.
type Config struct {
	BaseURL      string
	UserAgent    string
	ListTimeout  time.Duration
	FetchTimeout time.Duration
}

// Client fetches title metadata and content over a shared pooled
// transport so concurrent fetches reuse a bounded set of connections.
type Client struct {
	cfg        Config
	httpClient *http.Client
	clock      tracker.Clock
	logger     *zap.Logger
}

// New builds a Client with a pooled transport and defaulted config.
func New(cfg Config, clock tracker.Clock, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ListTimeout == 0 {
		cfg.ListTimeout = 30 * time.Second
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Transport: newHTTPTransport()},
		clock:      clock,
		logger:     logger,
	}
}

type listTitlesResponse struct {
	Titles []tracker.TitleDescriptor `json:"titles"`
}

// ListTitles fetches the list of all CFR titles. Any failure is logged
// and returned; the caller treats it as cannot-proceed.
func (c *Client) ListTitles(ctx context.Context) ([]tracker.TitleDescriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ListTimeout)
	defer cancel()

	url := c.cfg.BaseURL + "/titles"
	body, _, err := c.get(ctx, url)
	if err != nil {
		c.logger.Error("failed to fetch titles", zap.Error(err))
		return nil, fmt.Errorf("list titles: %w", err)
	}

	var parsed listTitlesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Error("malformed titles response", zap.Error(err))
		return nil, fmt.Errorf("decode titles: %w", err)
	}
	c.logger.Info("fetched CFR titles", zap.Int("count", len(parsed.Titles)))
	return parsed.Titles, nil
}

// titleContent is the subset of the full-title document we look at; the
// body is measured as raw bytes before parsing.
type titleContent struct {
	Title string `json:"title"`
}

// FetchTitleContent downloads the full content of one title for the
// current UTC date and measures its exact byte length. Timeouts, bad
// statuses, and unparseable bodies all come back as errors for the
// caller to isolate, never as panics.
func (c *Client) FetchTitleContent(ctx context.Context, number int) (tracker.TitleSize, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	date := c.clock.Now().UTC().Format("2006-01-02")
	url := fmt.Sprintf("%s/full/%s/title-%d.json", c.cfg.BaseURL, date, number)

	body, _, err := c.get(ctx, url)
	if err != nil {
		c.logger.Warn("failed to fetch title", zap.Int("title", number), zap.Error(err))
		return tracker.TitleSize{}, fmt.Errorf("fetch title %d: %w", number, err)
	}

	sizeBytes := int64(len(body))

	var parsed titleContent
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Error("invalid JSON for title", zap.Int("title", number), zap.Error(err))
		return tracker.TitleSize{}, fmt.Errorf("parse title %d: %w", number, err)
	}
	name := parsed.Title
	if name == "" {
		name = fmt.Sprintf("Title %d", number)
	}

	return tracker.TitleSize{
		TitleNumber: number,
		TitleName:   name,
		SizeBytes:   sizeBytes,
		SizeMB:      tracker.BytesToMB(sizeBytes),
	}, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("execute request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("close response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused by the pool.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}
}
