package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/qualityfeed/internal/core"
)

// DefaultTimeout bounds a single request to a feed server.
const DefaultTimeout = 30 * time.Second

// HTTP reads feed files published as <base>/<feed>/<YYYY-MM-DD>.csv.
type HTTP struct {
	base   *url.URL
	client *http.Client
}

// NewHTTP creates an HTTP source. A zero timeout uses DefaultTimeout.
func NewHTTP(baseURL string, timeout time.Duration) (*HTTP, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	return &HTTP{base: u, client: newClient(timeout)}, nil
}

func newClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// URL returns the address of the file for feed and date.
func (h *HTTP) URL(feed, date string) string {
	return h.base.JoinPath(feed, date+FileExt).String()
}

// Locate checks with a HEAD request that the file exists and returns its URL.
func (h *HTTP) Locate(ctx context.Context, feed, date string) (string, error) {
	ref := h.URL(feed, date)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, ref, nil)
	if err != nil {
		return "", err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("head %s: %w", ref, err)
	}
	resp.Body.Close()

	if err := checkStatus(resp, ref); err != nil {
		return "", err
	}
	return ref, nil
}

// Open downloads ref. The caller closes the body.
func (h *HTTP) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	return openURL(ctx, h.client, ref)
}

func openURL(ctx context.Context, client *http.Client, ref string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ref, err)
	}
	if err := checkStatus(resp, ref); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(resp *http.Response, ref string) error {
	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%s: %w", ref, core.ErrFeedNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%s: unexpected status %s", ref, resp.Status)
	}
	return nil
}
