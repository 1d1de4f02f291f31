package hostfunc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultMaxURLLength   = 8192
	DefaultMaxBodySize    = 1 << 20 // 1MB
	DefaultRequestTimeout = 30 * time.Second

	maxRedirects = 5
)

// HTTPConfig restricts what http_fetch may reach. An empty AllowedHosts
// disables fetching entirely.
type HTTPConfig struct {
	AllowedHosts   []string
	MaxBodySize    int64
	MaxURLLength   int
	RequestTimeout time.Duration
}

// HTTP performs the fetches requested by data request guests.
type HTTP struct {
	cfg    HTTPConfig
	client *http.Client
}

func NewHTTP(cfg HTTPConfig) *HTTP {
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.MaxURLLength == 0 {
		cfg.MaxURLLength = DefaultMaxURLLength
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	h := &HTTP{cfg: cfg}
	h.client = &http.Client{
		Timeout:       cfg.RequestTimeout,
		CheckRedirect: h.checkRedirect,
	}
	return h
}

// checkRedirect holds every redirect hop to the same rules as the first URL.
func (h *HTTP) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	return h.checkURL(req.URL)
}

func (h *HTTP) checkURL(u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if host := u.Hostname(); !h.isHostAllowed(host) {
		return fmt.Errorf("host not allowed: %s", host)
	}
	return nil
}

// Fetch validates req against the config and performs it. The returned
// error describes why the request was refused or failed; the guest sees it
// in HTTPFetchResponse.Error.
func (h *HTTP) Fetch(ctx context.Context, req HTTPFetchRequest) (HTTPFetchResponse, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	switch method {
	case "GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS":
	default:
		return HTTPFetchResponse{}, fmt.Errorf("unsupported method: %s", method)
	}

	if req.URL == "" {
		return HTTPFetchResponse{}, fmt.Errorf("url required")
	}

	if len(req.URL) > h.cfg.MaxURLLength {
		return HTTPFetchResponse{}, fmt.Errorf("url exceeds max length")
	}

	parsed, err := url.Parse(req.URL)
	if err != nil {
		return HTTPFetchResponse{}, fmt.Errorf("invalid url")
	}

	if len(h.cfg.AllowedHosts) == 0 {
		return HTTPFetchResponse{}, fmt.Errorf("http not enabled")
	}

	if err := h.checkURL(parsed); err != nil {
		return HTTPFetchResponse{}, err
	}

	var body io.Reader
	if req.Body != "" {
		if int64(len(req.Body)) > h.cfg.MaxBodySize {
			return HTTPFetchResponse{}, fmt.Errorf("request body exceeds max size")
		}
		body = bytes.NewBufferString(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return HTTPFetchResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return HTTPFetchResponse{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, h.cfg.MaxBodySize+1))
	if err != nil {
		return HTTPFetchResponse{}, fmt.Errorf("failed to read response: %w", err)
	}
	truncated := int64(len(respBody)) > h.cfg.MaxBodySize
	if truncated {
		respBody = respBody[:h.cfg.MaxBodySize]
	}

	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return HTTPFetchResponse{
		Status:    resp.StatusCode,
		Headers:   headers,
		Body:      string(respBody),
		Truncated: truncated,
	}, nil
}

// isHostAllowed matches IP hosts by address and names exactly or as a
// subdomain of an allowed name.
func (h *HTTP) isHostAllowed(host string) bool {
	if addr, err := netip.ParseAddr(host); err == nil {
		for _, allowed := range h.cfg.AllowedHosts {
			if a, err := netip.ParseAddr(allowed); err == nil && a == addr {
				return true
			}
		}
		return false
	}

	host = strings.ToLower(host)
	for _, allowed := range h.cfg.AllowedHosts {
		allowed = strings.ToLower(allowed)
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
