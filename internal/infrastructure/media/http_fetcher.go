// Package media provides the HTTP image fetcher used by the watermark pipeline.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"
)

const (
	// DefaultMaxImageSize limits download size to prevent memory exhaustion.
	DefaultMaxImageSize = 20 * 1024 * 1024 // 20MB

	// DefaultFetchTimeout is the maximum time for a single image download.
	DefaultFetchTimeout = 30 * time.Second

	maxRedirects = 5
)

var (
	// ErrTooLarge is returned when a response body exceeds the size limit.
	ErrTooLarge = errors.New("image exceeds size limit")
	// ErrHostNotAllowed is returned for hosts outside the allow list.
	ErrHostNotAllowed = errors.New("image host not allowed")
	// ErrPrivateAddress is returned when a host resolves to a loopback,
	// private, link-local or otherwise non-public address.
	ErrPrivateAddress = errors.New("image host resolves to a non-public address")
)

// HTTPFetcher downloads images over HTTP(S).
//
// When an allow list is set, only those hosts are requested. Independently,
// connections to non-public addresses are refused at dial time unless
// private networks are enabled, which also covers redirects and DNS answers
// that change between checks.
type HTTPFetcher struct {
	client       *http.Client
	maxSize      int64
	timeout      time.Duration
	allowedHosts []string
	allowPrivate bool
}

// FetcherOption customises an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithAllowedHosts restricts fetches to hosts. An entry starting with "."
// matches any subdomain of it, e.g. ".cdn.example.com".
func WithAllowedHosts(hosts ...string) FetcherOption {
	return func(f *HTTPFetcher) {
		for _, h := range hosts {
			h = strings.ToLower(strings.TrimSpace(h))
			if h != "" {
				f.allowedHosts = append(f.allowedHosts, h)
			}
		}
	}
}

// WithPrivateNetworks permits loopback and private addresses, for local
// object storage in development.
func WithPrivateNetworks() FetcherOption {
	return func(f *HTTPFetcher) { f.allowPrivate = true }
}

// NewHTTPFetcher creates a fetcher. Zero values select the defaults.
func NewHTTPFetcher(timeout time.Duration, maxSize int64, opts ...FetcherOption) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxImageSize
	}
	f := &HTTPFetcher{maxSize: maxSize, timeout: timeout}
	for _, opt := range opts {
		opt(f)
	}

	dialer := &net.Dialer{Timeout: timeout, Control: f.checkDialAddress}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	f.client = &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return f.checkHost(req.URL)
		},
	}
	return f
}

// Fetch returns the body of a 200 response for rawURL.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return nil, fmt.Errorf("invalid image URL %q", rawURL)
	}
	if err := f.checkHost(u); err != nil {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	// Read one byte past the limit to detect oversized bodies.
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	if int64(len(data)) > f.maxSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

func (f *HTTPFetcher) checkHost(u *url.URL) error {
	if len(f.allowedHosts) == 0 || HostAllowed(u.Hostname(), f.allowedHosts) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrHostNotAllowed, u.Hostname())
}

// checkDialAddress runs after DNS resolution, on the address actually dialled.
func (f *HTTPFetcher) checkDialAddress(_, address string, _ syscall.RawConn) error {
	if f.allowPrivate {
		return nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || !isPublicIP(ip) {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, host)
	}
	return nil
}

// HostAllowed reports whether host matches allowed. Entries are exact host
// names, or ".suffix" for any subdomain of suffix.
func HostAllowed(host string, allowed []string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, a := range allowed {
		if strings.HasPrefix(a, ".") {
			if strings.HasSuffix(host, a) {
				return true
			}
			continue
		}
		if host == a {
			return true
		}
	}
	return false
}

func isPublicIP(ip net.IP) bool {
	return !(ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified())
}
