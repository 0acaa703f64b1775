package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			_, _ = w.Write([]byte("image-bytes"))
		case "/big.png":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(0, 32, WithPrivateNetworks())

	data, err := f.Fetch(context.Background(), srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.png")
	assert.ErrorContains(t, err, "status 404")

	_, err = f.Fetch(context.Background(), srv.URL+"/big.png")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestHTTPFetcher_RejectsNonHTTPURLs(t *testing.T) {
	f := NewHTTPFetcher(0, 0)
	for _, u := range []string{"", "file:///etc/passwd", "ftp://host/x.png", "http://"} {
		_, err := f.Fetch(context.Background(), u)
		assert.Error(t, err, u)
	}
}

func TestHTTPFetcher_HonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTPFetcher(0, 0, WithPrivateNetworks()).Fetch(ctx, srv.URL+"/slow.png")
	assert.Error(t, err)
}

func countingServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("image-bytes"))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestHTTPFetcher_BlocksNonPublicAddresses(t *testing.T) {
	srv, hits := countingServer(t)

	f := NewHTTPFetcher(0, 0)
	_, err := f.Fetch(context.Background(), srv.URL+"/ok.png")
	assert.ErrorIs(t, err, ErrPrivateAddress)

	for _, u := range []string{
		"http://169.254.169.254/latest/meta-data/",
		"http://10.0.0.1/x.png",
		"http://0.0.0.0/x.png",
	} {
		_, err := f.Fetch(context.Background(), u)
		assert.ErrorIs(t, err, ErrPrivateAddress, u)
	}
	assert.Zero(t, hits.Load())
}

func TestHTTPFetcher_AllowedHosts(t *testing.T) {
	srv, hits := countingServer(t)

	f := NewHTTPFetcher(0, 0, WithPrivateNetworks(), WithAllowedHosts("images.dealer.com"))
	_, err := f.Fetch(context.Background(), srv.URL+"/ok.png")
	assert.ErrorIs(t, err, ErrHostNotAllowed)
	assert.Zero(t, hits.Load(), "a disallowed host must not be contacted")

	f = NewHTTPFetcher(0, 0, WithPrivateNetworks(), WithAllowedHosts(" 127.0.0.1 "))
	data, err := f.Fetch(context.Background(), srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPFetcher_RedirectOutsideAllowList(t *testing.T) {
	target, hits := countingServer(t)
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, strings.Replace(target.URL, "127.0.0.1", "localhost", 1)+"/x.png", http.StatusFound)
	}))
	defer origin.Close()

	f := NewHTTPFetcher(0, 0, WithPrivateNetworks(), WithAllowedHosts("127.0.0.1"))
	_, err := f.Fetch(context.Background(), origin.URL+"/start.png")
	assert.ErrorIs(t, err, ErrHostNotAllowed)
	assert.Zero(t, hits.Load())
}

func TestHostAllowed(t *testing.T) {
	allowed := []string{"images.dealer.com", ".cdn.example.com"}
	tests := []struct {
		host string
		want bool
	}{
		{"images.dealer.com", true},
		{"IMAGES.dealer.com.", true},
		{"a.cdn.example.com", true},
		{"a.b.cdn.example.com", true},
		{"cdn.example.com", false},
		{"evilcdn.example.com", false},
		{"images.dealer.com.evil.io", false},
		{"dealer.com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HostAllowed(tt.host, allowed), tt.host)
	}
}
