package webring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	siteerrors "github.com/plutodev/plutogen/internal/errors"
)

func memberServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const ringJSON = `[
	{"name": "Alice", "url": "https://alice.example"},
	{"name": "Pluto", "url": "https://pluto.dev"},
	{"name": "Carol", "url": "https://carol.example"}
]`

func TestBannerLinksNeighbors(t *testing.T) {
	srv := memberServer(t, ringJSON, http.StatusOK)

	c := NewClient(srv.URL, "https://pluto.dev")
	banner, err := c.Banner(context.Background())
	require.NoError(t, err)

	assert.Contains(t, banner, `href="https://alice.example"`)
	assert.Contains(t, banner, "← Alice")
	assert.Contains(t, banner, `href="https://carol.example"`)
	assert.Contains(t, banner, "Carol →")
	assert.Contains(t, banner, "3 members")
}

func TestBannerWrapsAroundMemberList(t *testing.T) {
	srv := memberServer(t, ringJSON, http.StatusOK)

	c := NewClient(srv.URL, "https://alice.example")
	banner, err := c.Banner(context.Background())
	require.NoError(t, err)

	// First member's previous neighbor is the last member.
	assert.Contains(t, banner, "← Carol")
	assert.Contains(t, banner, "Pluto →")
}

func TestBannerSiteNotInRing(t *testing.T) {
	srv := memberServer(t, ringJSON, http.StatusOK)

	c := NewClient(srv.URL, "https://stranger.example")
	_, err := c.Banner(context.Background())
	require.Error(t, err)
	assert.True(t, siteerrors.IsCategory(err, siteerrors.CategoryWebring))
}

func TestBannerServerError(t *testing.T) {
	srv := memberServer(t, "oops", http.StatusInternalServerError)

	c := NewClient(srv.URL, "https://pluto.dev")
	_, err := c.Banner(context.Background())
	require.Error(t, err)
	assert.True(t, siteerrors.IsCategory(err, siteerrors.CategoryWebring))
}

func TestBannerMalformedJSON(t *testing.T) {
	srv := memberServer(t, "{not json", http.StatusOK)

	c := NewClient(srv.URL, "https://pluto.dev")
	_, err := c.Banner(context.Background())
	require.Error(t, err)
}

func TestBannerEmptyMemberList(t *testing.T) {
	srv := memberServer(t, "[]", http.StatusOK)

	c := NewClient(srv.URL, "https://pluto.dev")
	_, err := c.Banner(context.Background())
	require.Error(t, err)
}
