package wiki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amrlabs/amrd/config"
)

func newTestWikiClient(serverURL string) *Client {
	return NewClient(&config.Config{
		Wiki: config.WikiConfig{
			ServerURL:     serverURL,
			KnowledgeBase: "wikidata",
		},
	})
}

func TestClientResolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/link", r.URL.Path)
		assert.Equal(t, "wikidata", r.URL.Query().Get("kb"))
		require.Equal(t, "Paris", r.URL.Query().Get("surface"))
		_ = json.NewEncoder(w).Encode(linkResponse{ID: "Q90"})
	}))
	defer server.Close()

	id, err := newTestWikiClient(server.URL).Resolve(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Q90", id)
}

func TestClientResolveMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	id, err := newTestWikiClient(server.URL).Resolve(context.Background(), "Xyzzy")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestClientResolveEscapesSurface(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "New York City", r.URL.Query().Get("surface"))
		_ = json.NewEncoder(w).Encode(linkResponse{ID: "Q60"})
	}))
	defer server.Close()

	id, err := newTestWikiClient(server.URL).Resolve(context.Background(), "New York City")
	require.NoError(t, err)
	assert.Equal(t, "Q60", id)
}
