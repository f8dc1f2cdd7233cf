package content

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const listingPayload = `{
	"articles": [
		{
			"id": "a1",
			"title": "Spinning in mare",
			"slug": "spinning-in-mare",
			"excerpt": "Guida costiera",
			"mainImage": "https://cdn.example.com/a1.jpg",
			"author": "Luca",
			"categories": ["tecniche"],
			"techniques": [{"id": "spinning", "title": "Spinning", "slug": "spinning"}],
			"publishedAt": "2025-05-20T08:00:00Z"
		},
		{
			"id": "a2",
			"title": "Nodi essenziali",
			"slug": "nodi-essenziali",
			"publishedAt": "2025-05-18"
		}
	]
}`

func TestRecentArticles(t *testing.T) {
	var gotPath, gotAuth, gotLimit string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(listingPayload))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token-123", discardLogger())
	articles, err := client.RecentArticles(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, "/v1/articles", gotPath)
	assert.Equal(t, "Bearer token-123", gotAuth)
	assert.Equal(t, "10", gotLimit)

	require.Len(t, articles, 2)
	assert.Equal(t, "a1", articles[0].ID)
	assert.Equal(t, time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC), articles[0].PublishedAt)
	require.Len(t, articles[0].Techniques, 1)
	assert.Equal(t, "spinning", articles[0].Techniques[0].ID)

	// Date-only format is handled too.
	assert.Equal(t, 2025, articles[1].PublishedAt.Year())
	assert.Equal(t, time.May, articles[1].PublishedAt.Month())
}

func TestRecentArticles_BadDateIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"articles":[{"id":"a1","title":"x","publishedAt":"not a date"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", discardLogger())
	articles, err := client.RecentArticles(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.True(t, articles[0].PublishedAt.IsZero())
}

func TestRecentArticles_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", discardLogger())
	_, err := client.RecentArticles(context.Background(), 10)
	assert.Error(t, err)
}
