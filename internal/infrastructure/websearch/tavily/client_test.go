package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"campus-assistant/internal/infrastructure/logger"

	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	var got searchRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]any{
			"answer": "The library closes at midnight during the semester.",
			"results": []map[string]string{
				{"title": "Library Hours", "url": "https://library.sjsu.edu/hours", "content": "Open until <b>midnight</b> Monday through Thursday."},
			},
		})
	}))
	defer ts.Close()

	cfg := DefaultConfig("test-key")
	cfg.BaseURL = ts.URL
	client := New(cfg, logger.NewNop())

	res, err := client.Search(context.Background(), "SJSU library hours")
	require.NoError(t, err)

	require.Equal(t, "test-key", got.APIKey)
	require.Equal(t, "SJSU library hours", got.Query)
	require.Equal(t, defaultMaxResults, got.MaxResults)
	require.Equal(t, "advanced", got.SearchDepth)
	require.True(t, got.IncludeAnswer)

	require.Equal(t, "The library closes at midnight during the semester.", res.Summary)
	require.Len(t, res.Sources, 1)
	require.Equal(t, "https://library.sjsu.edu/hours", res.Sources[0].URL)
	require.Equal(t, "Open until midnight Monday through Thursday.", res.Sources[0].Snippet)
}

func TestSearch_ProviderError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	cfg := DefaultConfig("test-key")
	cfg.BaseURL = ts.URL
	client := New(cfg, logger.NewNop())

	_, err := client.Search(context.Background(), "anything")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestStripHTML(t *testing.T) {
	cases := map[string]string{
		"plain text stays":                        "plain text stays",
		"<p>Open until <b>midnight</b></p>":       "Open until midnight",
		"  spaced   out  ":                        "spaced   out",
		"<div><span>nested</span> content</div>":  "nested content",
	}
	for in, want := range cases {
		if got := stripHTML(in); got != want {
			t.Errorf("stripHTML(%q) = %q, want %q", in, got, want)
		}
	}
}
