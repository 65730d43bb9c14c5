package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jukebox/internal/jukebox"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchFixture = `<!doctype html><html><head><title>lofi - YouTube</title></head><body>
<script>var ytcfg = {};</script>
<script nonce="abc">var ytInitialData = {"contents":{"twoColumnSearchResultsRenderer":{"primaryContents":{"sectionListRenderer":{"contents":[
 {"itemSectionRenderer":{"contents":[
  {"videoRenderer":{"videoId":"dQw4w9WgXcQ","title":{"runs":[{"text":"Rick Astley - Never Gonna Give You Up"}]},"ownerText":{"runs":[{"text":"Rick Astley"}]},"thumbnail":{"thumbnails":[{"url":"https://i.ytimg.com/small.jpg"},{"url":"https://i.ytimg.com/large.jpg"}]}}},
  {"shelfRenderer":{}},
  {"videoRenderer":{"videoId":"","title":{"runs":[{"text":"no id"}]}}},
  {"videoRenderer":{"videoId":"9bZkp7q19f0","title":{"runs":[{"text":"PSY - GANGNAM STYLE"}]},"ownerText":{"runs":[{"text":"officialpsy"}]},"thumbnail":{"thumbnails":[]}}}
 ]}},
 {"continuationItemRenderer":{}}
]}}}}};</script>
</body></html>`

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ResolveTitle(t *testing.T) {
	t.Run("og_title_preferred", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
			fmt.Fprint(w, `<html><head><meta property="og:title" content="Daft Punk - One More Time"><title>ignored - YouTube</title></head></html>`)
		})
		title, err := New().ResolveTitle(context.Background(), srv.URL+"/watch?v=FGBhQbmPwH8")
		require.NoError(t, err)
		assert.Equal(t, "Daft Punk - One More Time", title)
	})

	t.Run("document_title_without_suffix", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><head><title>Aphex Twin - Xtal - YouTube</title></head></html>`)
		})
		title, err := New().ResolveTitle(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "Aphex Twin - Xtal", title)
	})

	t.Run("no_title", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><body>nothing</body></html>`)
		})
		_, err := New().ResolveTitle(context.Background(), srv.URL)
		assert.ErrorIs(t, err, ErrNoTitle)
	})

	t.Run("non_200_status", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		_, err := New().ResolveTitle(context.Background(), srv.URL)
		assert.Error(t, err)
	})
}

func TestClient_Search(t *testing.T) {
	t.Run("parses_video_renderers", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/results", r.URL.Path)
			assert.Equal(t, "never gonna", r.URL.Query().Get("search_query"))
			fmt.Fprint(w, searchFixture)
		})
		got := New(WithBaseURL(srv.URL)).Search(context.Background(), "never gonna")
		want := []jukebox.SearchResult{
			{
				Title:     "Rick Astley - Never Gonna Give You Up",
				Channel:   "Rick Astley",
				URL:       "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
				Thumbnail: "https://i.ytimg.com/large.jpg",
			},
			{
				Title:   "PSY - GANGNAM STYLE",
				Channel: "officialpsy",
				URL:     "https://www.youtube.com/watch?v=9bZkp7q19f0",
			},
		}
		assert.Equal(t, want, got)
	})

	t.Run("caps_results", func(t *testing.T) {
		var items []string
		for i := 0; i < 15; i++ {
			items = append(items, fmt.Sprintf(`{"videoRenderer":{"videoId":"vid%08d","title":{"runs":[{"text":"song %d"}]}}}`, i, i))
		}
		page := `<html><body><script>var ytInitialData = {"contents":{"twoColumnSearchResultsRenderer":{"primaryContents":{"sectionListRenderer":{"contents":[{"itemSectionRenderer":{"contents":[` +
			strings.Join(items, ",") + `]}}]}}}}};</script></body></html>`
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, page)
		})
		got := New(WithBaseURL(srv.URL)).Search(context.Background(), "songs")
		assert.Len(t, got, MaxResults)
	})

	t.Run("missing_initial_data", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><body><script>var other = 1;</script></body></html>`)
		})
		got := New(WithBaseURL(srv.URL)).Search(context.Background(), "anything")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("server_error", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		got := New(WithBaseURL(srv.URL)).Search(context.Background(), "anything")
		assert.Empty(t, got)
	})

	t.Run("blank_query_skips_request", func(t *testing.T) {
		called := false
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		})
		got := New(WithBaseURL(srv.URL)).Search(context.Background(), "   ")
		assert.Empty(t, got)
		assert.False(t, called)
	})
}
