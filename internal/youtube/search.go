package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"jukebox/internal/jukebox"

	"github.com/PuerkitoBio/goquery"
)

// MaxResults caps the number of hits returned by Search.
const MaxResults = 10

const (
	initialDataPrefix = "var ytInitialData = "
	initialDataSuffix = ";</script>"
)

var errNoInitialData = errors.New("ytInitialData not found")

// initialData mirrors the part of ytInitialData that carries search hits.
type initialData struct {
	Contents struct {
		TwoColumnSearchResultsRenderer struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []struct {
						ItemSectionRenderer *struct {
							Contents []struct {
								VideoRenderer *videoRenderer `json:"videoRenderer"`
							} `json:"contents"`
						} `json:"itemSectionRenderer"`
					} `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}

type textRuns struct {
	Runs []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (t textRuns) first() string {
	if len(t.Runs) == 0 {
		return ""
	}
	return t.Runs[0].Text
}

type videoRenderer struct {
	VideoID   string   `json:"videoId"`
	Title     textRuns `json:"title"`
	OwnerText textRuns `json:"ownerText"`
	Thumbnail struct {
		Thumbnails []struct {
			URL string `json:"url"`
		} `json:"thumbnails"`
	} `json:"thumbnail"`
}

// Search scrapes the results page for query. Any failure yields an empty
// slice; the error is only logged.
func (c *Client) Search(ctx context.Context, query string) []jukebox.SearchResult {
	results := []jukebox.SearchResult{}
	query = strings.TrimSpace(query)
	if query == "" {
		return results
	}

	u := c.baseURL + "/results?search_query=" + url.QueryEscape(query)
	body, err := c.get(ctx, u)
	if err != nil {
		c.log.Warn("youtube search failed", slog.String("query", query), slog.String("error", err.Error()))
		return results
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		c.log.Warn("youtube search parse failed", slog.String("error", err.Error()))
		return results
	}

	data, err := extractInitialData(doc)
	if err != nil {
		c.log.Warn("youtube search parse failed", slog.String("query", query), slog.String("error", err.Error()))
		return results
	}
	return collectResults(data)
}

// extractInitialData finds the inline script assigning ytInitialData and
// decodes its JSON.
func extractInitialData(doc *goquery.Document) (*initialData, error) {
	var raw string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		i := strings.Index(text, initialDataPrefix)
		if i < 0 {
			return true
		}
		raw = text[i+len(initialDataPrefix):]
		return false
	})
	if raw == "" {
		return nil, errNoInitialData
	}
	// Script text excludes the closing tag, so the trailing semicolon is all
	// that is left of the suffix.
	raw = strings.TrimSuffix(raw, initialDataSuffix)
	raw = strings.TrimSuffix(strings.TrimSpace(raw), ";")

	var data initialData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func collectResults(data *initialData) []jukebox.SearchResult {
	results := []jukebox.SearchResult{}
	sections := data.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents
	for _, section := range sections {
		if section.ItemSectionRenderer == nil {
			continue
		}
		for _, item := range section.ItemSectionRenderer.Contents {
			v := item.VideoRenderer
			if v == nil || v.VideoID == "" || v.Title.first() == "" {
				continue
			}
			r := jukebox.SearchResult{
				Title:   v.Title.first(),
				Channel: v.OwnerText.first(),
				URL:     jukebox.WatchURL(v.VideoID),
			}
			if thumbs := v.Thumbnail.Thumbnails; len(thumbs) > 0 {
				r.Thumbnail = thumbs[len(thumbs)-1].URL
			}
			results = append(results, r)
			if len(results) >= MaxResults {
				return results
			}
		}
	}
	return results
}
