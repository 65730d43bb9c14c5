package youtube

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoTitle is returned when a page has neither an og:title nor a <title>.
var ErrNoTitle = errors.New("no title found")

// ResolveTitle fetches url and returns the og:title meta content, falling
// back to the document title without the " - YouTube" suffix.
func (c *Client) ResolveTitle(ctx context.Context, url string) (string, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", err
	}
	return titleFromDocument(doc)
}

func titleFromDocument(doc *goquery.Document) (string, error) {
	if content, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if t := strings.TrimSpace(content); t != "" {
			return t, nil
		}
	}
	t := strings.TrimSpace(doc.Find("title").First().Text())
	t = strings.TrimSpace(strings.ReplaceAll(t, " - YouTube", ""))
	if t == "" {
		return "", ErrNoTitle
	}
	return t, nil
}
