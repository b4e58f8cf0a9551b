// Package news fetches market-news headlines from public RSS feeds for
// the report's news sidebar. News is decoration: every failure here is
// non-critical and reports render fine without it.
package news

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// Source is one RSS feed.
type Source struct {
	Name string
	URL  string
}

// DefaultSources lists the market news feeds used out of the box.
var DefaultSources = []Source{
	{Name: "Yahoo Finance", URL: "https://finance.yahoo.com/news/rssindex"},
	{Name: "MarketWatch", URL: "https://feeds.content.dowjones.io/public/rss/mw_topstories"},
	{Name: "CNBC Markets", URL: "https://search.cnbc.com/rs/search/combinedcms/view.xml?partnerId=wrss01&id=20910258"},
}

// Article is one headline.
type Article struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Source    string    `json:"source"`
	Summary   string    `json:"summary,omitempty"`
	Published time.Time `json:"published,omitempty"`
}

// Service fetches headlines from a set of sources.
type Service struct {
	sources []Source
	parser  *gofeed.Parser
}

// NewService uses DefaultSources when sources is empty.
func NewService(sources []Source) *Service {
	if len(sources) == 0 {
		sources = DefaultSources
	}
	return &Service{sources: sources, parser: gofeed.NewParser()}
}

// Headlines returns up to limit recent articles across all sources,
// newest first. Failed sources are logged and skipped.
func (s *Service) Headlines(ctx context.Context, limit int) []Article {
	var articles []Article
	for _, src := range s.sources {
		feed, err := s.parser.ParseURLWithContext(src.URL, ctx)
		if err != nil {
			log.Printf("news: fetch %s: %v", src.Name, err)
			continue
		}
		for _, item := range feed.Items {
			a := Article{
				Title:   strings.TrimSpace(item.Title),
				Link:    item.Link,
				Source:  src.Name,
				Summary: stripHTML(item.Description),
			}
			if item.PublishedParsed != nil {
				a.Published = *item.PublishedParsed
			}
			if a.Title != "" {
				articles = append(articles, a)
			}
		}
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Published.After(articles[j].Published)
	})
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles
}

// maxSummaryLen bounds how much of a feed item's description survives.
const maxSummaryLen = 280

// stripHTML extracts plain text from feed descriptions, which regularly
// arrive as HTML fragments.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	text := strings.Join(strings.Fields(doc.Text()), " ")
	if len(text) > maxSummaryLen {
		text = text[:maxSummaryLen] + "…"
	}
	return text
}
