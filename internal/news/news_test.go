package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func rssFeed(items ...string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test Feed</title>%s</channel></rss>`, strings.Join(items, ""))
}

func rssItem(title, pubDate, desc string) string {
	return fmt.Sprintf(`<item><title>%s</title><link>http://example.com/a</link><pubDate>%s</pubDate><description>%s</description></item>`,
		title, pubDate, desc)
}

func TestHeadlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssFeed(
			rssItem("Old story", "Mon, 25 Aug 2026 10:00:00 GMT", "older"),
			rssItem("Fresh story", "Fri, 28 Aug 2026 10:00:00 GMT", "newer"),
		))
	}))
	defer srv.Close()

	svc := NewService([]Source{{Name: "Test", URL: srv.URL}})
	articles := svc.Headlines(context.Background(), 10)

	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}
	if articles[0].Title != "Fresh story" {
		t.Errorf("first article = %q, want newest first", articles[0].Title)
	}
	if articles[0].Source != "Test" {
		t.Errorf("source = %q", articles[0].Source)
	}
}

func TestHeadlinesLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var items []string
		for i := 0; i < 20; i++ {
			items = append(items, rssItem(fmt.Sprintf("Story %d", i), "Fri, 28 Aug 2026 10:00:00 GMT", ""))
		}
		fmt.Fprint(w, rssFeed(items...))
	}))
	defer srv.Close()

	svc := NewService([]Source{{Name: "Test", URL: srv.URL}})
	articles := svc.Headlines(context.Background(), 5)
	if len(articles) != 5 {
		t.Errorf("got %d articles, want limit of 5", len(articles))
	}
}

func TestHeadlinesFailedSourceSkipped(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed(rssItem("Only story", "Fri, 28 Aug 2026 10:00:00 GMT", "")))
	}))
	defer good.Close()

	svc := NewService([]Source{
		{Name: "Broken", URL: bad.URL},
		{Name: "Working", URL: good.URL},
	})
	articles := svc.Headlines(context.Background(), 10)

	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1 from the working source", len(articles))
	}
	if articles[0].Source != "Working" {
		t.Errorf("source = %q", articles[0].Source)
	}
}

func TestNewServiceDefaultSources(t *testing.T) {
	svc := NewService(nil)
	if len(svc.sources) != len(DefaultSources) {
		t.Errorf("got %d sources, want the defaults", len(svc.sources))
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text", "hello world", "hello world"},
		{"tags removed", "<p>Stocks <b>rallied</b> today.</p>", "Stocks rallied today."},
		{"whitespace collapsed", "a\n\n  b\t c", "a b c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripHTML(tt.in); got != tt.want {
				t.Errorf("stripHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripHTMLTruncatesLongText(t *testing.T) {
	long := strings.Repeat("x", 1000)
	got := stripHTML(long)
	if len(got) <= maxSummaryLen || len(got) > maxSummaryLen+4 {
		t.Errorf("len = %d, want about %d plus ellipsis", len(got), maxSummaryLen)
	}
	if !strings.HasSuffix(got, "…") {
		t.Error("truncated summary missing ellipsis")
	}
}
