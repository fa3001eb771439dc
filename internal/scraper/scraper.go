package scraper

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ysmood/gson"

	"codir/internal/browser"
	"codir/internal/company"
)

// Session is the browser capability a scrape runs on.
type Session interface {
	NavigateAndWait(ctx context.Context, url, readySelector string, timeout time.Duration) error
	Eval(ctx context.Context, js string) (gson.JSON, error)
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Opener starts a new Session.
type Opener func(ctx context.Context) (Session, error)

// BrowserOpener opens real headless browser sessions.
func BrowserOpener(cfg browser.Config) Opener {
	return func(ctx context.Context) (Session, error) {
		s, err := browser.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Site knows the URLs, ready selectors and markup of one company directory.
type Site interface {
	Name() string
	ListingURL(query string) string
	ListingReady() string
	// ExtractListing returns at most limit stubs in document order.
	ExtractListing(doc *goquery.Document, limit int) ([]company.Stub, error)
	DetailURL(stub company.Stub) (string, error)
	DetailReady() string
	ExtractDetail(doc *goquery.Document, stub company.Stub) company.Record
}

// Content is a scrape result that can be rendered in each output format.
type Content interface {
	ToHTML() (string, error)
	ToText() (string, error)
	ToMarkdown() (string, error)
	ToJSON() ([]byte, error)
	ToCSV() (string, error)
}
