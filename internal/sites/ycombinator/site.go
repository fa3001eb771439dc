// Package ycombinator scrapes the Y Combinator company directory.
package ycombinator

import (
	"fmt"
	"net/url"
	"strings"

	"codir/internal/company"
	"codir/internal/config"
	"codir/internal/scraper"
)

// Listing page markup.
const (
	listingReady        = "a._company_86jzd_338"
	entrySelector       = "a._company_86jzd_338"
	nameSelector        = "span._coName_86jzd_453"
	locationSelector    = "span._coLocation_86jzd_469"
	descriptionSelector = "span._coDescription_86jzd_478"
	batchSelector       = "span.pill._pill_86jzd_33"
)

// Detail page markup.
const (
	detailReady     = "h1.font-extralight"
	websiteSelector = "div.text-linkColor"
	founderSelector = "div.leading-snug"
	founderName     = "div.font-bold"
	founderLinkedIn = "a.bg-image-linkedin"
)

func init() {
	scraper.Register("ycombinator", func(baseURL string) scraper.Site {
		return New(baseURL)
	})
}

// Site implements scraper.Site for the directory at baseURL.
type Site struct {
	baseURL string
}

// New returns a Site rooted at baseURL, or at the public directory when empty.
func New(baseURL string) *Site {
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}
	return &Site{baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Site) Name() string { return "ycombinator" }

func (s *Site) ListingURL(query string) string {
	if query == "" {
		return s.baseURL
	}
	return s.baseURL + "?" + query
}

func (s *Site) ListingReady() string { return listingReady }

func (s *Site) DetailReady() string { return detailReady }

// DetailURL resolves the stub's link against the listing URL, so
// "/companies/airbnb" becomes "https://www.ycombinator.com/companies/airbnb".
func (s *Site) DetailURL(stub company.Stub) (string, error) {
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", s.baseURL, err)
	}
	ref, err := url.Parse(strings.TrimSpace(stub.Link))
	if err != nil || stub.Link == "" {
		return "", scraper.StructuralError("company %q has an invalid detail link %q", stub.Name, stub.Link)
	}
	return base.ResolveReference(ref).String(), nil
}
