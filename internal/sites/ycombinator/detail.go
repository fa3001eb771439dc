package ycombinator

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"codir/internal/company"
)

// ExtractDetail merges the detail page into the stub. Missing website leaves
// Website nil; a founder block without a name or LinkedIn anchor contributes an
// empty string so names and links stay index aligned.
func (s *Site) ExtractDetail(doc *goquery.Document, stub company.Stub) company.Record {
	rec := company.NewRecord(stub)

	if website, ok := firstText(doc.Selection, websiteSelector); ok {
		rec.Website = &website
	}

	doc.Find(founderSelector).Each(func(_ int, block *goquery.Selection) {
		name := strings.TrimSpace(block.Find(founderName).Text())
		link, _ := block.Find(founderLinkedIn).First().Attr("href")
		rec.Founders = append(rec.Founders, company.Founder{
			Name:     name,
			LinkedIn: strings.TrimSpace(link),
		})
	})

	return rec
}
