package ycombinator

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"codir/internal/company"
	"codir/internal/scraper"
)

// ExtractListing walks listing entries in document order. It stops after limit
// stubs or at the first entry whose name is blank. An entry missing the name
// element or any other field means the markup changed and is reported as an
// error.
func (s *Site) ExtractListing(doc *goquery.Document, limit int) ([]company.Stub, error) {
	var (
		stubs []company.Stub
		err   error
	)

	doc.Find(entrySelector).EachWithBreak(func(i int, entry *goquery.Selection) bool {
		if len(stubs) >= limit {
			return false
		}

		name, ok := firstText(entry, nameSelector)
		if !ok {
			err = scraper.StructuralError("listing entry %d has no name (%s)", i, nameSelector)
			return false
		}
		if name == "" {
			return false
		}

		stub := company.Stub{Name: name}
		fields := []struct {
			label    string
			selector string
			dst      *string
		}{
			{"location", locationSelector, &stub.Location},
			{"description", descriptionSelector, &stub.Description},
			{"batch", batchSelector, &stub.Batch},
		}
		for _, f := range fields {
			v, ok := firstText(entry, f.selector)
			if !ok {
				err = scraper.StructuralError("listing entry %d (%s) has no %s (%s)", i, name, f.label, f.selector)
				return false
			}
			*f.dst = v
		}

		href, ok := entry.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			err = scraper.StructuralError("listing entry %d (%s) has no detail link", i, name)
			return false
		}
		stub.Link = strings.TrimSpace(href)

		stubs = append(stubs, stub)
		return true
	})

	if err != nil {
		return nil, err
	}
	return stubs, nil
}

// firstText returns the trimmed text of the first match, and whether there was one.
func firstText(sel *goquery.Selection, selector string) (string, bool) {
	match := sel.Find(selector).First()
	if match.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(match.Text()), true
}
