// Package company holds the records a scrape produces.
package company

// Stub is a company as seen on the listing page, before its detail page is visited.
type Stub struct {
	Name        string
	Location    string
	Description string
	Batch       string
	Link        string // detail page link as found in the listing, usually relative
}

// Founder is one founder block of a detail page. Either field may be empty.
type Founder struct {
	Name     string `json:"name"`
	LinkedIn string `json:"linkedin"`
}

// Record is a fully enriched company.
type Record struct {
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Batch       string    `json:"batch"`
	Website     *string   `json:"website"`
	Founders    []Founder `json:"founders"`
}

// NewRecord starts a record from a listing stub.
func NewRecord(s Stub) Record {
	return Record{
		Name:        s.Name,
		Location:    s.Location,
		Description: s.Description,
		Batch:       s.Batch,
		Founders:    []Founder{},
	}
}

// WebsiteOrEmpty returns the website, or "" when the detail page had none.
func (r Record) WebsiteOrEmpty() string {
	if r.Website == nil {
		return ""
	}
	return *r.Website
}

// FounderNames returns founder names in page order.
func (r Record) FounderNames() []string {
	names := make([]string, len(r.Founders))
	for i, f := range r.Founders {
		names[i] = f.Name
	}
	return names
}

// FounderLinks returns LinkedIn links aligned index for index with FounderNames.
func (r Record) FounderLinks() []string {
	links := make([]string, len(r.Founders))
	for i, f := range r.Founders {
		links[i] = f.LinkedIn
	}
	return links
}
