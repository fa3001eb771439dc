package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"codir/internal/company"
)

// Header is the fixed first row of every export.
var Header = []string{"Company Name", "Location", "Description", "Batch", "Website", "Founder", "LinkedIn"}

// Export file name and media type used for downloads.
const (
	CSVFilename  = "companies_data.csv"
	CSVMediaType = "text/csv"
)

// WriteCSV writes the header and one row per record in insertion order.
// Founders and their links are each joined into a single cell.
func WriteCSV(w io.Writer, set *company.RecordSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range set.Records() {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("failed to write row for %q: %w", r.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Serialize returns the CSV export as bytes.
func Serialize(set *company.RecordSet) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, set); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func row(r company.Record) []string {
	return []string{
		r.Name,
		r.Location,
		r.Description,
		r.Batch,
		r.WebsiteOrEmpty(),
		strings.Join(r.FounderNames(), ", "),
		strings.Join(r.FounderLinks(), ", "),
	}
}
