package formatter

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"

	"codir/internal/company"
)

// RecordContent renders a record set in every output format.
type RecordContent struct {
	set *company.RecordSet
}

func NewRecordContent(set *company.RecordSet) *RecordContent {
	return &RecordContent{set: set}
}

func (c *RecordContent) ToCSV() (string, error) {
	b, err := Serialize(c.set)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *RecordContent) ToJSON() ([]byte, error) {
	return json.Marshal(c.set)
}

// ToHTML returns the records as a single table with the export header.
func (c *RecordContent) ToHTML() (string, error) {
	var sb strings.Builder
	sb.WriteString("<table>\n<thead>\n<tr>")
	for _, h := range Header {
		sb.WriteString("<th>" + html.EscapeString(h) + "</th>")
	}
	sb.WriteString("</tr>\n</thead>\n<tbody>\n")
	for _, r := range c.set.Records() {
		sb.WriteString("<tr>")
		for _, cell := range row(r) {
			sb.WriteString("<td>" + html.EscapeString(cell) + "</td>")
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("</tbody>\n</table>\n")
	return sb.String(), nil
}

// ToMarkdown converts the HTML table into a GitHub flavored Markdown table.
func (c *RecordContent) ToMarkdown() (string, error) {
	table, err := c.ToHTML()
	if err != nil {
		return "", err
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	markdown, err := converter.ConvertString(table)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	return markdown, nil
}

// ToText delegates to ToMarkdown
func (c *RecordContent) ToText() (string, error) {
	return c.ToMarkdown()
}
