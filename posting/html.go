package posting

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockTags end a line of visible text.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "footer": true,
	"tr": true, "table": true,
}

// HTMLText reduces an HTML page to its visible text. Scripts, styles and
// other non-content elements are dropped, whitespace within a block is
// collapsed and blocks are separated by newlines.
func HTMLText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, template, svg, iframe, head").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				b.WriteString(cleanText(c.Text()))
				b.WriteByte(' ')
				return
			}
			block := blockTags[goquery.NodeName(c)]
			if block {
				b.WriteByte('\n')
			}
			walk(c)
			if block {
				b.WriteByte('\n')
			}
		})
	}
	walk(root)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = cleanText(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
