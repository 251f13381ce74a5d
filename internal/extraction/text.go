package extraction

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultDenylist is used when no denylist resource is configured. Paragraphs
// containing any of these phrases are cookie or consent boilerplate.
var DefaultDenylist = []string{
	"cookie",
	"cookies",
	"consent",
	"privacy policy",
	"privatlivspolitik",
	"samtykke",
	"accept all",
	"accepter",
}

// Denylist matches paragraph text against phrases, case-insensitively.
type Denylist struct {
	phrases []string
}

// NewDenylist creates a denylist. Empty phrases are ignored.
func NewDenylist(phrases []string) *Denylist {
	lowered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			lowered = append(lowered, p)
		}
	}
	return &Denylist{phrases: lowered}
}

// Matches reports whether text contains a denied phrase.
func (d *Denylist) Matches(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range d.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// ExtractText returns the page title followed by the text of every <p> element
// that does not match the denylist, each prefixed with a single space. When
// title is empty the document's <title> is used.
func ExtractText(html, title string, denylist *Denylist) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	if title == "" {
		title = doc.Find("title").First().Text()
	}

	var b strings.Builder
	b.WriteString(title)
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if denylist != nil && denylist.Matches(text) {
			return
		}
		b.WriteByte(' ')
		b.WriteString(text)
	})

	return b.String(), nil
}
