// Package streamparse turns a fully streamed free-text campaign completion into
// its labelled sections.
//
// Anchors are English only. Campaigns generated in other languages still use the
// English section labels because the instruction template asks for them verbatim.
package streamparse

import (
	"regexp"
	"strings"
)

// Section anchors as they appear in the generated text.
const (
	TitleAnchor       = "**Campaign Title**"
	AboutAnchor       = "**About the Company**"
	DescriptionAnchor = "**Campaign Description**"
)

var (
	titleRe       = regexp.MustCompile(`\*\*Campaign Title\*\*[ \t]*\r?\n(.+)`)
	aboutRe       = regexp.MustCompile(`(?s)\*\*About the Company\*\*[ \t]*\r?\n(.+?)\s*\*\*Campaign Description\*\*`)
	descriptionRe = regexp.MustCompile(`(?s)\*\*Campaign Description\*\*[ \t]*\r?\n(.+)`)
)

// Sections holds the parsed campaign fields. Missing sections are empty strings.
type Sections struct {
	Title        string `json:"title"`
	AboutCompany string `json:"aboutCompany"`
	Description  string `json:"description"`
}

// Parse extracts the three sections. It never fails: text without a recognizable
// anchor yields empty fields.
func Parse(text string) Sections {
	return Sections{
		Title:        firstGroup(titleRe, text),
		AboutCompany: firstGroup(aboutRe, text),
		Description:  firstGroup(descriptionRe, text),
	}
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
