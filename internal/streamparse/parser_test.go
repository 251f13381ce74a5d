package streamparse

import "testing"

const fullCampaign = `**Campaign Title**
Eco Bottles Summer Push

**About the Company**
Eco Bottles makes reusable bottles.
They ship across Europe.

**Campaign Description**
Promote our summer range.

Earn 10% per sale.
`

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Sections
	}{
		{
			name: "all sections",
			text: fullCampaign,
			want: Sections{
				Title:        "Eco Bottles Summer Push",
				AboutCompany: "Eco Bottles makes reusable bottles.\nThey ship across Europe.",
				Description:  "Promote our summer range.\n\nEarn 10% per sale.",
			},
		},
		{
			name: "empty",
			text: "",
			want: Sections{},
		},
		{
			name: "no anchors",
			text: "Here is a great campaign for you!",
			want: Sections{},
		},
		{
			name: "title only",
			text: "**Campaign Title**\nJust a title\n",
			want: Sections{Title: "Just a title"},
		},
		{
			name: "about without description anchor",
			text: "**About the Company**\nWe make things.\n",
			want: Sections{},
		},
		{
			name: "description runs to end of text",
			text: "intro\n**Campaign Description**\nLine one\nLine two",
			want: Sections{Description: "Line one\nLine two"},
		},
		{
			name: "crlf line endings",
			text: "**Campaign Title**\r\nWindows Title\r\n\r\n**About the Company**\r\nAbout\r\n\r\n**Campaign Description**\r\nDesc",
			want: Sections{Title: "Windows Title", AboutCompany: "About", Description: "Desc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text)
			if got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParse_Idempotent(t *testing.T) {
	first := Parse(fullCampaign)
	second := Parse(fullCampaign)
	if first != second {
		t.Errorf("Parse() not idempotent: %+v vs %+v", first, second)
	}
}

func TestParse_Total(t *testing.T) {
	inputs := []string{
		"**Campaign Title**",
		"**Campaign Title**\n",
		"**About the Company**\n\n**Campaign Description**",
		"**Campaign Description**",
		"\x00\xff garbage",
	}
	for _, in := range inputs {
		// Must not panic; any string result is acceptable.
		_ = Parse(in)
	}
}
