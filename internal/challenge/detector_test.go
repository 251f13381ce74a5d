package challenge

import "testing"

func TestDetector_Detect(t *testing.T) {
	d := NewDetector(nil)

	tests := []struct {
		name        string
		title       string
		text        string
		wantBlocked bool
		wantPhrase  string
	}{
		{"clean page", "Acme Bottles", " We make bottles.", false, ""},
		{"cloudflare title", "Just a moment...", "", true, "just a moment..."},
		{"access denied in text", "Acme", " ACCESS DENIED for your region", true, "access denied"},
		{"request rejected", "", "The requested URL was rejected. Request Rejected.", true, "request rejected"},
		{"danish interstitial", "Et øjeblik", "", true, "et øjeblik"},
		{"partial phrase", "Just a moment", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.title, tt.text)
			if got.Blocked() != tt.wantBlocked {
				t.Errorf("Blocked() = %v, want %v", got.Blocked(), tt.wantBlocked)
			}
			if got.Phrase != tt.wantPhrase {
				t.Errorf("Phrase = %q, want %q", got.Phrase, tt.wantPhrase)
			}
			if got.Title != tt.title {
				t.Errorf("Title = %q, want %q", got.Title, tt.title)
			}
		})
	}
}

func TestNewDetector_CustomPhrases(t *testing.T) {
	d := NewDetector([]string{"  Bot Check ", "", "Verify You Are Human"})

	if got := d.Phrases(); len(got) != 2 || got[0] != "bot check" {
		t.Errorf("Phrases() = %v, want [bot check verify you are human]", got)
	}
	if !d.Detect("BOT CHECK", "").Blocked() {
		t.Error("custom phrase should match case-insensitively")
	}
	if d.Detect("Access denied", "").Blocked() {
		t.Error("default phrases should not apply when a custom list is set")
	}
}
