package llm

import (
	"testing"

	"github.com/jmylchreest/campaign-brief/internal/models"
)

func TestIntent_String(t *testing.T) {
	if IntentPlatform.String() != "platform_guidelines" {
		t.Errorf("String() = %q, want %q", IntentPlatform.String(), "platform_guidelines")
	}
	if Intent(99).Valid() {
		t.Error("Intent(99) should not be valid")
	}
	if Intent(99).String() != "intent(99)" {
		t.Errorf("String() = %q, want %q", Intent(99).String(), "intent(99)")
	}
}

func TestDefaultSpecs_CoverAllIntents(t *testing.T) {
	specs := DefaultSpecs()
	for _, intent := range AllIntents() {
		spec, ok := specs[intent]
		if !ok {
			t.Errorf("no spec for %s", intent)
			continue
		}
		if spec.Intent != intent {
			t.Errorf("spec for %s has Intent %s", intent, spec.Intent)
		}
	}
	if len(specs) != len(AllIntents()) {
		t.Errorf("len(DefaultSpecs()) = %d, want %d", len(specs), len(AllIntents()))
	}
}

func TestDefaultSpecs_Modes(t *testing.T) {
	specs := DefaultSpecs()
	freeText := map[Intent]bool{IntentSummary: true, IntentCampaign: true}
	for intent, spec := range specs {
		want := ModeJSON
		if freeText[intent] {
			want = ModeFreeText
		}
		if spec.Mode != want {
			t.Errorf("%s Mode = %q, want %q", intent, spec.Mode, want)
		}
	}
}

func TestIntentForMailType(t *testing.T) {
	tests := []struct {
		mail models.MailType
		want Intent
	}{
		{models.MailInvite, IntentInvite},
		{models.MailWelcome, IntentWelcome},
		{models.MailReject, IntentReject},
	}
	for _, tt := range tests {
		got, err := IntentForMailType(tt.mail)
		if err != nil || got != tt.want {
			t.Errorf("IntentForMailType(%q) = %v, %v, want %v", tt.mail, got, err, tt.want)
		}
	}
	if _, err := IntentForMailType("farewell"); err == nil {
		t.Error("IntentForMailType(farewell) should fail")
	}
}

func TestProviders(t *testing.T) {
	for _, p := range ValidProviders() {
		if !IsValidProvider(p) {
			t.Errorf("IsValidProvider(%q) = false", p)
		}
		if DefaultModel(p, TierCheap) == "" || DefaultModel(p, TierCapable) == "" {
			t.Errorf("missing default models for %q", p)
		}
	}
	if IsValidProvider("ollama") {
		t.Error("IsValidProvider(ollama) should be false")
	}
	if _, err := NewProvider(ProviderConfig{Name: "ollama"}); err == nil {
		t.Error("NewProvider(ollama) should fail")
	}
}
