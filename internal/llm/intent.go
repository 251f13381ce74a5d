package llm

import (
	"fmt"

	"github.com/jmylchreest/campaign-brief/internal/models"
)

// Intent is the fixed purpose of a completion call.
type Intent int

// Known intents. The set is closed; Valid rejects anything else.
const (
	IntentSummary Intent = iota + 1
	IntentCampaign
	IntentBufferedCampaign
	IntentPlatform
	IntentInvite
	IntentWelcome
	IntentReject
)

var intentNames = map[Intent]string{
	IntentSummary:          "summary",
	IntentCampaign:         "campaign",
	IntentBufferedCampaign: "buffered_campaign",
	IntentPlatform:         "platform_guidelines",
	IntentInvite:           "invite",
	IntentWelcome:          "welcome",
	IntentReject:           "reject",
}

// String returns the intent name, which is also its instruction resource name.
func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return fmt.Sprintf("intent(%d)", int(i))
}

// Valid reports whether i is a known intent.
func (i Intent) Valid() bool {
	_, ok := intentNames[i]
	return ok
}

// AllIntents returns every intent in declaration order.
func AllIntents() []Intent {
	return []Intent{
		IntentSummary, IntentCampaign, IntentBufferedCampaign, IntentPlatform,
		IntentInvite, IntentWelcome, IntentReject,
	}
}

// InstructionNames returns the instruction resource names needed at startup.
func InstructionNames() []string {
	intents := AllIntents()
	names := make([]string, len(intents))
	for i, intent := range intents {
		names[i] = intent.String()
	}
	return names
}

// IntentForMailType maps a mail type to its message intent.
func IntentForMailType(m models.MailType) (Intent, error) {
	switch m {
	case models.MailInvite:
		return IntentInvite, nil
	case models.MailWelcome:
		return IntentWelcome, nil
	case models.MailReject:
		return IntentReject, nil
	default:
		return 0, fmt.Errorf("no intent for mail type %q", m)
	}
}

// ModelTier selects between the inexpensive and the more capable model.
type ModelTier string

const (
	TierCheap   ModelTier = "cheap"
	TierCapable ModelTier = "capable"
)

// ResponseMode is the output format requested from the provider.
type ResponseMode string

const (
	ModeFreeText ResponseMode = "freeText"
	ModeJSON     ResponseMode = "structuredJSON"
)

// IntentSpec is the fixed configuration tuple of one intent.
type IntentSpec struct {
	Intent      Intent
	Instruction string
	Tier        ModelTier
	Mode        ResponseMode
	Temperature float64
	MaxTokens   int // 0 leaves the provider default
}

// DefaultSpecs returns the per-intent table without instructions.
func DefaultSpecs() map[Intent]IntentSpec {
	return map[Intent]IntentSpec{
		IntentSummary:          {Intent: IntentSummary, Tier: TierCheap, Mode: ModeFreeText, Temperature: 0.6},
		IntentCampaign:         {Intent: IntentCampaign, Tier: TierCheap, Mode: ModeFreeText, Temperature: 0.3},
		IntentBufferedCampaign: {Intent: IntentBufferedCampaign, Tier: TierCapable, Mode: ModeJSON, Temperature: 0.6, MaxTokens: 600},
		IntentPlatform:         {Intent: IntentPlatform, Tier: TierCapable, Mode: ModeJSON, Temperature: 0.6},
		IntentInvite:           {Intent: IntentInvite, Tier: TierCheap, Mode: ModeJSON, Temperature: 0.6},
		IntentWelcome:          {Intent: IntentWelcome, Tier: TierCheap, Mode: ModeJSON, Temperature: 0.6},
		IntentReject:           {Intent: IntentReject, Tier: TierCheap, Mode: ModeJSON, Temperature: 0.6},
	}
}
