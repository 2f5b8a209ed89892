package types

import "strings"

// IntentCategory is the closed set of responder variants. Classification
// always lands on exactly one category per turn.
type IntentCategory string

const (
	IntentEmergency    IntentCategory = "emergency"
	IntentSales        IntentCategory = "sales"
	IntentSchedule     IntentCategory = "schedule"
	IntentSupport      IntentCategory = "support"
	IntentAvailability IntentCategory = "availability"
	IntentUnknown      IntentCategory = "unknown"
)

// intentPriority resolves ambiguous classifier output. Lower is higher
// priority.
var intentPriority = map[IntentCategory]int{
	IntentEmergency:    0,
	IntentSchedule:     1,
	IntentSales:        2,
	IntentSupport:      3,
	IntentAvailability: 4,
}

// ParseIntent maps a raw classifier label to a category. Unrecognized
// labels come back as IntentUnknown so the caller can apply its fallback.
func ParseIntent(raw string) IntentCategory {
	switch IntentCategory(strings.ToLower(strings.TrimSpace(raw))) {
	case IntentEmergency:
		return IntentEmergency
	case IntentSales:
		return IntentSales
	case IntentSchedule:
		return IntentSchedule
	case IntentSupport:
		return IntentSupport
	case IntentAvailability:
		return IntentAvailability
	}
	return IntentUnknown
}

// HigherPriority reports whether a outranks b in the fixed tie-break
// order emergency > schedule > sales > support > availability.
func HigherPriority(a, b IntentCategory) bool {
	pa, oka := intentPriority[a]
	pb, okb := intentPriority[b]
	if !oka {
		return false
	}
	if !okb {
		return true
	}
	return pa < pb
}

// IntentClassification is the transient result of routing one message.
type IntentClassification struct {
	Category   IntentCategory `json:"category"`
	Confidence float64        `json:"confidence,omitempty"`
	RawMessage string         `json:"raw_message"`
}
