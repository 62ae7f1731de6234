package chat

import "strings"

// Intent is what the assistant decided a free-text message asks for.
type Intent string

const (
	IntentGeneral Intent = "general"
	IntentDentist Intent = "dentist"
)

// IntentRule fires when any keyword occurs in the message.
type IntentRule struct {
	Intent   Intent
	Keywords []string
}

// IntentTable is a keyword lookup, first match wins. It is a placeholder
// for real language understanding and only recognises literal substrings.
type IntentTable []IntentRule

// DefaultIntents recognises dental requests; everything else is general.
func DefaultIntents() IntentTable {
	return IntentTable{
		{Intent: IntentDentist, Keywords: []string{"dentist", "dental"}},
	}
}

// Match returns the first rule whose keyword occurs in text, ignoring case.
func (t IntentTable) Match(text string) Intent {
	lower := strings.ToLower(text)
	for _, rule := range t {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return rule.Intent
			}
		}
	}
	return IntentGeneral
}
