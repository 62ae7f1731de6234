package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIntentsMatch(t *testing.T) {
	table := DefaultIntents()
	tests := []struct {
		text string
		want Intent
	}{
		{"I need to see a dentist at the earliest", IntentDentist},
		{"DENTAL checkup please", IntentDentist},
		{"my tooth hurts", IntentGeneral},
		{"I want to book a cardiology appointment", IntentGeneral},
		{"", IntentGeneral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, table.Match(tt.text), tt.text)
	}
}

func TestIntentTableFirstRuleWins(t *testing.T) {
	table := IntentTable{
		{Intent: "eyes", Keywords: []string{"eye"}},
		{Intent: IntentDentist, Keywords: []string{"dentist"}},
	}
	assert.Equal(t, Intent("eyes"), table.Match("eye and dentist"))
	assert.Equal(t, IntentGeneral, IntentTable{}.Match("dentist"))
}
