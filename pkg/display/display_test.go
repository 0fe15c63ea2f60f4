package display_test

import (
	"testing"

	"github.com/aretw0/funnel/pkg/display"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var table = display.Table{
	Product: "health",
	Entries: map[string]display.Entry{
		"family.pincode": func(s *domain.Snapshot) display.Card {
			return display.Card{Title: display.Greeting(s, "Your quote is waiting"), Urgency: display.UrgencyMedium, Badge: "In progress"}
		},
		"payment.success": display.Static(display.Card{Title: "Policy issued", Urgency: display.UrgencyLow, Badge: "Done"}),
	},
}

func TestMapper_Map(t *testing.T) {
	m := display.NewMapper(table)

	card, ok := m.Map("health", &domain.Snapshot{CurrentStepID: "family.pincode", Fields: map[string]any{"name": "Asha"}})
	require.True(t, ok)
	assert.Equal(t, "Asha, your quote is waiting", card.Title)

	card, ok = m.Map("health", &domain.Snapshot{CurrentStepID: "family.pincode", Fields: map[string]any{}})
	require.True(t, ok)
	assert.Equal(t, "Your quote is waiting", card.Title)

	_, ok = m.Map("health", nil)
	assert.False(t, ok)
	_, ok = m.Map("motor", &domain.Snapshot{CurrentStepID: "family.pincode"})
	assert.False(t, ok)
	_, ok = m.Map("health", &domain.Snapshot{CurrentStepID: "intro.welcome"})
	assert.False(t, ok)

	assert.Equal(t, []string{"health"}, m.Products())
	assert.Equal(t, []string{"Done", "In progress"}, m.Badges())
}

func TestTable_Covers(t *testing.T) {
	assert.NoError(t, table.Covers([]string{"family.pincode", "payment.success"}))

	err := table.Covers([]string{"family.pincode", "recommendation.plans"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recommendation.plans")
}
