package outcome

import (
	"testing"
	"time"

	"github.com/harperreed/frontdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCadenceBuild(t *testing.T) {
	from := time.Date(2026, 3, 30, 10, 0, 0, 0, time.UTC)

	rows := DefaultCadence().Build("b-1", "Jane Doe", models.PersonTypeDidntBuy, "Pricing", from)
	require.Len(t, rows, 5)
	assert.Equal(t, 1, rows[0].TouchNumber)
	assert.Equal(t, "2026-03-31", rows[0].ScheduledDate)
	assert.Equal(t, "2026-04-29", rows[4].ScheduledDate)
	assert.Equal(t, "Pricing", rows[4].PrimaryObjection)

	rows = DefaultCadence().Build("b-1", "Jane Doe", models.PersonTypeNoShow, "Pricing", from)
	require.Len(t, rows, 3)
	assert.Empty(t, rows[0].PrimaryObjection)

	assert.Nil(t, DefaultCadence().Build("b-1", "Jane Doe", "walk_in", "", from))
}

func TestPlanFollowUps(t *testing.T) {
	tests := []struct {
		name string
		prev string
		next string
		want followUpPlan
	}{
		{"sale from no-show", models.ResultNoShow, "Premier", followUpPlan{deletePending: true}},
		{"sale from didn't buy", "didnt buy", "Elite", followUpPlan{deletePending: true}},
		{"first sale", "", "Premier", followUpPlan{}},
		{"upgrade", "Premier", "Elite", followUpPlan{}},
		{"into no-show", "", models.ResultNoShow, followUpPlan{regenerate: models.PersonTypeNoShow}},
		{"sale reversed", "Premier", models.ResultDidntBuy, followUpPlan{regenerate: models.PersonTypeDidntBuy}},
		{"no-show to didn't buy", models.ResultNoShow, models.ResultDidntBuy, followUpPlan{deletePending: true, regenerate: models.PersonTypeDidntBuy}},
		{"didn't buy to no-show", models.ResultDidntBuy, "no show", followUpPlan{deletePending: true, regenerate: models.PersonTypeNoShow}},
		{"same category", models.ResultDidntBuy, "Didn't buy", followUpPlan{}},
		{"not interested", models.ResultDidntBuy, models.ResultNotInterested, followUpPlan{deletePending: true}},
		{"still not interested", models.ResultNotInterested, "not interested", followUpPlan{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, planFollowUps(tt.prev, tt.next))
		})
	}
}

func TestIsAMCEligible(t *testing.T) {
	assert.True(t, IsAMCEligible("Premier", "Instagram"))
	assert.True(t, IsAMCEligible("Elite", ""))
	assert.False(t, IsAMCEligible("10 Class Pack", "Instagram"))
	assert.False(t, IsAMCEligible("Drop-In", ""))
	assert.False(t, IsAMCEligible("Premier", "Transfer from Downtown"))
	assert.False(t, IsAMCEligible("Premier", "Existing Member upgrade"))
	assert.False(t, IsAMCEligible("", "Instagram"))
}
