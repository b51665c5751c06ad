// ABOUTME: Follow-up cadence templates keyed by person type
// ABOUTME: Turns a template into scheduled follow_up_queue rows
package outcome

import (
	"time"

	"github.com/harperreed/frontdesk/models"
)

// Cadence maps a follow-up person type to the day offsets of each touch.
type Cadence map[string][]int

// DefaultCadence is the studio's standard nurture schedule.
func DefaultCadence() Cadence {
	return Cadence{
		models.PersonTypeNoShow:   {1, 3, 7},
		models.PersonTypeDidntBuy: {1, 3, 7, 14, 30},
	}
}

// Build schedules one pending follow-up per template step, counted in days
// from from. Unknown person types produce no rows.
func (c Cadence) Build(bookingID, personName, personType, objection string, from time.Time) []models.FollowUp {
	offsets := c[personType]
	if len(offsets) == 0 {
		return nil
	}

	// Objections only travel with didn't-buy follow-ups
	if personType != models.PersonTypeDidntBuy {
		objection = ""
	}

	followUps := make([]models.FollowUp, 0, len(offsets))
	for i, days := range offsets {
		followUps = append(followUps, models.FollowUp{
			BookingID:        bookingID,
			PersonName:       personName,
			PersonType:       personType,
			TouchNumber:      i + 1,
			ScheduledDate:    from.AddDate(0, 0, days).Format(models.DateLayout),
			Status:           models.FollowUpPending,
			PrimaryObjection: objection,
		})
	}
	return followUps
}

// followUpPlan is what reconciliation must do to the follow-up queue.
type followUpPlan struct {
	deletePending bool
	regenerate    string // person type to regenerate, or ""
}

// planFollowUps decides the follow-up queue changes for a result transition.
func planFollowUps(prev, next string) followUpPlan {
	prevType := models.PersonTypeForResult(prev)
	nextType := models.PersonTypeForResult(next)

	switch {
	case models.IsSale(next):
		return followUpPlan{deletePending: prevType != ""}
	case models.IsNotInterested(next):
		return followUpPlan{deletePending: !models.IsNotInterested(prev)}
	case nextType == "":
		return followUpPlan{}
	case nextType == prevType:
		return followUpPlan{}
	case prevType != "":
		// Switching between no-show and didn't buy: cadences differ
		return followUpPlan{deletePending: true, regenerate: nextType}
	default:
		return followUpPlan{regenerate: nextType}
	}
}
