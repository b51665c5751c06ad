package outcome

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/frontdesk/db"
	"github.com/harperreed/frontdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)

func setupService(t *testing.T) (*Service, *db.Store) {
	t.Helper()
	store, err := db.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := NewService(store, log.New(io.Discard))
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

// seedNoShow creates a booking whose run is a no-show with pending follow-ups.
func seedNoShow(t *testing.T, store *db.Store) (*models.Booking, *models.Run) {
	t.Helper()
	ctx := context.Background()

	booking := &models.Booking{MemberName: "Jane Doe", ClassDate: "2026-03-01", LeadSource: "Instagram", IntroOwner: "Alex"}
	require.NoError(t, store.CreateBooking(ctx, booking))

	run := &models.Run{LinkedBookingID: booking.ID, MemberName: "Jane Doe", RunDate: "2026-03-01", Result: models.ResultNoShow, IntroOwner: "Alex"}
	require.NoError(t, store.CreateRun(ctx, run))

	rows := DefaultCadence().Build(booking.ID, "Jane Doe", models.PersonTypeNoShow, "", fixedNow.AddDate(0, 0, -1))
	require.NoError(t, store.CreateFollowUps(ctx, rows))
	return booking, run
}

func TestSaleClearsFollowUpsAndIncrementsAMC(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()
	booking, run := seedNoShow(t, store)

	commission := 15.0
	res := svc.ApplyIntroOutcomeUpdate(ctx, Params{
		BookingID:        booking.ID,
		MemberName:       "Jane Doe",
		ClassDate:        "2026-03-01",
		NewResult:        "Premier",
		MembershipType:   "Premier",
		CommissionAmount: &commission,
		EditedBy:         "Alex",
		SourceComponent:  "MyDayPage",
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, run.ID, res.RunID)
	assert.True(t, res.AMCIncremented)
	assert.True(t, res.NewSale)

	gotRun, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "Premier", gotRun.Result)
	assert.Equal(t, "2026-03-02", gotRun.BuyDate)
	assert.Equal(t, 15.0, gotRun.CommissionAmount)
	assert.Equal(t, 2, gotRun.Version)
	assert.Equal(t, "Alex", gotRun.LastEditedBy)
	assert.Equal(t, "Result changed from No-show to Premier", gotRun.EditReason)

	gotBooking, err := store.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "Closed – Bought", gotBooking.BookingStatus)
	assert.Equal(t, "Alex", gotBooking.ClosedBy)
	assert.NotNil(t, gotBooking.ClosedAt)

	followUps, err := store.ListFollowUpsForBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Empty(t, followUps)

	changes, err := store.ListOutcomeChanges(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].AMCIncremented)
	assert.Equal(t, models.ResultNoShow, changes[0].OldResult)
	assert.Equal(t, "Premier", changes[0].NewResult)
	assert.Equal(t, models.BookingStatusActive, changes[0].OldStatus)
	assert.Equal(t, models.BookingStatusClosedBought, changes[0].NewStatus)
	assert.Equal(t, "MyDayPage", changes[0].SourceComponent)

	total, err := store.AMCTotalForDate(ctx, "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestRepeatedSaleDoesNotDoubleCountAMC(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()
	booking, _ := seedNoShow(t, store)

	params := Params{BookingID: booking.ID, NewResult: "Premier", EditedBy: "Alex"}
	require.True(t, svc.ApplyIntroOutcomeUpdate(ctx, params).Success)

	second := svc.ApplyIntroOutcomeUpdate(ctx, params)
	require.True(t, second.Success, second.Error)
	assert.False(t, second.AMCIncremented)
	assert.False(t, second.NewSale)

	total, err := store.AMCTotalForDate(ctx, "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	changes, err := store.ListOutcomeChanges(ctx, booking.ID)
	require.NoError(t, err)
	assert.Len(t, changes, 2, "every update is audited")
}

func TestNoShowToDidntBuyRegeneratesFollowUps(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()
	booking, run := seedNoShow(t, store)

	before, err := store.ListFollowUpsForBooking(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, before, 3)

	res := svc.ApplyIntroOutcomeUpdate(ctx, Params{
		BookingID: booking.ID,
		NewResult: models.ResultDidntBuy,
		Objection: "Pricing",
		EditedBy:  "Alex",
	})
	require.True(t, res.Success, res.Error)
	assert.False(t, res.AMCIncremented)

	after, err := store.ListFollowUpsForBooking(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, after, 5)
	for _, f := range after {
		assert.Equal(t, models.PersonTypeDidntBuy, f.PersonType)
		assert.Equal(t, "Pricing", f.PrimaryObjection)
		assert.Equal(t, models.FollowUpPending, f.Status)
		for _, old := range before {
			assert.NotEqual(t, old.ID, f.ID)
		}
	}

	gotRun, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pricing", gotRun.PrimaryObjection)
	assert.Empty(t, gotRun.BuyDate)

	gotBooking, err := store.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusActive, gotBooking.BookingStatus)
}

func TestNotInterestedClearsFollowUps(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()
	booking, _ := seedNoShow(t, store)

	res := svc.ApplyIntroOutcomeUpdate(ctx, Params{BookingID: booking.ID, NewResult: models.ResultNotInterested, EditedBy: "Alex"})
	require.True(t, res.Success, res.Error)

	followUps, err := store.ListFollowUpsForBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Empty(t, followUps)

	gotBooking, err := store.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusNotInterested, gotBooking.BookingStatus)
}

func TestBookingWithoutRunGetsOne(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()

	booking := &models.Booking{MemberName: "Sam Lee", ClassDate: "2026-03-01"}
	require.NoError(t, store.CreateBooking(ctx, booking))

	res := svc.ApplyIntroOutcomeUpdate(ctx, Params{BookingID: booking.ID, NewResult: models.ResultNoShow, EditedBy: "Alex"})
	require.True(t, res.Success, res.Error)
	require.NotEmpty(t, res.RunID)

	run, err := store.GetRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, run.LinkedBookingID)
	assert.Equal(t, models.ResultNoShow, run.Result)
	assert.Equal(t, "2026-03-01", run.RunDate)

	followUps, err := store.ListFollowUpsForBooking(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, followUps, 3)
	assert.Equal(t, "2026-03-03", followUps[0].ScheduledDate)
}

func TestStaleVersionRollsBackEverything(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()
	booking, run := seedNoShow(t, store)

	res := svc.ApplyIntroOutcomeUpdate(ctx, Params{
		BookingID:       booking.ID,
		RunID:           run.ID,
		NewResult:       "Premier",
		EditedBy:        "Alex",
		ExpectedVersion: 7,
	})
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, db.ErrConflict)
	assert.NotEmpty(t, res.Error)

	gotBooking, err := store.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusActive, gotBooking.BookingStatus)

	changes, err := store.ListOutcomeChanges(ctx, booking.ID)
	require.NoError(t, err)
	assert.Empty(t, changes)

	followUps, err := store.ListFollowUpsForBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Len(t, followUps, 3)
}

func TestValidationHappensBeforeIO(t *testing.T) {
	svc, _ := setupService(t)

	res := svc.ApplyIntroOutcomeUpdate(context.Background(), Params{BookingID: "b-1", NewResult: "Premier"})
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrValidation)
	assert.Contains(t, res.Error, "edited_by")
}

func TestMissingBookingIsReported(t *testing.T) {
	svc, _ := setupService(t)

	res := svc.ApplyIntroOutcomeUpdate(context.Background(), Params{BookingID: "missing", NewResult: "Premier", EditedBy: "Alex"})
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, db.ErrNotFound)
}

func TestIneligibleSaleSkipsAMC(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()
	booking, _ := seedNoShow(t, store)

	res := svc.ApplyIntroOutcomeUpdate(ctx, Params{
		BookingID:      booking.ID,
		NewResult:      "10 Class Pack",
		MembershipType: "10 Class Pack",
		EditedBy:       "Alex",
	})
	require.True(t, res.Success, res.Error)
	assert.False(t, res.AMCIncremented)

	changes, err := store.ListOutcomeChanges(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.False(t, changes[0].AMCIncremented)
}

func TestCloseStampsFollowTheSale(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()
	booking, _ := seedNoShow(t, store)

	require.True(t, svc.ApplyIntroOutcomeUpdate(ctx, Params{BookingID: booking.ID, NewResult: "Premier", EditedBy: "Alex"}).Success)

	// Switching between memberships keeps the original close
	svc.now = func() time.Time { return fixedNow.AddDate(0, 0, 10) }
	res := svc.ApplyIntroOutcomeUpdate(ctx, Params{BookingID: booking.ID, NewResult: "Elite", EditedBy: "Sam"})
	require.True(t, res.Success, res.Error)

	gotBooking, err := store.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusClosedBought, gotBooking.BookingStatus)
	assert.Equal(t, "Alex", gotBooking.ClosedBy)
	require.NotNil(t, gotBooking.ClosedAt)
	assert.Equal(t, "2026-03-02", gotBooking.ClosedAt.UTC().Format(models.DateLayout))

	res = svc.ApplyIntroOutcomeUpdate(ctx, Params{BookingID: booking.ID, NewResult: models.ResultDidntBuy, Objection: "Price", EditedBy: "Sam"})
	require.True(t, res.Success, res.Error)

	gotBooking, err = store.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusActive, gotBooking.BookingStatus)
	assert.Empty(t, gotBooking.ClosedBy)
	assert.Nil(t, gotBooking.ClosedAt)
}

func TestStoredResultWinsOverCallerPrevious(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()
	booking, _ := seedNoShow(t, store)

	res := svc.ApplyIntroOutcomeUpdate(ctx, Params{
		BookingID:      booking.ID,
		PreviousResult: "Elite",
		NewResult:      "Premier",
		EditedBy:       "Alex",
	})
	require.True(t, res.Success, res.Error)
	assert.True(t, res.NewSale)
	assert.True(t, res.AMCIncremented)

	followUps, err := store.ListFollowUpsForBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Empty(t, followUps)

	changes, err := store.ListOutcomeChanges(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, models.ResultNoShow, changes[0].OldResult)
}

func TestRunFromAnotherBookingIsRejected(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()
	_, run := seedNoShow(t, store)

	other := &models.Booking{MemberName: "Pat Kim", ClassDate: "2026-03-01"}
	require.NoError(t, store.CreateBooking(ctx, other))

	res := svc.ApplyIntroOutcomeUpdate(ctx, Params{BookingID: other.ID, RunID: run.ID, NewResult: "Premier", EditedBy: "Alex"})
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrValidation)

	gotRun, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultNoShow, gotRun.Result)
	assert.Equal(t, 1, gotRun.Version)

	gotOther, err := store.GetBooking(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusActive, gotOther.BookingStatus)
}
