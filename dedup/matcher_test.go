package dedup

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/harperreed/frontdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "john smith", NormalizeName("  John   SMITH "))
	assert.Equal(t, "jose garcia", NormalizeName("José García"))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestCalculateNameSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, CalculateNameSimilarity("john smith", "john smith"))
	assert.Equal(t, 1.0, CalculateNameSimilarity("John Smith", "john  smith"))
	assert.Equal(t, 1.0, CalculateNameSimilarity("José García", "Jose Garcia"))

	score := CalculateNameSimilarity("john smith", "jon smyth")
	assert.InDelta(t, 0.8, score, 1e-9)
	assert.GreaterOrEqual(t, score, PartialThreshold)
	assert.Less(t, score, FuzzyThreshold)
	assert.Equal(t, KindPartial, Classify(score, false))

	assert.Equal(t, 1.0, CalculateNameSimilarity("", ""))
	assert.Equal(t, 0.0, CalculateNameSimilarity("abc", ""))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindExact, Classify(1, false))
	assert.Equal(t, KindFuzzy, Classify(0.9, false))
	assert.Equal(t, KindFuzzy, Classify(0.85, false))
	assert.Equal(t, KindPartial, Classify(0.6, false))
	assert.Equal(t, KindPartial, Classify(0.3, true))
	assert.Equal(t, MatchKind(""), Classify(0.59, false))
}

func TestFindMatchesRanksAndWarns(t *testing.T) {
	bookings := []models.Booking{
		{ID: "alice", MemberName: "Alice Wong", BookingStatus: models.BookingStatusActive},
		{ID: "johnny", MemberName: "Johnny Smithers", BookingStatus: models.BookingStatusActive},
		{ID: "jon", MemberName: "Jon Smyth", BookingStatus: models.BookingStatusNoShow},
		{ID: "john", MemberName: "John Smith", BookingStatus: models.BookingStatusActive},
	}

	matches := FindMatches("john smith", bookings)
	require.Len(t, matches, 3)

	assert.Equal(t, "john", matches[0].Booking.ID)
	assert.Equal(t, KindExact, matches[0].Kind)
	assert.Equal(t, "has an active booking", matches[0].Warning)

	assert.Equal(t, "jon", matches[1].Booking.ID)
	assert.Equal(t, KindPartial, matches[1].Kind)
	assert.Equal(t, "previously no-showed", matches[1].Warning)

	assert.Equal(t, "johnny", matches[2].Booking.ID)
	assert.Equal(t, KindPartial, matches[2].Kind)
}

func TestFindMatchesExcludesClosedAndDeleted(t *testing.T) {
	bookings := []models.Booking{
		{ID: "purchased", MemberName: "John Smith", BookingStatus: models.BookingStatusClosedPurchased},
		{ID: "deleted", MemberName: "John Smith", BookingStatus: models.BookingStatusDeletedSoft},
		{ID: "dupe", MemberName: "John Smith", BookingStatus: models.BookingStatusDuplicate},
	}
	assert.Empty(t, FindMatches("john smith", bookings))
}

func TestFindMatchesTokenMatch(t *testing.T) {
	bookings := []models.Booking{{ID: "b-1", MemberName: "John Smith", BookingStatus: models.BookingStatusNotInterested}}

	matches := FindMatches("Smith", bookings)
	require.Len(t, matches, 1)
	assert.Equal(t, KindPartial, matches[0].Kind)
	assert.Less(t, matches[0].Similarity, PartialThreshold)
	assert.Equal(t, "marked not interested", matches[0].Warning)
}

func TestFindMatchesCapsAndKeepsOrder(t *testing.T) {
	var bookings []models.Booking
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		bookings = append(bookings, models.Booking{ID: id, MemberName: "John Smith"})
	}

	matches := FindMatches("John Smith", bookings)
	require.Len(t, matches, MaxMatches)
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		assert.Equal(t, id, matches[i].Booking.ID, "ties keep input order")
	}

	assert.Nil(t, FindMatches("  ", bookings))
}

type stubLister struct {
	bookings []models.Booking
	err      error
}

func (s stubLister) ListBookings(context.Context) ([]models.Booking, error) {
	return s.bookings, s.err
}

func TestFinder(t *testing.T) {
	f := NewFinder(stubLister{bookings: []models.Booking{{ID: "b-1", MemberName: "Jane Doe"}}}, log.New(io.Discard))

	matches, err := f.Find(context.Background(), "jane doe")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	f = NewFinder(stubLister{err: errors.New("timeout")}, log.New(io.Discard))
	_, err = f.Find(context.Background(), "jane doe")
	assert.ErrorContains(t, err, "timeout")
}
