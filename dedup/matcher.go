// ABOUTME: Fuzzy duplicate ranking for live name entry
// ABOUTME: Scores every eligible booking and returns the top candidates
package dedup

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/harperreed/frontdesk/models"
)

// Classification thresholds.
const (
	FuzzyThreshold   = 0.85
	PartialThreshold = 0.6
	TokenThreshold   = 0.8
	MaxMatches       = 5
)

// MatchKind classifies how closely a booking matched.
type MatchKind string

const (
	KindExact   MatchKind = "exact"
	KindFuzzy   MatchKind = "fuzzy"
	KindPartial MatchKind = "partial"
)

// Match is one ranked candidate.
type Match struct {
	Booking    models.Booking `json:"booking"`
	Similarity float64        `json:"similarity"`
	Kind       MatchKind      `json:"match_type"`
	Warning    string         `json:"warning,omitempty"`
}

var excludedStatuses = map[string]bool{
	models.BookingStatusClosedPurchased: true,
	models.BookingStatusDeletedSoft:     true,
	models.BookingStatusDuplicate:       true,
}

// Classify returns the match kind for a similarity score, or "" for no match.
func Classify(score float64, tokens bool) MatchKind {
	switch {
	case score == 1:
		return KindExact
	case score >= FuzzyThreshold:
		return KindFuzzy
	case score >= PartialThreshold || tokens:
		return KindPartial
	}
	return ""
}

// StatusWarning returns the front-desk warning for a booking status.
func StatusWarning(status string) string {
	switch status {
	case models.BookingStatusNoShow:
		return "previously no-showed"
	case models.BookingStatusNotInterested:
		return "marked not interested"
	case models.BookingStatusClosedBought:
		return "already bought a membership"
	case models.BookingStatusActive, "":
		return "has an active booking"
	}
	return "status: " + status
}

// FindMatches ranks bookings against name. Bookings that are purchased,
// soft-deleted, or already marked duplicate are never returned.
func FindMatches(name string, bookings []models.Booking) []Match {
	query := NormalizeName(name)
	if query == "" {
		return nil
	}

	var matches []Match
	for _, b := range bookings {
		if excludedStatuses[b.BookingStatus] {
			continue
		}
		candidate := NormalizeName(b.MemberName)
		score := similarity(query, candidate)
		kind := Classify(score, score < PartialThreshold && tokenMatch(query, candidate, TokenThreshold))
		if kind == "" {
			continue
		}
		matches = append(matches, Match{
			Booking:    b,
			Similarity: score,
			Kind:       kind,
			Warning:    StatusWarning(b.BookingStatus),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > MaxMatches {
		matches = matches[:MaxMatches]
	}
	return matches
}

// BookingLister loads the bookings to rank.
type BookingLister interface {
	ListBookings(ctx context.Context) ([]models.Booking, error)
}

// Finder runs FindMatches over the backend's bookings.
type Finder struct {
	source BookingLister
	logger *log.Logger
}

// NewFinder creates a Finder.
func NewFinder(source BookingLister, logger *log.Logger) *Finder {
	if logger == nil {
		logger = log.Default()
	}
	return &Finder{source: source, logger: logger}
}

// Find loads bookings and ranks them against name.
func (f *Finder) Find(ctx context.Context, name string) ([]Match, error) {
	if NormalizeName(name) == "" {
		return nil, nil
	}
	bookings, err := f.source.ListBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}
	matches := FindMatches(name, bookings)
	f.logger.Debug("duplicate search", "name", name, "scanned", len(bookings), "matches", len(matches))
	return matches, nil
}
