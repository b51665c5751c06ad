// ABOUTME: Sales leaderboard and streak statistics per sales associate
// ABOUTME: Aggregates intro runs and outside sales over a date range
package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/frontdesk/models"
)

// Unassigned labels runs and sales with no intro owner.
const Unassigned = "Unassigned"

// StreakLookback bounds how far back streaks are computed.
const StreakLookback = 60

// Source is the backend surface reports read from.
type Source interface {
	ListRunsBetween(ctx context.Context, from, to string) ([]models.Run, error)
	ListRunsSoldBetween(ctx context.Context, from, to string) ([]models.Run, error)
	ListOutsideSalesBetween(ctx context.Context, from, to string) ([]models.OutsideSale, error)
	AMCTotalForDate(ctx context.Context, date string) (int, error)
}

// LeaderboardEntry is one SA's totals.
type LeaderboardEntry struct {
	Name         string  `json:"name"`
	IntrosRun    int     `json:"intros_run"`
	IntroSales   int     `json:"intro_sales"`
	OutsideSales int     `json:"outside_sales"`
	Sales        int     `json:"sales"`
	CloseRate    float64 `json:"close_rate"`
	Commission   float64 `json:"commission"`
}

// Streak is a run of consecutive days with at least one sale.
type Streak struct {
	Name         string `json:"name"`
	Days         int    `json:"days"`
	LastSaleDate string `json:"last_sale_date"`
}

// Reporter builds reports from a Source.
type Reporter struct {
	source Source
}

// NewReporter creates a Reporter.
func NewReporter(source Source) *Reporter {
	return &Reporter{source: source}
}

func ownerName(owner string) string {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return Unassigned
	}
	return owner
}

// Leaderboard totals runs and outside sales between from and to inclusive
// (YYYY-MM-DD). Intros run count by run date and intro sales by buy date.
// No-shows don't count as intros run.
func (r *Reporter) Leaderboard(ctx context.Context, from, to string) ([]LeaderboardEntry, error) {
	runs, err := r.source.ListRunsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}
	sold, err := r.source.ListRunsSoldBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sold runs: %w", err)
	}
	sales, err := r.source.ListOutsideSalesBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outside sales: %w", err)
	}
	return BuildLeaderboard(runs, sold, sales), nil
}

// BuildLeaderboard aggregates intros run, sold runs, and outside sales,
// sorted by sales, then commission, then name.
func BuildLeaderboard(runs, sold []models.Run, sales []models.OutsideSale) []LeaderboardEntry {
	byName := make(map[string]*LeaderboardEntry)
	entry := func(name string) *LeaderboardEntry {
		e, ok := byName[name]
		if !ok {
			e = &LeaderboardEntry{Name: name}
			byName[name] = e
		}
		return e
	}

	for _, run := range runs {
		if run.Result == "" || models.IsNoShow(run.Result) {
			continue
		}
		entry(ownerName(run.IntroOwner)).IntrosRun++
	}

	for _, run := range sold {
		if !models.IsSale(run.Result) {
			continue
		}
		e := entry(ownerName(run.IntroOwner))
		e.IntroSales++
		e.Commission += run.CommissionAmount
	}

	for _, sale := range sales {
		e := entry(ownerName(sale.IntroOwner))
		e.OutsideSales++
		e.Commission += sale.CommissionAmount
	}

	board := make([]LeaderboardEntry, 0, len(byName))
	for _, e := range byName {
		e.Sales = e.IntroSales + e.OutsideSales
		if e.IntrosRun > 0 {
			e.CloseRate = float64(e.IntroSales) / float64(e.IntrosRun)
		}
		board = append(board, *e)
	}

	sort.Slice(board, func(i, j int) bool {
		a, b := board[i], board[j]
		if a.Sales != b.Sales {
			return a.Sales > b.Sales
		}
		if a.Commission != b.Commission {
			return a.Commission > b.Commission
		}
		return a.Name < b.Name
	})
	return board
}

// Streaks returns each SA's current sale streak as of asOf. A streak may end
// on asOf or the day before, so a streak isn't broken before the day is over.
func (r *Reporter) Streaks(ctx context.Context, asOf time.Time) ([]Streak, error) {
	to := asOf.Format(models.DateLayout)
	from := asOf.AddDate(0, 0, -StreakLookback).Format(models.DateLayout)

	sold, err := r.source.ListRunsSoldBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sold runs: %w", err)
	}
	sales, err := r.source.ListOutsideSalesBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outside sales: %w", err)
	}
	return BuildStreaks(sold, sales, asOf), nil
}

// BuildStreaks computes streaks from sale dates.
func BuildStreaks(runs []models.Run, sales []models.OutsideSale, asOf time.Time) []Streak {
	days := make(map[string]map[string]bool)
	mark := func(name, date string) {
		if date == "" {
			return
		}
		if days[name] == nil {
			days[name] = make(map[string]bool)
		}
		days[name][date] = true
	}

	for _, run := range runs {
		if !models.IsSale(run.Result) {
			continue
		}
		date := run.BuyDate
		if date == "" {
			date = run.RunDate
		}
		mark(ownerName(run.IntroOwner), date)
	}
	for _, sale := range sales {
		mark(ownerName(sale.IntroOwner), sale.SaleDate)
	}

	var streaks []Streak
	for name, dates := range days {
		day := asOf
		if !dates[day.Format(models.DateLayout)] {
			day = day.AddDate(0, 0, -1)
		}
		last := day.Format(models.DateLayout)

		count := 0
		for dates[day.Format(models.DateLayout)] {
			count++
			day = day.AddDate(0, 0, -1)
		}
		if count > 0 {
			streaks = append(streaks, Streak{Name: name, Days: count, LastSaleDate: last})
		}
	}

	sort.Slice(streaks, func(i, j int) bool {
		if streaks[i].Days != streaks[j].Days {
			return streaks[i].Days > streaks[j].Days
		}
		return streaks[i].Name < streaks[j].Name
	})
	return streaks
}
