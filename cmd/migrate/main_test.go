package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/harperreed/frontdesk/db"
	"github.com/harperreed/frontdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqlitePlaceholder(int) string { return "?" }

func TestCopyTables(t *testing.T) {
	ctx := context.Background()
	src, err := db.OpenDatabase(filepath.Join(t.TempDir(), "src.db"))
	require.NoError(t, err)
	defer func() { _ = src.Close() }()
	dst, err := db.OpenDatabase(filepath.Join(t.TempDir(), "dst.db"))
	require.NoError(t, err)
	defer func() { _ = dst.Close() }()

	booking := &models.Booking{MemberName: "Jane Doe", ClassDate: "2026-03-01"}
	require.NoError(t, src.CreateBooking(ctx, booking))
	require.NoError(t, src.CreateRun(ctx, &models.Run{LinkedBookingID: booking.ID, MemberName: "Jane Doe", RunDate: "2026-03-01", Result: "Premier"}))

	require.NoError(t, copyTables(ctx, src.DB(), dst.DB(), sqlitePlaceholder, false, false))

	got, err := dst.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.MemberName)
	runs, err := dst.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	// A second copy needs -force and skips existing keys
	err = copyTables(ctx, src.DB(), dst.DB(), sqlitePlaceholder, false, false)
	assert.ErrorContains(t, err, "-force")

	require.NoError(t, copyTables(ctx, src.DB(), dst.DB(), sqlitePlaceholder, false, true))
	runs, err = dst.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestCopyTablesDryRun(t *testing.T) {
	ctx := context.Background()
	src, err := db.OpenDatabase(filepath.Join(t.TempDir(), "src.db"))
	require.NoError(t, err)
	defer func() { _ = src.Close() }()
	dst, err := db.OpenDatabase(filepath.Join(t.TempDir(), "dst.db"))
	require.NoError(t, err)
	defer func() { _ = dst.Close() }()

	require.NoError(t, src.CreateBooking(ctx, &models.Booking{MemberName: "Jane Doe", ClassDate: "2026-03-01"}))
	require.NoError(t, copyTables(ctx, src.DB(), dst.DB(), sqlitePlaceholder, true, false))

	bookings, err := dst.ListBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestMigrateMissingFile(t *testing.T) {
	err := migrate(context.Background(), filepath.Join(t.TempDir(), "missing.db"), "postgres://unused", false, false)
	assert.ErrorContains(t, err, "does not exist")
}
