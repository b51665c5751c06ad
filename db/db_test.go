package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/harperreed/frontdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	defer store.Close()

	// Verify database file exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	// Verify schema was initialized
	var count int
	err = store.DB().QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query tables: %v", err)
	}
	if count < 10 {
		t.Errorf("Expected at least 10 tables, got %d", count)
	}

	// Verify WAL mode
	var mode string
	err = store.DB().QueryRow("PRAGMA journal_mode").Scan(&mode)
	if err != nil {
		t.Fatalf("Failed to query journal mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("Expected WAL mode, got %s", mode)
	}
}

func TestOpenDatabaseInvalidPath(t *testing.T) {
	dbPath := "/invalid/nonexistent/path/that/cannot/be/created/test.db"

	_, err := OpenDatabase(dbPath)
	if err == nil {
		t.Errorf("Expected error for invalid path, but OpenDatabase succeeded")
	}
}

func TestOpenDatabaseReinitialization(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := OpenDatabase(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// CREATE TABLE IF NOT EXISTS must tolerate an existing schema
	store, err = OpenDatabase(dbPath)
	require.NoError(t, err)
	defer store.Close()
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "whatever")
	assert.Error(t, err)
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	_, err := OpenPostgres("  ")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	sqlite := &Store{dialect: DialectSQLite}
	pg := &Store{dialect: DialectPostgres}

	query := "UPDATE intros_run SET result = ? WHERE id = ? AND version = ?"
	assert.Equal(t, query, sqlite.rebind(query))
	assert.Equal(t, "UPDATE intros_run SET result = $1 WHERE id = $2 AND version = $3", pg.rebind(query))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx *Store) error {
		require.NoError(t, tx.CreateBooking(ctx, &models.Booking{ID: "b-1", MemberName: "Jane Doe", ClassDate: "2026-03-01"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.GetBooking(ctx, "b-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithTxCommits(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx *Store) error {
		if err := tx.CreateBooking(ctx, &models.Booking{ID: "b-1", MemberName: "Jane Doe", ClassDate: "2026-03-01"}); err != nil {
			return err
		}
		// Nested calls join the outer transaction
		return tx.WithTx(ctx, func(inner *Store) error {
			return inner.CreateBooking(ctx, &models.Booking{ID: "b-2", MemberName: "John Roe", ClassDate: "2026-03-02"})
		})
	})
	require.NoError(t, err)

	bookings, err := store.ListBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
}
