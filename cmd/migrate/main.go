// ABOUTME: Migration utility for moving a local SQLite front desk database to Postgres.
// ABOUTME: Copies every table row by row with dry-run and force guards against doubled data.

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/harperreed/frontdesk/db"
)

func main() {
	dbPath := flag.String("db", "", "Path to the SQLite database file (required)")
	dsn := flag.String("dsn", os.Getenv("FRONTDESK_DB_DSN"), "Target Postgres connection string (required)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	force := flag.Bool("force", false, "Copy even if the target already has rows")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("Error: -db flag is required")
	}
	if *dsn == "" {
		log.Fatal("Error: -dsn flag is required")
	}

	if err := migrate(context.Background(), *dbPath, *dsn, *dryRun, *force); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully")
}

func migrate(ctx context.Context, dbPath, dsn string, dryRun, force bool) error {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("database file does not exist: %s", dbPath)
	}

	source, err := db.OpenDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() { _ = source.Close() }()

	target, err := db.OpenPostgres(dsn)
	if err != nil {
		return fmt.Errorf("failed to open target: %w", err)
	}
	defer func() { _ = target.Close() }()

	return copyTables(ctx, source.DB(), target.DB(), postgresPlaceholder, dryRun, force)
}

func postgresPlaceholder(i int) string { return fmt.Sprintf("$%d", i) }

// copyTables copies every table in db.Tables. Rows whose key already exists
// in the target are left alone.
func copyTables(ctx context.Context, src, dst *sql.DB, placeholder func(int) string, dryRun, force bool) error {
	populated, err := populatedTables(ctx, dst)
	if err != nil {
		return err
	}
	if len(populated) > 0 {
		log.Printf("Target already has rows in: %s", strings.Join(populated, ", "))
		if !force && !dryRun {
			log.Printf("Use -force flag to copy anyway; existing keys are skipped")
			return fmt.Errorf("migration requires -force flag")
		}
	}

	for _, table := range db.Tables {
		n, err := countRows(ctx, src, table)
		if err != nil {
			return err
		}
		if dryRun {
			log.Printf("[DRY RUN] Would copy %d rows from %s", n, table)
			continue
		}
		copied, err := copyTable(ctx, src, dst, table, placeholder)
		if err != nil {
			return fmt.Errorf("failed to copy %s: %w", table, err)
		}
		log.Printf("Copied %s: %d of %d rows", table, copied, n)
	}
	return nil
}

func populatedTables(ctx context.Context, database *sql.DB) ([]string, error) {
	var populated []string
	for _, table := range db.Tables {
		n, err := countRows(ctx, database, table)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			populated = append(populated, table)
		}
	}
	return populated, nil
}

func countRows(ctx context.Context, database *sql.DB, table string) (int, error) {
	var n int
	err := database.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func copyTable(ctx context.Context, src, dst *sql.DB, table string, placeholder func(int) string) (int64, error) {
	rows, err := src.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", table))
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = placeholder(i + 1)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
		table, strings.Join(cols, ", "), strings.Join(marks, ", "))

	tx, err := dst.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var copied int64
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return 0, err
		}
		res, err := tx.ExecContext(ctx, insert, values...)
		if err != nil {
			return 0, err
		}
		n, _ := res.RowsAffected()
		copied += n
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return copied, tx.Commit()
}
