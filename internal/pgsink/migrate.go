package pgsink

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"
)

// ApplyMigrations runs every goose migration under dir against dsn.
// cmd/pgsink-demo calls this at startup instead of shipping a
// separate migration step; integration tests call it to stand up a
// schema against a throwaway container.
func ApplyMigrations(dsn, dir string) error {
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return fmt.Errorf("migrations dir not found: %q", dir)
	}

	goose.SetLogger(log.New(os.Stdout, "", 0))
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
