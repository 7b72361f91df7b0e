package annotation

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"

	"github.com/lewtec/rotulador-editor/internal/repository"
)

func GetDatabase(filename string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers anyway, a single connection keeps pragmas in place
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("while enabling foreign keys: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema migrations
func Migrate(db *sql.DB) error {
	log.Printf("Migrate: applying schema migrations")
	if err := repository.Migrate(db); err != nil {
		return err
	}
	version, dirty, err := repository.SchemaVersion(db)
	if err != nil {
		return fmt.Errorf("while reading schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty, fix the database by hand", version)
	}
	log.Printf("Migrate: schema at version %d", version)
	return nil
}

// OpenDatabase opens and migrates the database of cfg
func OpenDatabase(ctx context.Context, cfg *Config) (*sql.DB, error) {
	db, err := GetDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("while opening database '%s': %w", cfg.Database, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("while connecting to database '%s': %w", cfg.Database, err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
