package postgres

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"obamixscraper/config"
)

const maxRetries = 5
const dbMaxOpenConns = 10
const retryDelay = 3 * time.Second

type PostgresDatabase struct {
	config.PostgresConfig
	db *sql.DB
	mu sync.Mutex // protects db
}

func NewPgConnector(dbConfig config.PostgresConfig) *PostgresDatabase {
	return &PostgresDatabase{PostgresConfig: dbConfig}
}

func (pg *PostgresDatabase) Connect() (*sql.DB, error) {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db != nil {
		return pg.db, nil
	}

	var err error
	conStr := pg.GetConnectionString()

	for i := 0; i < maxRetries; i++ {
		pg.db, err = sql.Open("postgres", conStr)
		if err != nil {
			log.Printf("Failed to open Postgres (attempt %d/%d): %v", i+1, maxRetries, err)
			time.Sleep(retryDelay)
			continue
		}

		pg.db.SetMaxOpenConns(dbMaxOpenConns)

		if err = pg.db.Ping(); err != nil {
			if pg.AutoCreate && isMissingDatabase(err) {
				pg.db.Close()
				pg.db = nil
				if createErr := pg.createDatabase(); createErr != nil {
					return nil, fmt.Errorf("creating database %q: %w", pg.DBName, createErr)
				}
				continue
			}
			log.Printf("Failed to ping Postgres (attempt %d/%d): %v", i+1, maxRetries, err)
			pg.db.Close()
			pg.db = nil
			time.Sleep(retryDelay)
			continue
		}

		return pg.db, nil
	}
	return nil, err
}

func (pg *PostgresDatabase) Ping() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return fmt.Errorf("database connection is not established")
	}

	if err := pg.db.Ping(); err != nil {
		pg.db.Close()
		pg.db = nil
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// createDatabase connects to the maintenance database and creates the
// target one. A concurrent creation is not an error.
func (pg *PostgresDatabase) createDatabase() error {
	admin, err := sql.Open("postgres", pg.MaintenanceConnectionString())
	if err != nil {
		return err
	}
	defer admin.Close()

	_, err = admin.Exec(fmt.Sprintf(`CREATE DATABASE %q`, pg.DBName))
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}
	log.Printf("Database %q created", pg.DBName)
	return nil
}

// isMissingDatabase matches the invalid_catalog_name condition lib/pq
// reports when the target database does not exist.
func isMissingDatabase(err error) bool {
	return strings.Contains(err.Error(), "does not exist") ||
		strings.Contains(err.Error(), "3D000")
}
