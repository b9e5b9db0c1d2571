package migration

import "database/sql"

// SchemaMigrator is implemented by anything that can bring the database
// schema up to the shape the current binary expects.
type SchemaMigrator interface {
	UpMigration(db *sql.DB) error
}
