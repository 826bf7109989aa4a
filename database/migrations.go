// Cat-Corner/database/migrations.go
package database

// migration represents a single database schema migration.
type migration struct {
	Version uint
	Query   string
}

// allMigrations holds all schema changes in order.
var allMigrations = []migration{
	{
		Version: 1,
		Query: `
-- Track the moment a flag was raised separately from row creation so the
-- queue can sort by most recent signal.
CREATE INDEX IF NOT EXISTS idx_flags_created ON flags(created_at DESC);
		`,
	},
	// Future migrations will be added here, e.g.:
	// {
	// 	Version: 2,
	// 	Query: `ALTER TABLE users ADD COLUMN bio TEXT DEFAULT '';`,
	// },
}
