// Cat-Corner/database/database.go
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/meeshellyo/Cat-Corner/config"
	"github.com/meeshellyo/Cat-Corner/models"
	"github.com/meeshellyo/Cat-Corner/utils"

	_ "github.com/mattn/go-sqlite3"
)

// Sentinel errors surfaced to handlers for user-facing mapping.
var (
	ErrNotFound        = errors.New("record not found")
	ErrSelfModeration  = errors.New("moderators cannot resolve content they authored or flagged")
	ErrAlreadyResolved = errors.New("item has already been resolved")
	ErrDuplicateUser   = errors.New("username or email already taken")
)

// DatabaseService is the central struct for all database operations.
type DatabaseService struct {
	DB            *sql.DB
	logger        *slog.Logger
	dsn           string
	categoryCache []models.MainCategory
	cacheMu       sync.RWMutex
}

// InitDB connects to the database, runs migrations, and seeds the category
// taxonomy from the YAML seed file when the tables are empty.
func InitDB(dataSourceName, seedPath string, logger *slog.Logger) (*DatabaseService, error) {
	db, err := sql.Open("sqlite3", dataSourceName+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// Run the base schema to ensure all tables exist.
	if _, err = db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to execute base schema: %w", err)
	}

	// Run versioned migrations
	if err := runMigrations(db, logger); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	// Seed category taxonomy if empty
	var categoryCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM main_categories").Scan(&categoryCount); err == nil && categoryCount == 0 {
		if err := seedCategories(db, seedPath, logger); err != nil {
			return nil, fmt.Errorf("failed to seed categories: %w", err)
		}
	}

	logger.Info("Database initialized and cache ready.")

	return &DatabaseService{
		DB:     db,
		logger: logger,
		dsn:    dataSourceName,
	}, nil
}

// seedCategories populates the category tables, preferring the YAML seed
// file and falling back to a minimal built-in taxonomy.
func seedCategories(db *sql.DB, seedPath string, logger *slog.Logger) error {
	seeds, err := config.LoadCategorySeed(seedPath)
	if err != nil {
		logger.Warn("Category seed file unavailable, using built-in defaults", "path", seedPath, "error", err)
		seeds = []config.CategorySeed{
			{Name: "General", Slug: "general", Subcategories: []config.SubcategorySeed{
				{Name: "Chat", Slug: "chat"},
			}},
			{Name: "Cat Care", Slug: "cat-care", Subcategories: []config.SubcategorySeed{
				{Name: "Health", Slug: "health"},
				{Name: "Nutrition", Slug: "nutrition"},
			}},
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			logger.Error("Failed to rollback category seed", "error", rerr)
		}
	}()

	for _, c := range seeds {
		res, err := tx.Exec("INSERT INTO main_categories (name, slug) VALUES (?, ?)", c.Name, c.Slug)
		if err != nil {
			return fmt.Errorf("inserting main category %q: %w", c.Slug, err)
		}
		mainID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, s := range c.Subcategories {
			if _, err := tx.Exec("INSERT INTO subcategories (main_category_id, name, slug) VALUES (?, ?, ?)", mainID, s.Name, s.Slug); err != nil {
				return fmt.Errorf("inserting subcategory %q: %w", s.Slug, err)
			}
		}
	}
	return tx.Commit()
}

// runMigrations applies all un-applied migrations.
func runMigrations(db *sql.DB, logger *slog.Logger) error {
	var latestVersion uint
	err := db.QueryRow("SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1").Scan(&latestVersion)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("could not get db version: %w", err)
	}

	logger.Info("Current database schema version", "version", latestVersion)

	for _, m := range allMigrations {
		if m.Version > latestVersion {
			logger.Info("Applying migration", "version", m.Version)
			tx, err := db.Begin()
			if err != nil {
				return err
			}

			if _, err := tx.Exec(m.Query); err != nil {
				if rerr := tx.Rollback(); rerr != nil {
					logger.Error("Failed to rollback migration", "version", m.Version, "error", rerr)
				}
				return fmt.Errorf("failed to apply migration v%d: %w", m.Version, err)
			}
			if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", m.Version, utils.GetSQLTime()); err != nil {
				if rerr := tx.Rollback(); rerr != nil {
					logger.Error("Failed to rollback migration record", "version", m.Version, "error", rerr)
				}
				return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
			}

			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit migration v%d: %w", m.Version, err)
			}
			logger.Info("Successfully applied migration", "version", m.Version)
		}
	}
	return nil
}

// GetCategories returns the full category taxonomy, using the instance's
// cache. The taxonomy only changes on reseed so the cache has no TTL.
func (ds *DatabaseService) GetCategories() ([]models.MainCategory, error) {
	ds.cacheMu.RLock()
	cached := ds.categoryCache
	ds.cacheMu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	rows, err := ds.DB.Query("SELECT id, name, slug FROM main_categories ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("db error listing categories: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in GetCategories", "error", err)
		}
	}()

	var cats []models.MainCategory
	index := make(map[int64]int)
	for rows.Next() {
		var c models.MainCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, err
		}
		index[c.ID] = len(cats)
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subRows, err := ds.DB.Query("SELECT id, main_category_id, name, slug FROM subcategories ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("db error listing subcategories: %w", err)
	}
	defer func() {
		if err := subRows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in GetCategories", "error", err)
		}
	}()
	for subRows.Next() {
		var s models.Subcategory
		if err := subRows.Scan(&s.ID, &s.MainCategoryID, &s.Name, &s.Slug); err != nil {
			return nil, err
		}
		if i, ok := index[s.MainCategoryID]; ok {
			cats[i].Subcategories = append(cats[i].Subcategories, s)
		}
	}
	if err := subRows.Err(); err != nil {
		return nil, err
	}

	ds.cacheMu.Lock()
	ds.categoryCache = cats
	ds.cacheMu.Unlock()
	return cats, nil
}

// GetCategoryBySlug resolves a main category slug.
func (ds *DatabaseService) GetCategoryBySlug(slug string) (*models.MainCategory, error) {
	cats, err := ds.GetCategories()
	if err != nil {
		return nil, err
	}
	for i := range cats {
		if cats[i].Slug == slug {
			return &cats[i], nil
		}
	}
	return nil, fmt.Errorf("category '%s': %w", slug, ErrNotFound)
}

// ClearCategoryCache drops the cached taxonomy.
func (ds *DatabaseService) ClearCategoryCache() {
	ds.cacheMu.Lock()
	ds.categoryCache = nil
	ds.cacheMu.Unlock()
}
