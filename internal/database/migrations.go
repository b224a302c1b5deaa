package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a schema migration applied exactly once, in version order
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations ships with the binary; the server owns its schema.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_users",
		SQL: `
			CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				telegram_id INTEGER NOT NULL UNIQUE,
				username TEXT NOT NULL DEFAULT '',
				first_name TEXT NOT NULL DEFAULT '',
				last_name TEXT NOT NULL DEFAULT '',
				energy INTEGER NOT NULL DEFAULT 100,
				max_energy INTEGER NOT NULL DEFAULT 100,
				last_energy_update TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				points REAL NOT NULL DEFAULT 0,
				endurance_level INTEGER NOT NULL DEFAULT 0,
				efficiency_level INTEGER NOT NULL DEFAULT 0,
				luck_level INTEGER NOT NULL DEFAULT 0,
				upgrade_points INTEGER NOT NULL DEFAULT 0,
				daily_streak INTEGER NOT NULL DEFAULT 0,
				max_daily_streak INTEGER NOT NULL DEFAULT 0,
				last_claim_date TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
		`,
	},
	{
		Version: 2,
		Name:    "create_walks",
		SQL: `
			CREATE TABLE IF NOT EXISTS walks (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				start_time TIMESTAMP NOT NULL,
				end_time TIMESTAMP NOT NULL,
				steps INTEGER NOT NULL DEFAULT 0,
				distance_m REAL NOT NULL DEFAULT 0,
				avg_speed_mps REAL NOT NULL DEFAULT 0,
				reward REAL NOT NULL DEFAULT 0,
				is_lucky INTEGER NOT NULL DEFAULT 0,
				is_valid INTEGER NOT NULL DEFAULT 1,
				is_interrupted INTEGER NOT NULL DEFAULT 0,
				efficiency_multiplier REAL NOT NULL DEFAULT 1,
				streak_bonus REAL NOT NULL DEFAULT 1,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_walks_user_start ON walks(user_id, start_time DESC)
		`,
	},
	{
		Version: 3,
		Name:    "create_tasks",
		SQL: `
			CREATE TABLE IF NOT EXISTS tasks (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				reward REAL NOT NULL DEFAULT 0,
				is_completed INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
		`,
	},
	{
		Version: 4,
		Name:    "create_statistics",
		SQL: `
			CREATE TABLE IF NOT EXISTS statistics (
				user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
				total_steps INTEGER NOT NULL DEFAULT 0,
				total_distance REAL NOT NULL DEFAULT 0,
				total_rewards REAL NOT NULL DEFAULT 0
			)
		`,
	},
}

// Migrate applies all pending migrations in version order
func Migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.Query("SELECT version FROM migrations")
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		if _, err := tx.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		log.Printf("Applied migration %d: %s", m.Version, m.Name)
	}

	return nil
}
