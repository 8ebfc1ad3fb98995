package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load()

	mode := flag.String("mode", "up", "migration mode: up or down")
	flag.Parse()

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Fatal("DB_URL not set in environment")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}
	defer db.Close()

	if err := run(db, *mode, "./migrations"); err != nil {
		log.Fatal(err)
	}
}

func run(db *sql.DB, mode, migrationsDir string) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	sort.Strings(files)

	switch mode {
	case "up":
		return runMigrationsUp(db, files)
	case "down":
		return runMigrationsDown(db, files)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

func applied(db *sql.DB, version string) (bool, error) {
	var exists bool
	err := db.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)",
		version,
	).Scan(&exists)
	return exists, err
}

func splitSections(content string) (up, down string) {
	parts := strings.SplitN(content, "-- +down", 2)
	up = strings.TrimSpace(strings.TrimPrefix(parts[0], "-- +up"))
	if len(parts) == 2 {
		down = strings.TrimSpace(parts[1])
	}
	return up, down
}

func runMigrationsUp(db *sql.DB, files []string) error {
	for _, file := range files {
		version := filepath.Base(file)

		done, err := applied(db, version)
		if err != nil {
			return err
		}
		if done {
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed reading %s: %w", file, err)
		}

		up, _ := splitSections(string(content))
		if up == "" {
			return fmt.Errorf("migration %s has no up section", version)
		}

		if _, err := db.Exec(up); err != nil {
			return fmt.Errorf("migration %s failed: %w", version, err)
		}

		if _, err := db.Exec(
			"INSERT INTO schema_migrations (version) VALUES ($1)", version,
		); err != nil {
			return err
		}

		log.Printf("applied %s", version)
	}
	return nil
}

func runMigrationsDown(db *sql.DB, files []string) error {
	for i := len(files) - 1; i >= 0; i-- {
		file := files[i]
		version := filepath.Base(file)

		done, err := applied(db, version)
		if err != nil {
			return err
		}
		if !done {
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed reading %s: %w", file, err)
		}

		_, down := splitSections(string(content))
		if down == "" {
			return fmt.Errorf("migration %s has no down section", version)
		}

		if _, err := db.Exec(down); err != nil {
			return fmt.Errorf("rollback %s failed: %w", version, err)
		}

		if _, err := db.Exec(
			"DELETE FROM schema_migrations WHERE version = $1", version,
		); err != nil {
			return err
		}

		log.Printf("rolled back %s", version)
	}
	return nil
}
