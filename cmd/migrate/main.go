package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"storefront-be/internal/logger"
	"storefront-be/internal/user"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"))
	defer logger.Sync()

	mode := flag.String("mode", "up", "migration mode: up or down")
	seed := flag.Bool("seed", false, "create the admin account from ADMIN_EMAIL and ADMIN_PASSWORD after migrating")
	dir := flag.String("dir", "./migrations", "directory holding the *.sql files")
	flag.Parse()

	if err := migrate(context.Background(), *mode, *dir, *seed); err != nil {
		logger.L().Fatal("migration failed", zap.Error(err))
	}
}

func migrate(ctx context.Context, mode, dir string, seed bool) error {
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		return errors.New("DB_URL not set in environment")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect db: %w", err)
	}
	defer db.Close()

	if err := run(ctx, db, mode, dir); err != nil {
		return err
	}

	if seed {
		admin := adminFromEnv()
		return seedAdmin(ctx, user.NewRepository(db), admin.name, admin.email, admin.password)
	}
	return nil
}

type adminAccount struct {
	name, email, password string
}

func adminFromEnv() adminAccount {
	name := os.Getenv("ADMIN_NAME")
	if name == "" {
		name = "Admin"
	}
	return adminAccount{name: name, email: os.Getenv("ADMIN_EMAIL"), password: os.Getenv("ADMIN_PASSWORD")}
}

type userCreator interface {
	Create(ctx context.Context, u *user.User) error
}

// seedAdmin creates the first admin. An existing account with the same email
// is left untouched.
func seedAdmin(ctx context.Context, users userCreator, name, email, password string) error {
	log := logger.FromCtx(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errors.New("ADMIN_EMAIL not set in environment")
	}
	if err := user.ValidatePassword(password); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD: %w", err)
	}

	hashed, err := user.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	err = users.Create(ctx, &user.User{Name: name, Email: email, Password: hashed, IsAdmin: true})
	if errors.Is(err, user.ErrEmailExists) {
		log.Info("admin already exists", zap.String("email", email))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	log.Info("admin created", zap.String("email", email))
	return nil
}

func run(ctx context.Context, db *sql.DB, mode, migrationsDir string) error {
	_, err := db.ExecContext(ctx, `
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
		return runMigrationsUp(ctx, db, files)
	case "down":
		return runMigrationsDown(ctx, db, files)
	default:
		return fmt.Errorf("unknown mode: %s (use 'up' or 'down')", mode)
	}
}

// runMigrationsUp applies every pending file in name order. Each file and its
// schema_migrations row commit together.
func runMigrationsUp(ctx context.Context, db *sql.DB, files []string) error {
	log := logger.FromCtx(ctx)
	applied := 0

	for _, file := range files {
		version := filepath.Base(file)

		var exists bool
		err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if exists {
			log.Debug("skipping applied migration", zap.String("version", version))
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		log.Info("applying migration", zap.String("version", version))
		err = inTx(ctx, db, extractMigrationPart(string(content), "Up"),
			`INSERT INTO schema_migrations (version) VALUES ($1)`, version)
		if err != nil {
			return fmt.Errorf("migration %s failed: %w", version, err)
		}
		applied++
	}

	log.Info("migrations up to date", zap.Int("applied", applied))
	return nil
}

// runMigrationsDown reverts the most recently applied file only.
func runMigrationsDown(ctx context.Context, db *sql.DB, files []string) error {
	log := logger.FromCtx(ctx)

	var lastVersion string
	err := db.QueryRowContext(ctx, `SELECT version FROM schema_migrations ORDER BY applied_at DESC, version DESC LIMIT 1`).Scan(&lastVersion)
	if errors.Is(err, sql.ErrNoRows) {
		log.Warn("no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get last applied migration: %w", err)
	}

	filePath := ""
	for _, f := range files {
		if filepath.Base(f) == lastVersion {
			filePath = f
			break
		}
	}
	if filePath == "" {
		return fmt.Errorf("migration file not found for version: %s", lastVersion)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	log.Info("rolling back migration", zap.String("version", lastVersion))
	err = inTx(ctx, db, extractMigrationPart(string(content), "Down"),
		`DELETE FROM schema_migrations WHERE version = $1`, lastVersion)
	if err != nil {
		return fmt.Errorf("rollback of %s failed: %w", lastVersion, err)
	}
	return nil
}

// inTx runs a migration body and its bookkeeping statement in one transaction.
func inTx(ctx context.Context, db *sql.DB, body, record, version string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, record, version); err != nil {
		return err
	}
	return tx.Commit()
}

// extractMigrationPart returns the lines between "-- +migrate <section>" and
// the next marker.
func extractMigrationPart(content string, section string) string {
	var part strings.Builder
	inPart := false

	for _, line := range strings.Split(content, "\n") {
		marker := strings.TrimSpace(line)
		if strings.HasPrefix(marker, "-- +migrate") {
			if inPart {
				break
			}
			inPart = marker == "-- +migrate "+section
			continue
		}
		if inPart {
			part.WriteString(line)
			part.WriteByte('\n')
		}
	}
	return part.String()
}
