package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
)

type Service interface {
	Health() bool
}

type Database struct {
	Pool *pgxpool.Pool
}

func DefaultDatabase() Database {
	return Database{
		Pool: nil,
	}
}

func (db *Database) Connect(password string) error {
	address := os.Getenv("DB_ADDRESS")
	uri := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", "textwar", password, address, "textwar")
	config, err := pgxpool.ParseConfig(uri)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgresDB: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	db.Pool = pool
	slog.Info("Db connection succeeded")

	if err := db.ensureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// ensureSchema creates the tables on first boot. Later schema changes are
// applied out of band; these statements only bootstrap an empty database.
func (db *Database) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			email text NOT NULL UNIQUE,
			password_hash text NOT NULL,
			nickname text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS characters (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id uuid NOT NULL REFERENCES users(id),
			character_name text NOT NULL,
			description text NOT NULL,
			wins integer NOT NULL DEFAULT 0,
			losses integer NOT NULL DEFAULT 0,
			rating integer NOT NULL DEFAULT 1000,
			created_at timestamptz NOT NULL DEFAULT now(),
			last_battle_timestamp timestamptz
		)`,
		`CREATE TABLE IF NOT EXISTS battle_records (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			character_a_id uuid NOT NULL REFERENCES characters(id),
			character_b_id uuid NOT NULL REFERENCES characters(id),
			winner_id uuid REFERENCES characters(id),
			narrative text,
			image_url text,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_characters_user ON characters(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_battle_records_a ON battle_records(character_a_id)`,
		`CREATE INDEX IF NOT EXISTS idx_battle_records_b ON battle_records(character_b_id)`,
	}

	for _, statement := range statements {
		if _, err := db.Pool.Exec(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}

func (s *Database) Health() bool {
	if s.Pool == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx) == nil
}
