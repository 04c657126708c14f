package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"alvara/internal/model"
)

// The whole database lives in one row; recordID pins it.
const recordID = 1

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PostgresStore struct {
	db  execQuerier
	log *zerolog.Logger
}

func NewPostgresStore(db *dbpg.DB, log *zerolog.Logger) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &PostgresStore{db: db, log: log}, nil
}

func (r *PostgresStore) MigrateUp(migrationsDir string) error {
	return r.migrate(migrationsDir, "*.up.sql", "migration")
}

func (r *PostgresStore) MigrateDown(migrationsDir string) error {
	return r.migrate(migrationsDir, "*.down.sql", "rollback")
}

func (r *PostgresStore) migrate(dir, pattern, kind string) error {
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return fmt.Errorf("failed to read %s files: %w", kind, err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s file %s: %w", kind, file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply %s %s: %w", kind, file, err)
		}
	}

	r.log.Info().Msgf("%d %s file(s) applied from %s", len(files), kind, dir)
	return nil
}

func (r *PostgresStore) Load(ctx context.Context) (*model.Database, error) {
	query := `
		SELECT payload
		FROM alvara_database
		WHERE id = $1
	`
	var raw []byte
	err := r.db.QueryRowContext(ctx, query, recordID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load database: %w", err)
	}
	return decode(raw)
}

func (r *PostgresStore) Save(ctx context.Context, db *model.Database) error {
	raw, err := json.Marshal(db)
	if err != nil {
		return fmt.Errorf("failed to encode database: %w", err)
	}

	query := `
		INSERT INTO alvara_database (id, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, recordID, raw); err != nil {
		return fmt.Errorf("failed to save database: %w", err)
	}
	return nil
}
