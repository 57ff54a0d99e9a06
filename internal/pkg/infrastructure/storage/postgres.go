package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Config struct {
	host     string
	user     string
	password string
	port     string
	dbname   string
	sslmode  string
}

func LoadConfiguration(ctx context.Context) Config {
	return Config{
		host:     env.GetVariableOrDefault(ctx, "POSTGRES_HOST", ""),
		user:     env.GetVariableOrDefault(ctx, "POSTGRES_USER", ""),
		password: env.GetVariableOrDefault(ctx, "POSTGRES_PASSWORD", ""),
		port:     env.GetVariableOrDefault(ctx, "POSTGRES_PORT", "5432"),
		dbname:   env.GetVariableOrDefault(ctx, "POSTGRES_DBNAME", "diwise"),
		sslmode:  env.GetVariableOrDefault(ctx, "POSTGRES_SSLMODE", "disable"),
	}
}

func (c Config) ConnStr() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.user, c.password, c.host, c.port, c.dbname, c.sslmode)
}

type postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database described by cfg and creates the
// snapshots table if it does not already exist
func NewPostgres(ctx context.Context, cfg Config) (Storage, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnStr())
	if err != nil {
		return nil, err
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}

	p := &postgres{pool: pool}

	err = p.initialize(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.GetFromContext(ctx).Info("connected to database", "host", cfg.host, "dbname", cfg.dbname)

	return p, nil
}

func (p *postgres) initialize(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS snapshots (
			kind     TEXT NOT NULL,
			id       TEXT NOT NULL,
			body     JSONB NOT NULL,
			modified TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (kind, id)
		);`

	_, err := p.pool.Exec(ctx, ddl)
	return err
}

func (p *postgres) Save(ctx context.Context, kind, id string, body []byte) error {
	sql := `
		INSERT INTO snapshots (kind, id, body, modified) VALUES ($1, $2, $3, $4)
		ON CONFLICT (kind, id) DO UPDATE SET body = EXCLUDED.body, modified = EXCLUDED.modified;`

	_, err := p.pool.Exec(ctx, sql, kind, id, string(body), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save %s/%s: %w", kind, id, err)
	}

	return nil
}

func (p *postgres) Load(ctx context.Context, kind, id string) ([]byte, error) {
	sql := `SELECT body FROM snapshots WHERE kind=$1 AND id=$2;`

	var body []byte

	err := p.pool.QueryRow(ctx, sql, kind, id).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s/%s: %w", kind, id, ErrNotFound)
		}
		return nil, err
	}

	return body, nil
}

func (p *postgres) Delete(ctx context.Context, kind, id string) error {
	sql := `DELETE FROM snapshots WHERE kind=$1 AND id=$2;`

	tag, err := p.pool.Exec(ctx, sql, kind, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", kind, id, ErrNotFound)
	}

	return nil
}

func (p *postgres) List(ctx context.Context, kind string) ([][]byte, error) {
	sql := `SELECT body FROM snapshots WHERE kind=$1 ORDER BY id;`

	rows, err := p.pool.Query(ctx, sql, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bodies := make([][]byte, 0)

	for rows.Next() {
		var body []byte
		err := rows.Scan(&body)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, body)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bodies, nil
}

func (p *postgres) Close() {
	p.pool.Close()
}
