package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"time"

	"github.com/diwise/entity-hydration/internal/pkg/infrastructure/storage"
	"github.com/diwise/entity-hydration/pkg/hydration"
	"github.com/diwise/entity-hydration/pkg/models"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	appName string = "snapshot-migrator"
)

// snapshot-migrator rebuilds every stored snapshot through the current models so
// that fields added since the snapshot was written get their defaults or null
func main() {
	appVersion := buildinfo.SourceVersion()

	ctx, log, cleanup := o11y.Init(context.Background(), appName, appVersion, "json")
	defer cleanup()

	log.Debug("begin snapshot migration")

	p, err := connect(ctx, storage.LoadConfiguration(ctx))
	if err != nil {
		log.Error("failed to connect to database", "err", err.Error())
		os.Exit(1)
	}
	defer p.Close()

	kinds, err := getKinds(ctx, p)
	if err != nil {
		log.Error("failed to get kinds", "err", err.Error())
		os.Exit(1)
	}

	var totalCount int64 = 0

	for _, name := range kinds {
		l := log.With(slog.String("kind", name))

		kind, ok := models.LookupKind(name)
		if !ok {
			l.Warn("skipping snapshots of unknown kind")
			continue
		}

		l.Debug("migrate snapshots", slog.Time("start_time", time.Now()))

		count, err := migrateKind(ctx, p, kind)
		if err != nil {
			l.Error("failed to migrate snapshots", "err", err.Error())
			os.Exit(1)
		}

		totalCount += count

		l.Debug("done migrating snapshots", slog.Int64("count", count), slog.Time("end_time", time.Now()))
	}

	log.Debug("vacuum")

	err = vacuum(ctx, p)
	if err != nil {
		log.Error("failed to vacuum table", "err", err.Error())
		os.Exit(1)
	}

	log.Info("done migrating", slog.Int64("total", totalCount))
}

func connect(ctx context.Context, cfg storage.Config) (*pgxpool.Pool, error) {
	conn, err := pgxpool.New(ctx, cfg.ConnStr())
	if err != nil {
		return nil, err
	}

	err = conn.Ping(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return conn, err
}

func getKinds(ctx context.Context, p *pgxpool.Pool) ([]string, error) {
	sql := `SELECT DISTINCT kind FROM snapshots ORDER BY kind;`

	rows, err := p.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	kinds := make([]string, 0)

	for rows.Next() {
		var k string
		err := rows.Scan(&k)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}

	return kinds, rows.Err()
}

type snapshot struct {
	id   string
	body []byte
}

func migrateKind(ctx context.Context, p *pgxpool.Pool, kind models.Kind) (int64, error) {
	rows, err := p.Query(ctx, `SELECT id, body FROM snapshots WHERE kind=$1 ORDER BY id;`, kind.Name)
	if err != nil {
		return 0, err
	}

	changed := make([]snapshot, 0)

	for rows.Next() {
		var s snapshot
		err := rows.Scan(&s.id, &s.body)
		if err != nil {
			rows.Close()
			return 0, err
		}

		body, updated, err := migrate(kind, s.body)
		if err != nil {
			rows.Close()
			return 0, fmt.Errorf("%s/%s: %w", kind.Name, s.id, err)
		}

		if updated {
			changed = append(changed, snapshot{id: s.id, body: body})
		}
	}

	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(changed) == 0 {
		return 0, nil
	}

	tx, err := p.Begin(ctx)
	if err != nil {
		return 0, err
	}

	for _, s := range changed {
		sql := `UPDATE snapshots SET body=$3, modified=$4 WHERE kind=$1 AND id=$2;`

		_, err := tx.Exec(ctx, sql, kind.Name, s.id, string(s.body), time.Now().UTC())
		if err != nil {
			tx.Rollback(ctx)
			return 0, err
		}
	}

	return int64(len(changed)), tx.Commit(ctx)
}

// migrate rebuilds a single snapshot and reports if the result differs from the input
func migrate(kind models.Kind, body []byte) ([]byte, bool, error) {
	raw, err := hydration.Unmarshal(body)
	if err != nil {
		return nil, false, err
	}

	e, err := kind.New(raw)
	if err != nil {
		return nil, false, err
	}

	migrated, err := json.Marshal(e)
	if err != nil {
		return nil, false, err
	}

	after, err := hydration.Unmarshal(migrated)
	if err != nil {
		return nil, false, err
	}

	return migrated, !reflect.DeepEqual(raw, after), nil
}

func vacuum(ctx context.Context, p *pgxpool.Pool) error {
	_, err := p.Exec(ctx, "VACUUM ANALYZE snapshots;")
	if err != nil {
		return err
	}

	return nil
}
