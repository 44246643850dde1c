package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const notifyChannel = "storage_changes"

const schema = `
CREATE TABLE IF NOT EXISTS visitor_storage (
	visitor_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (visitor_id, key)
)`

// PostgresStorage persists visitor entries in a table and uses LISTEN/NOTIFY
// for the change feed.
type PostgresStorage struct {
	db  *sql.DB
	dsn string
}

// Connect opens and pings the database behind dsn.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("database url is empty")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func NewPostgresStorage(db *sql.DB, dsn string) *PostgresStorage {
	return &PostgresStorage{db: db, dsn: dsn}
}

func (p *PostgresStorage) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create visitor_storage: %w", err)
	}
	return nil
}

func (p *PostgresStorage) Get(ctx context.Context, visitor, key string) (string, error) {
	var v string
	err := p.db.QueryRowContext(ctx,
		`SELECT value FROM visitor_storage WHERE visitor_id = $1 AND key = $2`, visitor, key).
		Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select storage entry: %w", err)
	}
	return v, nil
}

func (p *PostgresStorage) Set(ctx context.Context, visitor, key, value string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO visitor_storage (visitor_id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (visitor_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		visitor, key, value)
	if err != nil {
		return fmt.Errorf("upsert storage entry: %w", err)
	}

	if err := notify(ctx, tx, Change{Visitor: visitor, Key: key, Origin: OriginFrom(ctx)}); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *PostgresStorage) Remove(ctx context.Context, visitor string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	origin := OriginFrom(ctx)
	for _, k := range keys {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM visitor_storage WHERE visitor_id = $1 AND key = $2`, visitor, k)
		if err != nil {
			return fmt.Errorf("delete storage entry: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		if err := notify(ctx, tx, Change{Visitor: visitor, Key: k, Origin: origin, Removed: true}); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// notify runs inside the writing transaction so listeners only hear committed changes.
func notify(ctx context.Context, tx *sql.Tx, c Change) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, string(payload)); err != nil {
		return fmt.Errorf("notify change: %w", err)
	}
	return nil
}

// Watch holds a dedicated connection outside the pool, since LISTEN is bound
// to the session that issued it.
func (p *PostgresStorage) Watch(ctx context.Context) (<-chan Change, error) {
	conn, err := pgx.Connect(ctx, p.dsn)
	if err != nil {
		return nil, fmt.Errorf("listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Close(context.Background())
		return nil, fmt.Errorf("listen: %w", err)
	}

	out := make(chan Change, watchBuffer)
	go func() {
		defer close(out)
		defer conn.Close(context.Background())

		for {
			n, err := conn.WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					slog.Error("storage listener stopped", "error", err)
				}
				return
			}
			var c Change
			if err := json.Unmarshal([]byte(n.Payload), &c); err != nil {
				slog.Warn("skipping malformed storage change", "error", err)
				continue
			}
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (p *PostgresStorage) Close() error {
	return p.db.Close()
}
