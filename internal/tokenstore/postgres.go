package tokenstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jwalitptl/healthhub-client/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS client_credentials (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (namespace, key)
)`

// PostgresStore keeps one row per key, scoped by namespace so several
// clients can share a database.
type PostgresStore struct {
	db        *sqlx.DB
	namespace string
}

type credentialRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

func NewDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func NewPostgresStore(db *sqlx.DB, namespace string) *PostgresStore {
	return &PostgresStore{db: db, namespace: namespace}
}

// EnsureSchema creates the credentials table if needed.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Storage("failed to create credentials table", err)
	}
	return nil
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func (s *PostgresStore) Save(ctx context.Context, creds Credentials) error {
	if err := checkSave(creds); err != nil {
		return err
	}
	userData, err := encodeUser(creds.User)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO client_credentials (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace, key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query, s.namespace, KeyToken, creds.Token); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, query, s.namespace, KeyUser, string(userData))
		return err
	})
	if err != nil {
		return errors.Storage("failed to save credentials", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (Credentials, bool, error) {
	query := `
		SELECT key, value
		FROM client_credentials
		WHERE namespace = $1 AND key IN ($2, $3)
	`
	var rows []credentialRow
	if err := s.db.SelectContext(ctx, &rows, query, s.namespace, KeyToken, KeyUser); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return Credentials{}, false, nil
		}
		return Credentials{}, false, errors.Storage("failed to load credentials", err)
	}

	var token, userData string
	for _, r := range rows {
		switch r.Key {
		case KeyToken:
			token = r.Value
		case KeyUser:
			userData = r.Value
		}
	}
	creds, ok := decodePair(token, []byte(userData))
	return creds, ok, nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	query := `DELETE FROM client_credentials WHERE namespace = $1 AND key IN ($2, $3)`
	if _, err := s.db.ExecContext(ctx, query, s.namespace, KeyToken, KeyUser); err != nil {
		return errors.Storage("failed to clear credentials", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
