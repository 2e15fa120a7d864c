package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"coursegate/internal/roles/models"
	id "coursegate/pkg/domain"
	"coursegate/pkg/platform/sentinel"
	"coursegate/pkg/platform/tx"
)

// Schema creates the role table. Applied by EnsureSchema at startup.
const Schema = `
CREATE TABLE IF NOT EXISTS subject_roles (
	subject_id     TEXT PRIMARY KEY,
	email          TEXT NOT NULL DEFAULT '',
	display_name   TEXT NOT NULL DEFAULT '',
	role           TEXT NOT NULL,
	permissions    TEXT[] NOT NULL DEFAULT '{}',
	email_verified BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
)`

const selectColumns = `subject_id, email, display_name, role, permissions, email_verified, created_at, updated_at`

// PostgresStore persists the role table in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema applies Schema.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create subject_roles: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the transaction carried by ctx, if any.
func (s *PostgresStore) conn(ctx context.Context) execer {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *PostgresStore) Find(ctx context.Context, subject id.SubjectID) (*models.Record, error) {
	return s.find(ctx, subject, "")
}

func (s *PostgresStore) find(ctx context.Context, subject id.SubjectID, suffix string) (*models.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM subject_roles WHERE subject_id = $1` + suffix
	rec, err := scanRecord(s.conn(ctx).QueryRowContext(ctx, query, subject.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find subject role: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Insert(ctx context.Context, rec *models.Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	res, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO subject_roles (`+selectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (subject_id) DO NOTHING`,
		rec.SubjectID.String(), rec.Email, rec.DisplayName, rec.Role.String(),
		pq.Array(rec.Permissions.Strings()), rec.EmailVerified, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert subject role: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("insert subject role: %w", err)
	} else if n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

// RunInTx runs fn inside a transaction carried by ctx, committing when fn
// succeeds. A ctx that already carries a transaction is reused as is.
func (s *PostgresStore) RunInTx(ctx context.Context, fn TxFunc) error {
	if _, ok := tx.From(ctx); ok {
		return fn(ctx)
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin role transaction: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	if err := fn(tx.WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit role transaction: %w", err)
	}
	return nil
}

// Update locks the row, applies mutate and writes it back in one transaction.
func (s *PostgresStore) Update(ctx context.Context, subject id.SubjectID, mutate Mutation) (*models.Record, error) {
	var rec *models.Record
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.update(ctx, subject, mutate)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *PostgresStore) update(ctx context.Context, subject id.SubjectID, mutate Mutation) (*models.Record, error) {
	rec, err := s.find(ctx, subject, " FOR UPDATE")
	if err != nil {
		return nil, err
	}
	if err := mutate(rec); err != nil {
		return nil, err
	}
	rec.SubjectID = subject
	if err := validateRecord(rec); err != nil {
		return nil, err
	}
	_, err = s.conn(ctx).ExecContext(ctx, `
		UPDATE subject_roles
		SET email = $2, display_name = $3, role = $4, permissions = $5, email_verified = $6, updated_at = $7
		WHERE subject_id = $1`,
		subject.String(), rec.Email, rec.DisplayName, rec.Role.String(),
		pq.Array(rec.Permissions.Strings()), rec.EmailVerified, rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update subject role: %w", err)
	}
	return rec, nil
}

func scanRecord(row *sql.Row) (*models.Record, error) {
	var (
		rec     models.Record
		subject string
		role    string
		perms   []string
	)
	if err := row.Scan(&subject, &rec.Email, &rec.DisplayName, &role, pq.Array(&perms),
		&rec.EmailVerified, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	parsedRole, err := id.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("stored role: %w", err)
	}
	set, err := id.ParsePermissionSet(perms)
	if err != nil {
		return nil, fmt.Errorf("stored permissions: %w", err)
	}
	rec.SubjectID = id.SubjectID(subject)
	rec.Role = parsedRole
	rec.Permissions = set
	return &rec, nil
}
