package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"vidtube/backend/internal/account/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an account repository that uses the given db
// for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, username, email, display_name, avatar_url, cover_image_url, password_hash, created_at, updated_at`

// GetByID returns the account for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// GetByUsernameOrEmail returns the account whose username or email equals
// identifier (matched lowercase), or nil if not found.
func (r *PostgresRepository) GetByUsernameOrEmail(ctx context.Context, identifier string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = lower($1) OR email = lower($1)`, identifier)
	return scanAccount(row)
}

// Create persists the account and its empty session slot in one transaction.
// The account must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Username, a.Email, a.DisplayName,
		nullString(a.AvatarURL), nullString(a.CoverImageURL),
		a.PasswordHash, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO session_slots (account_id, refresh_token, updated_at)
		 VALUES ($1, '', $2)`,
		a.ID, a.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// UpdatePasswordHash replaces the stored password hash for the account.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, passwordHash, time.Now().UTC())
	return err
}

// UpdateProfile updates the account's display name and email.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id, displayName, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET display_name = $2, email = lower($3), updated_at = $4 WHERE id = $1`,
		id, displayName, email, time.Now().UTC())
	return err
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	var a domain.Account
	var avatar, cover sql.NullString
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.DisplayName,
		&avatar, &cover, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.AvatarURL = avatar.String
	a.CoverImageURL = cover.String
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
