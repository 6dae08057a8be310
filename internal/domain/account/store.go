package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `id, email, first_name, last_name, role, COALESCE(company, ''), COALESCE(phone, ''),
	active, mfa_enabled, last_login_at, created_at, password_hash`

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(ctx context.Context, acc *Account) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
		INSERT INTO accounts (email, first_name, last_name, role, company, phone, password_hash, active, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, true, now())
		RETURNING id`,
		acc.Email, acc.FirstName, acc.LastName, acc.Role, acc.Company, acc.Phone, acc.PasswordHash).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrEmailTaken
		}
		return 0, fmt.Errorf("insert account: %w", err)
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*Account, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`, email)
	return scanAccount(row)
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]Account, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM accounts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	rows, err := s.DB.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *acc)
	}
	return out, total, rows.Err()
}

func (s *Store) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := s.DB.Exec(ctx, `UPDATE accounts SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("update account active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, id int64) error {
	_, err := s.DB.Exec(ctx, `UPDATE accounts SET last_login_at = now() WHERE id = $1`, id)
	return err
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, hash string) error {
	_, err := s.DB.Exec(ctx, `UPDATE accounts SET password_hash = $1 WHERE id = $2`, hash, id)
	return err
}

// ApproverEmails returns the addresses of every active admin and
// supervisor, used by the pending-approval reminder job.
func (s *Store) ApproverEmails(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT email FROM accounts
		WHERE active AND role IN ('admin', 'supervisor')
		ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("list approver emails: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}

func (s *Store) UpdateMFASecret(ctx context.Context, id int64, secretEnc []byte) error {
	_, err := s.DB.Exec(ctx, `UPDATE accounts SET mfa_secret_enc = $1, mfa_enabled = false WHERE id = $2`, secretEnc, id)
	return err
}

func (s *Store) GetMFASecret(ctx context.Context, id int64) ([]byte, error) {
	var secretEnc []byte
	if err := s.DB.QueryRow(ctx, `SELECT mfa_secret_enc FROM accounts WHERE id = $1`, id).Scan(&secretEnc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return secretEnc, nil
}

func (s *Store) SetMFAEnabled(ctx context.Context, id int64, enabled bool) error {
	_, err := s.DB.Exec(ctx, `UPDATE accounts SET mfa_enabled = $1 WHERE id = $2`, enabled, id)
	return err
}

func (s *Store) CreateSession(ctx context.Context, accountID int64, tokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO sessions (account_id, token_hash, expires_at)
		VALUES ($1, $2, $3)`, accountID, tokenHash, expires)
	return err
}

func (s *Store) RevokeSession(ctx context.Context, accountID int64, tokenHash string) error {
	_, err := s.DB.Exec(ctx, `UPDATE sessions SET revoked_at = now() WHERE account_id = $1 AND token_hash = $2`,
		accountID, tokenHash)
	return err
}

type accountScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row accountScanner) (*Account, error) {
	var acc Account
	err := row.Scan(&acc.ID, &acc.Email, &acc.FirstName, &acc.LastName, &acc.Role, &acc.Company, &acc.Phone,
		&acc.Active, &acc.MFAEnabled, &acc.LastLoginAt, &acc.CreatedAt, &acc.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &acc, nil
}
