package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is a stored response for a previously completed request.
type Record struct {
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

var ErrInFlight = errors.New("idempotency: request already in flight")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Claim reserves a key for the given account and endpoint. It returns the
// stored record when the key was already completed, ErrInFlight when another
// request holds the key but has not finished, and (nil, nil) when the claim
// is fresh and the caller should proceed.
func (s *Store) Claim(ctx context.Context, accountID int64, endpoint, key string) (*Record, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO idempotency_keys (account_id, endpoint, idem_key, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (account_id, endpoint, idem_key) DO NOTHING`,
		accountID, endpoint, key)
	if err != nil {
		return nil, fmt.Errorf("claim idempotency key: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil, nil
	}

	var rec Record
	var statusCode *int
	var contentType *string
	err = s.db.QueryRow(ctx, `
		SELECT status_code, content_type, response_body, created_at
		FROM idempotency_keys
		WHERE account_id = $1 AND endpoint = $2 AND idem_key = $3`,
		accountID, endpoint, key).Scan(&statusCode, &contentType, &rec.Body, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load idempotency key: %w", err)
	}
	if statusCode == nil {
		return nil, ErrInFlight
	}
	rec.StatusCode = *statusCode
	if contentType != nil {
		rec.ContentType = *contentType
	}
	return &rec, nil
}

// Complete stores the response for a claimed key so retries replay it.
func (s *Store) Complete(ctx context.Context, accountID int64, endpoint, key string, statusCode int, contentType string, body []byte) error {
	_, err := s.db.Exec(ctx, `
		UPDATE idempotency_keys
		SET status_code = $4, content_type = $5, response_body = $6
		WHERE account_id = $1 AND endpoint = $2 AND idem_key = $3`,
		accountID, endpoint, key, statusCode, contentType, body)
	if err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// Release drops an in-flight claim after a failed attempt so the client
// can retry with the same key.
func (s *Store) Release(ctx context.Context, accountID int64, endpoint, key string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM idempotency_keys
		WHERE account_id = $1 AND endpoint = $2 AND idem_key = $3 AND status_code IS NULL`,
		accountID, endpoint, key)
	if err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
