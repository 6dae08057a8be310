package notifications

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Notification struct {
	ID             int64     `json:"id"`
	RecipientEmail string    `json:"recipientEmail"`
	EventType      string    `json:"eventType"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	Sent           bool      `json:"sent"`
	CreatedAt      time.Time `json:"createdAt"`
}

type StoreAPI interface {
	Insert(ctx context.Context, recipientEmail, eventType, subject, body string, sent bool) (int64, error)
	List(ctx context.Context, limit, offset int) ([]Notification, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Insert(ctx context.Context, recipientEmail, eventType, subject, body string, sent bool) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO notifications (recipient_email, event_type, subject, body, sent)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, recipientEmail, eventType, subject, body, sent).Scan(&id)
	return id, err
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, recipient_email, event_type, subject, body, sent, created_at
    FROM notifications
    ORDER BY created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientEmail, &n.EventType, &n.Subject, &n.Body, &n.Sent, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
