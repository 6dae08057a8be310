package leads

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Insert(ctx context.Context, kind Kind, sub *Submission) (int64, error) {
	detail := sub.Detail
	if detail == nil {
		detail = map[string]string{}
	}
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return 0, fmt.Errorf("marshal lead detail: %w", err)
	}

	var id int64
	err = s.DB.QueryRow(ctx, `
		INSERT INTO leads (kind, name, email, phone, company, message, detail, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, now())
		RETURNING id`,
		kind, sub.Name, sub.Email, sub.Phone, sub.Company, sub.Message, detailJSON).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert lead: %w", err)
	}
	return id, nil
}

// ListFilter narrows the admin listing.
type ListFilter struct {
	Kind   string
	Limit  int
	Offset int
}

func (s *Store) List(ctx context.Context, f ListFilter) ([]Lead, int, error) {
	where := ""
	countArgs := []any{}
	if f.Kind != "" {
		where = "WHERE kind = $1"
		countArgs = append(countArgs, f.Kind)
	}

	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM leads `+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	args := append([]any{}, countArgs...)
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT id, kind, name, email, COALESCE(phone, ''), COALESCE(company, ''),
			COALESCE(message, ''), detail, created_at
		FROM leads %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(countArgs)+1, len(countArgs)+2)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		var l Lead
		var detailJSON []byte
		if err := rows.Scan(&l.ID, &l.Kind, &l.Name, &l.Email, &l.Phone, &l.Company,
			&l.Message, &detailJSON, &l.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		if len(detailJSON) > 0 {
			if err := json.Unmarshal(detailJSON, &l.Detail); err != nil {
				return nil, 0, fmt.Errorf("decode lead detail: %w", err)
			}
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}
