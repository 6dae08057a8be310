package timesheet

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const sheetColumns = `
  id, first_name, last_name, contractor_email, company, department, job_title,
  period_type, period_start, period_text, rate_type,
  work_location, work_description, supervisor_name,
  total_hours, total_days,
  contractor_signature, signed_at, status,
  supervisor_signature, COALESCE(approver_name,''), approved_at,
  COALESCE(rejection_reason,''), COALESCE(rejector_name,''), rejected_at,
  created_at`

func (s *Store) Create(ctx context.Context, sheet Timesheet) (int64, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	if err := tx.QueryRow(ctx, `
    INSERT INTO timesheets (
      first_name, last_name, contractor_email, company, department, job_title,
      period_type, period_start, period_text, rate_type,
      work_location, work_description, supervisor_name,
      total_hours, total_days, contractor_signature, signed_at, status
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
    RETURNING id
  `, sheet.FirstName, sheet.LastName, sheet.ContractorEmail, sheet.Company, sheet.Department, sheet.JobTitle,
		sheet.PeriodType, sheet.PeriodStart, sheet.PeriodText, sheet.RateType,
		sheet.WorkLocation, sheet.WorkDescription, sheet.SupervisorName,
		sheet.TotalHours, sheet.TotalDays, sheet.ContractorSignature, sheet.SignedAt, StatusPending).Scan(&id); err != nil {
		return 0, err
	}

	for position, entry := range sheet.Entries {
		if _, err := tx.Exec(ctx, `
      INSERT INTO timesheet_entries (timesheet_id, entry_date, hours, start_time, end_time, description, location, position)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `, id, entry.Date, entry.Hours, entry.StartTime, entry.EndTime, entry.Description, entry.Location, position); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id int64) (Timesheet, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+sheetColumns+" FROM timesheets WHERE id = $1", id)
	sheet, err := scanSheet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Timesheet{}, ErrNotFound
	}
	if err != nil {
		return Timesheet{}, err
	}

	entries, err := s.entriesFor(ctx, id)
	if err != nil {
		return Timesheet{}, err
	}
	sheet.Entries = entries
	return sheet, nil
}

func (s *Store) ListPending(ctx context.Context) ([]Timesheet, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+sheetColumns+" FROM timesheets WHERE status = $1 ORDER BY created_at ASC", StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sheets []Timesheet
	for rows.Next() {
		sheet, err := scanSheet(rows)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sheets {
		entries, err := s.entriesFor(ctx, sheets[i].ID)
		if err != nil {
			return nil, err
		}
		sheets[i].Entries = entries
	}
	return sheets, nil
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]Timesheet, int, error) {
	query := "SELECT " + sheetColumns + " FROM timesheets WHERE 1=1"
	countQuery := "SELECT COUNT(1) FROM timesheets WHERE 1=1"
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		cond := fmt.Sprintf(" AND status = $%d", len(args))
		query += cond
		countQuery += cond
	}
	if filter.ContractorEmail != "" {
		args = append(args, filter.ContractorEmail)
		cond := fmt.Sprintf(" AND contractor_email = $%d", len(args))
		query += cond
		countQuery += cond
	}

	var total int
	if err := s.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sheets []Timesheet
	for rows.Next() {
		sheet, err := scanSheet(rows)
		if err != nil {
			return nil, 0, err
		}
		sheets = append(sheets, sheet)
	}
	return sheets, total, rows.Err()
}

// Approve flips a pending sheet to approved. The status predicate makes the
// transition atomic under a concurrent reject: the loser updates zero rows.
func (s *Store) Approve(ctx context.Context, id int64, signature []byte, approverName string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE timesheets
    SET status = $1, supervisor_signature = $2, approver_name = $3, approved_at = now()
    WHERE id = $4 AND status = $5
  `, StatusApproved, signature, approverName, id, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.transitionFailure(ctx, id)
	}
	return nil
}

func (s *Store) Reject(ctx context.Context, id int64, reason, rejectorName string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE timesheets
    SET status = $1, rejection_reason = $2, rejector_name = $3, rejected_at = now()
    WHERE id = $4 AND status = $5
  `, StatusRejected, reason, rejectorName, id, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.transitionFailure(ctx, id)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM timesheets WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) transitionFailure(ctx context.Context, id int64) error {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM timesheets WHERE id = $1", id).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrNotPending
}

func (s *Store) entriesFor(ctx context.Context, sheetID int64) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, entry_date, hours, COALESCE(start_time,''), COALESCE(end_time,''), COALESCE(description,''), COALESCE(location,'')
    FROM timesheet_entries
    WHERE timesheet_id = $1
    ORDER BY position ASC
  `, sheetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.Date, &entry.Hours, &entry.StartTime, &entry.EndTime, &entry.Description, &entry.Location); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type sheetScanner interface {
	Scan(dest ...any) error
}

func scanSheet(row sheetScanner) (Timesheet, error) {
	var sheet Timesheet
	err := row.Scan(
		&sheet.ID, &sheet.FirstName, &sheet.LastName, &sheet.ContractorEmail, &sheet.Company, &sheet.Department, &sheet.JobTitle,
		&sheet.PeriodType, &sheet.PeriodStart, &sheet.PeriodText, &sheet.RateType,
		&sheet.WorkLocation, &sheet.WorkDescription, &sheet.SupervisorName,
		&sheet.TotalHours, &sheet.TotalDays,
		&sheet.ContractorSignature, &sheet.SignedAt, &sheet.Status,
		&sheet.SupervisorSignature, &sheet.ApproverName, &sheet.ApprovedAt,
		&sheet.RejectionReason, &sheet.RejectorName, &sheet.RejectedAt,
		&sheet.CreatedAt,
	)
	return sheet, err
}
