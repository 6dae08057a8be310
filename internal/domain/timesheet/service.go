package timesheet

import (
	"context"
	"strings"
	"time"

	cryptoutil "dawaam/internal/platform/crypto"
)

type Service struct {
	Store  StoreAPI
	Crypto *cryptoutil.Service
}

func NewService(store StoreAPI, crypto *cryptoutil.Service) *Service {
	return &Service{Store: store, Crypto: crypto}
}

// Submit validates and persists a contractor submission as one atomic record:
// the sheet, its zero-filled per-day entries and the contractor signature all
// land together, in pending status.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (Timesheet, error) {
	if len(input.Signature) == 0 {
		return Timesheet{}, ErrSignatureRequired
	}

	anchor := NormalizeAnchor(input.PeriodType, input.PeriodStart)
	periodText, err := PeriodText(input.PeriodType, anchor)
	if err != nil {
		return Timesheet{}, err
	}
	entries, err := BuildEntries(input.PeriodType, anchor, input.Days)
	if err != nil {
		return Timesheet{}, err
	}
	totalHours, totalDays := Totals(entries)

	signedAt := input.SignedAt
	if signedAt.IsZero() {
		signedAt = time.Now().UTC()
	}

	signature, err := s.sealSignature(input.Signature)
	if err != nil {
		return Timesheet{}, err
	}

	sheet := Timesheet{
		FirstName:           input.FirstName,
		LastName:            input.LastName,
		ContractorEmail:     input.ContractorEmail,
		Company:             input.Company,
		Department:          input.Department,
		JobTitle:            input.JobTitle,
		PeriodType:          input.PeriodType,
		PeriodStart:         anchor,
		PeriodText:          periodText,
		RateType:            input.RateType,
		WorkLocation:        input.WorkLocation,
		WorkDescription:     input.WorkDescription,
		SupervisorName:      input.SupervisorName,
		TotalHours:          totalHours,
		TotalDays:           totalDays,
		ContractorSignature: signature,
		SignedAt:            signedAt,
		Status:              StatusPending,
		Entries:             entries,
	}

	id, err := s.Store.Create(ctx, sheet)
	if err != nil {
		return Timesheet{}, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (Timesheet, error) {
	sheet, err := s.Store.Get(ctx, id)
	if err != nil {
		return Timesheet{}, err
	}
	return s.openSignatures(sheet)
}

// ListPending returns the approval queue, oldest submission first.
func (s *Service) ListPending(ctx context.Context) ([]Timesheet, error) {
	sheets, err := s.Store.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sheets {
		sheets[i], err = s.openSignatures(sheets[i])
		if err != nil {
			return nil, err
		}
	}
	return sheets, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Timesheet, int, error) {
	sheets, total, err := s.Store.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	// Listing views carry aggregates only, not signature payloads.
	for i := range sheets {
		sheets[i].ContractorSignature = nil
		sheets[i].SupervisorSignature = nil
	}
	return sheets, total, nil
}

func (s *Service) Approve(ctx context.Context, id int64, signature []byte, approverName string) (Timesheet, error) {
	if len(signature) == 0 {
		return Timesheet{}, ErrSignatureRequired
	}
	sealed, err := s.sealSignature(signature)
	if err != nil {
		return Timesheet{}, err
	}
	if err := s.Store.Approve(ctx, id, sealed, approverName); err != nil {
		return Timesheet{}, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Reject(ctx context.Context, id int64, reason, rejectorName string) (Timesheet, error) {
	if strings.TrimSpace(reason) == "" {
		return Timesheet{}, ErrReasonRequired
	}
	if err := s.Store.Reject(ctx, id, reason, rejectorName); err != nil {
		return Timesheet{}, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.Store.Delete(ctx, id)
}

func (s *Service) sealSignature(signature []byte) ([]byte, error) {
	if s.Crypto == nil {
		return signature, nil
	}
	return s.Crypto.Encrypt(signature)
}

func (s *Service) openSignatures(sheet Timesheet) (Timesheet, error) {
	if s.Crypto == nil {
		return sheet, nil
	}
	var err error
	if sheet.ContractorSignature, err = s.Crypto.Decrypt(sheet.ContractorSignature); err != nil {
		return Timesheet{}, err
	}
	if sheet.SupervisorSignature, err = s.Crypto.Decrypt(sheet.SupervisorSignature); err != nil {
		return Timesheet{}, err
	}
	return sheet, nil
}
