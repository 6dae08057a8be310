package timesheet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	sheets map[int64]Timesheet
	nextID int64

	approveErr error
	rejectErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{sheets: make(map[int64]Timesheet), nextID: 1}
}

func (f *fakeStore) Create(_ context.Context, sheet Timesheet) (int64, error) {
	id := f.nextID
	f.nextID++
	sheet.ID = id
	sheet.CreatedAt = time.Now()
	f.sheets[id] = sheet
	return id, nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (Timesheet, error) {
	sheet, ok := f.sheets[id]
	if !ok {
		return Timesheet{}, ErrNotFound
	}
	return sheet, nil
}

func (f *fakeStore) ListPending(_ context.Context) ([]Timesheet, error) {
	var out []Timesheet
	for _, sheet := range f.sheets {
		if sheet.Status == StatusPending {
			out = append(out, sheet)
		}
	}
	return out, nil
}

func (f *fakeStore) List(_ context.Context, _ ListFilter) ([]Timesheet, int, error) {
	var out []Timesheet
	for _, sheet := range f.sheets {
		out = append(out, sheet)
	}
	return out, len(out), nil
}

func (f *fakeStore) Approve(_ context.Context, id int64, signature []byte, approverName string) error {
	if f.approveErr != nil {
		return f.approveErr
	}
	sheet, ok := f.sheets[id]
	if !ok {
		return ErrNotFound
	}
	if sheet.Status != StatusPending {
		return ErrNotPending
	}
	now := time.Now()
	sheet.Status = StatusApproved
	sheet.SupervisorSignature = signature
	sheet.ApproverName = approverName
	sheet.ApprovedAt = &now
	f.sheets[id] = sheet
	return nil
}

func (f *fakeStore) Reject(_ context.Context, id int64, reason, rejectorName string) error {
	if f.rejectErr != nil {
		return f.rejectErr
	}
	sheet, ok := f.sheets[id]
	if !ok {
		return ErrNotFound
	}
	if sheet.Status != StatusPending {
		return ErrNotPending
	}
	now := time.Now()
	sheet.Status = StatusRejected
	sheet.RejectionReason = reason
	sheet.RejectorName = rejectorName
	sheet.RejectedAt = &now
	f.sheets[id] = sheet
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.sheets[id]; !ok {
		return ErrNotFound
	}
	delete(f.sheets, id)
	return nil
}

func submitInput() SubmitInput {
	return SubmitInput{
		FirstName:       "Amina",
		LastName:        "Haddad",
		ContractorEmail: "amina@example.com",
		Company:         "Dawaam",
		Department:      "Operations",
		JobTitle:        "Site Engineer",
		PeriodType:      PeriodWeekly,
		PeriodStart:     date(2025, time.January, 6),
		RateType:        RateHourly,
		WorkLocation:    "Tripoli",
		WorkDescription: "weekly site supervision",
		SupervisorName:  "Omar K",
		Days: []DayInput{
			{Date: date(2025, time.January, 6), Hours: 8},
			{Date: date(2025, time.January, 7), Hours: 8},
			{Date: date(2025, time.January, 8), Hours: 8},
			{Date: date(2025, time.January, 9), Hours: 8},
			{Date: date(2025, time.January, 10), Hours: 8},
		},
		Signature: []byte("sig-bytes"),
	}
}

func TestSubmitComputesAggregates(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	sheet, err := svc.Submit(context.Background(), submitInput())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, sheet.Status)
	assert.Equal(t, 40.0, sheet.TotalHours)
	assert.Equal(t, 5, sheet.TotalDays)
	assert.Equal(t, "Week of 1/6/2025", sheet.PeriodText)
	assert.Len(t, sheet.Entries, 7)
	assert.Equal(t, []byte("sig-bytes"), sheet.ContractorSignature)
}

func TestSubmitRequiresSignature(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	input := submitInput()
	input.Signature = nil
	_, err := svc.Submit(context.Background(), input)
	assert.ErrorIs(t, err, ErrSignatureRequired)
}

func TestApproveRequiresSignature(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	_, err := svc.Approve(context.Background(), 1, nil, "Omar K")
	assert.ErrorIs(t, err, ErrSignatureRequired)
}

func TestApproveTransition(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	sheet, err := svc.Submit(context.Background(), submitInput())
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), sheet.ID, []byte("sup-sig"), "Omar K")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, "Omar K", approved.ApproverName)
	require.NotNil(t, approved.ApprovedAt)

	// A second decision on the same sheet loses the race.
	_, err = svc.Approve(context.Background(), sheet.ID, []byte("sup-sig"), "Omar K")
	assert.ErrorIs(t, err, ErrNotPending)
	_, err = svc.Reject(context.Background(), sheet.ID, "late", "Omar K")
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestRejectRequiresReason(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	_, err := svc.Reject(context.Background(), 1, "", "Omar K")
	assert.ErrorIs(t, err, ErrReasonRequired)

	_, err = svc.Reject(context.Background(), 1, "  \t\n ", "Omar K")
	assert.ErrorIs(t, err, ErrReasonRequired)
}

func TestRejectTransition(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	sheet, err := svc.Submit(context.Background(), submitInput())
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), sheet.ID, "hours do not match the site log", "Omar K")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Equal(t, "hours do not match the site log", rejected.RejectionReason)
	require.NotNil(t, rejected.RejectedAt)
}

func TestListStripsSignatures(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	_, err := svc.Submit(context.Background(), submitInput())
	require.NoError(t, err)

	sheets, total, err := svc.List(context.Background(), ListFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, sheets, 1)
	assert.Nil(t, sheets[0].ContractorSignature)
	assert.Nil(t, sheets[0].SupervisorSignature)
}
