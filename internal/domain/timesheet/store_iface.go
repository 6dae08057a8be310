package timesheet

import "context"

type StoreAPI interface {
	Create(ctx context.Context, sheet Timesheet) (int64, error)
	Get(ctx context.Context, id int64) (Timesheet, error)
	ListPending(ctx context.Context) ([]Timesheet, error)
	List(ctx context.Context, filter ListFilter) ([]Timesheet, int, error)
	Approve(ctx context.Context, id int64, signature []byte, approverName string) error
	Reject(ctx context.Context, id int64, reason, rejectorName string) error
	Delete(ctx context.Context, id int64) error
}
