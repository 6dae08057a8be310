package timesheet

import "errors"

var (
	ErrNotFound          = errors.New("timesheet not found")
	ErrNotPending        = errors.New("timesheet is not in pending state")
	ErrSignatureRequired = errors.New("signature is required")
	ErrReasonRequired    = errors.New("rejection reason is required")
	ErrInvalidPeriod     = errors.New("invalid reporting period")
	ErrInvalidEntries    = errors.New("invalid period entries")
)
