package account

import "errors"

var (
	ErrNotFound   = errors.New("account: not found")
	ErrEmailTaken = errors.New("account: email already registered")
	ErrInactive   = errors.New("account: deactivated")
)
