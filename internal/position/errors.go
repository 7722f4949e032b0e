package position

import "errors"

var (
	// ErrInsufficientBalance is returned when a debit would overdraw the wallet.
	ErrInsufficientBalance = errors.New("position: insufficient wallet balance")
)
