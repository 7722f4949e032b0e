package book

import "errors"

// Sentinel errors per spec.md §7's error table, checked with errors.Is,
// following strategy/errors.go's convention in the teacher pack.
var (
	ErrPositionNotFound      = errors.New("book: position not found")
	ErrTickOutOfRange        = errors.New("book: tick out of range")
	ErrTickNotOnSpacing      = errors.New("book: tick not on spacing grid")
	ErrInsufficientLiquidity = errors.New("book: insufficient liquidity for swap")
	ErrInvalidRange          = errors.New("book: lower tick must be less than upper tick")
)
