package uring

import "github.com/brickingsoft/errors"

var (
	ErrRingClosed   = errors.Define("uring: ring closed")
	ErrSQFull       = errors.Define("uring: submission queue full")
	ErrUnknownToken = errors.Define("uring: unknown operation token")
)

func IsRingClosed(err error) bool {
	return errors.Is(err, ErrRingClosed)
}

func IsSQFull(err error) bool {
	return errors.Is(err, ErrSQFull)
}
