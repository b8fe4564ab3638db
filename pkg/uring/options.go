package uring

import "time"

const (
	defaultEntries     = 64
	defaultWaitTimeout = 50 * time.Millisecond
)

// Options configure a Source.
type Options struct {
	// Entries sizes the submission and completion rings.
	Entries uint32
	// WaitTimeout bounds each blocking completion wait in the reaper, so
	// shutdown is noticed promptly.
	WaitTimeout time.Duration
}

type Option func(options *Options) error

func WithEntries(n uint32) Option {
	return func(options *Options) error {
		if n > 0 {
			options.Entries = n
		}
		return nil
	}
}

func WithWaitTimeout(d time.Duration) Option {
	return func(options *Options) error {
		if d > 0 {
			options.WaitTimeout = d
		}
		return nil
	}
}
