package cqio

import (
	"github.com/brickingsoft/errors"
)

// Result carries the terminal outcome of one submitted operation.
type Result struct {
	N   int
	Err error
}

type stateKind uint8

const (
	stateConsumed stateKind = iota
	stateNotStarted
	stateInFlight
	stateResolved
)

// NotStarted returns a fresh operation state holding the submission
// arguments.
func NotStarted[S any, C any](seed S) State[S, C] {
	return State[S, C]{kind: stateNotStarted, seed: seed}
}

// State sequences a completion-queue operation through submit-once then
// poll-until-done. S seeds the submission; C is carried from submission to
// resolution. Transitions run one way: NotStarted, InFlight, Resolved.
//
// The zero State is consumed. Every future built on this engine replaces
// its state with the value Advance returns, and with the zero value after
// Take, so reusing a terminal state panics instead of silently corrupting
// results.
type State[S any, C any] struct {
	kind  stateKind
	seed  S
	token Token
	carry C
	res   Result
}

// InFlight reports whether the operation has been submitted and is still
// awaiting completion.
func (s State[S, C]) InFlight() bool {
	return s.kind == stateInFlight
}

// Resolved reports whether the terminal result is available for Take.
func (s State[S, C]) Resolved() bool {
	return s.kind == stateResolved
}

// Advance drives the state one step. It consumes the receiver; callers must
// replace their state with next.
//
// From NotStarted, submit runs once; its error is terminal and next is
// consumed, with nothing outstanding and nothing to clean up. A successful
// submission moves to InFlight and polls immediately, since the completion
// may already have landed. From InFlight, poll runs; not ready keeps the
// state InFlight, ready resolves it. Advancing a resolved or consumed state
// panics.
func (s State[S, C]) Advance(
	w Waker,
	submit func(seed S) (Token, C, error),
	poll func(w Waker, token Token) (n int, ready bool, err error),
) (next State[S, C], resolved bool, err error) {
	switch s.kind {
	case stateNotStarted:
		token, carry, submitErr := submit(s.seed)
		if submitErr != nil {
			err = submitErr
			return
		}
		s.kind = stateInFlight
		s.token = token
		s.carry = carry
		var zeroSeed S
		s.seed = zeroSeed
		fallthrough
	case stateInFlight:
		n, ready, pollErr := poll(w, s.token)
		if !ready {
			next = s
			return
		}
		s.kind = stateResolved
		s.res = Result{N: n, Err: pollErr}
		next = s
		resolved = true
		return
	default:
		panic(errors.From(
			ErrStateConsumed,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		))
	}
}

// Take extracts the terminal result and the carried value. It panics unless
// the state is resolved; callers zero their state afterwards so a second
// Take panics too.
func (s State[S, C]) Take() (Result, C) {
	if s.kind != stateResolved {
		panic(errors.From(
			ErrStateConsumed,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		))
	}
	return s.res, s.carry
}
