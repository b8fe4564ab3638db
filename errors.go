package cqio

import (
	"github.com/brickingsoft/errors"
)

var (
	// ErrSubmission reports that the backing resource rejected a request
	// before any operation began. Nothing is outstanding afterwards.
	ErrSubmission = errors.Define("cqio: submission rejected")
	// ErrCompletion reports that the resource failed a previously submitted
	// operation. It wraps the low-level cause.
	ErrCompletion = errors.Define("cqio: completion failed")
	// ErrBufferStillReferenced reports an Unwrap attempted while more than
	// one reference to the buffer exists.
	ErrBufferStillReferenced = errors.Define("cqio: buffer still referenced")
	// ErrInvariantViolated is carried by the panic raised when the buffer
	// reference invariant breaks at completion. A logic defect, not a
	// runtime condition.
	ErrInvariantViolated = errors.Define("cqio: buffer reference invariant violated")
	// ErrStateConsumed is carried by the panic raised when an operation
	// state is advanced or taken after it already produced its terminal
	// value.
	ErrStateConsumed = errors.Define("cqio: operation state already terminal")
)

func IsSubmission(err error) bool {
	return errors.Is(err, ErrSubmission)
}

func IsCompletion(err error) bool {
	return errors.Is(err, ErrCompletion)
}

func IsBufferStillReferenced(err error) bool {
	return errors.Is(err, ErrBufferStillReferenced)
}

func IsInvariantViolated(err error) bool {
	return errors.Is(err, ErrInvariantViolated)
}

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "cqio"
)

const (
	errMetaOpKey  = "op"
	errMetaOpRead = "read"
)
