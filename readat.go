package cqio

import (
	"github.com/brickingsoft/errors"
)

// ReadResult is the success payload of a read future: the transferred byte
// count and the original allocation, filled.
type ReadResult struct {
	N     int
	Bytes []byte
}

type readSeed struct {
	off uint64
	buf *Buffer
}

// ReadAt builds a future that reads len(b) bytes from src at byte offset
// off into b. On success the future yields b's own allocation back, not a
// copy.
//
// Dropping the future before it resolves does not cancel the submitted
// operation. The buffer stays referenced until the resource finishes with
// it, and the eventual result is discarded with no delivery path: drive
// futures to completion, or accept that the allocation lives until the
// operation naturally drains.
func ReadAt(src Source, off uint64, b []byte) *ReadFuture {
	return &ReadFuture{
		src:   src,
		state: NotStarted[readSeed, *Buffer](readSeed{off: off, buf: Wrap(b)}),
	}
}

// ReadFuture reads from a resource at a byte offset into a caller-supplied
// buffer. Poll it through a driver or scheduler honoring the Waker
// contract.
type ReadFuture struct {
	src   Source
	state State[readSeed, *Buffer]
}

// Poll drives the read one step. The first poll wraps and submits; later
// polls check completion. A terminal error reports ready true; polling
// again after that panics.
//
// On completion the wrapper must hold the only remaining reference to the
// buffer. Anything else is a defect in the engine or its caller and panics
// with ErrInvariantViolated. On I/O failure the buffer is forfeited along
// with the wrapper; there is no partial recovery.
func (f *ReadFuture) Poll(w Waker) (res ReadResult, ready bool, err error) {
	next, resolved, advErr := f.state.Advance(w, f.submit, f.src.PollComplete)
	f.state = next
	if advErr != nil {
		ready = true
		err = errors.From(
			ErrSubmission,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpRead),
			errors.WithWrap(advErr),
		)
		return
	}
	if !resolved {
		return
	}
	r, buf := f.state.Take()
	f.state = State[readSeed, *Buffer]{}
	ready = true
	if r.Err != nil {
		err = errors.From(
			ErrCompletion,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpRead),
			errors.WithWrap(r.Err),
		)
		return
	}
	b, unwrapErr := buf.Unwrap()
	if unwrapErr != nil {
		panic(errors.From(
			ErrInvariantViolated,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpRead),
			errors.WithWrap(unwrapErr),
		))
	}
	res = ReadResult{N: r.N, Bytes: b}
	return
}

func (f *ReadFuture) submit(seed readSeed) (token Token, buf *Buffer, err error) {
	buf = seed.buf
	vecs := []Vec{{Offset: 0, Len: uint64(buf.Len())}}
	token, err = f.src.SubmitRead(seed.off, buf, vecs)
	return
}
