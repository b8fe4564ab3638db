package cqio

import (
	"strconv"
	"sync/atomic"

	"github.com/brickingsoft/errors"
)

// Wrap takes ownership of b and returns its reference-counted wrapper. The
// count starts at one, held by the wrapper handle itself.
func Wrap(b []byte) *Buffer {
	buf := &Buffer{b: b}
	buf.refs.Store(1)
	return buf
}

// Buffer owns a byte allocation shared between an awaiting future and an
// in-flight operation. Both hold it independently, so the allocation cannot
// be reclaimed until each has released its reference. No locking is needed
// beyond the atomic count: exactly one party at a time materializes a
// scatter view, and only while the operation is outstanding.
type Buffer struct {
	b    []byte
	refs atomic.Int64
}

// Len returns the length of the wrapped allocation.
func (buf *Buffer) Len() int {
	return len(buf.b)
}

// Retain adds a reference and returns buf. Sources call it when a
// submission hands the allocation to the kernel.
func (buf *Buffer) Retain() *Buffer {
	buf.refs.Add(1)
	return buf
}

// Release drops a reference previously taken with Retain or Wrap.
func (buf *Buffer) Release() {
	if n := buf.refs.Add(-1); n < 0 {
		panic(errors.From(
			ErrInvariantViolated,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta("refs", strconv.FormatInt(n, 10)),
		))
	}
}

// Refs returns the current reference count.
func (buf *Buffer) Refs() int64 {
	return buf.refs.Load()
}

// Scatter materializes vecs as (address, length) views into the allocation.
// Views are valid only for as long as the operation they were built for is
// outstanding. No I/O happens here.
func (buf *Buffer) Scatter(vecs []Vec) (views [][]byte, err error) {
	views = make([][]byte, 0, len(vecs))
	for _, vec := range vecs {
		if vec.End() > uint64(len(buf.b)) || vec.End() < vec.Offset {
			views = nil
			err = errors.New(
				"cqio: scatter descriptor out of range",
				errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			)
			return
		}
		views = append(views, buf.b[vec.Offset:vec.End()])
	}
	return
}

// Unwrap hands the original allocation back. It fails with
// ErrBufferStillReferenced unless the wrapper holds the only remaining
// reference; the wrapper is dead afterwards.
func (buf *Buffer) Unwrap() (b []byte, err error) {
	if n := buf.refs.Load(); n != 1 {
		err = errors.From(
			ErrBufferStillReferenced,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta("refs", strconv.FormatInt(n, 10)),
		)
		return
	}
	buf.refs.Store(0)
	b = buf.b
	buf.b = nil
	return
}
