package cqio

// Token is an opaque value correlating a submitted operation with its
// eventual completion. It is valid from submission until the poll that
// observes it ready; polling it after that is undefined.
type Token uint64

// Waker is the wake-on-completion contract between a source and whatever
// drives its futures. PollComplete registers the caller's waker when an
// operation has not finished; the source invokes Wake once its completion
// arrives. The last registered waker wins.
type Waker interface {
	Wake()
}

// Source is the capability any backing resource (file, socket, block
// device) must implement to serve futures built on this engine.
//
// Access is single-threaded cooperative per source: a token must be polled
// by at most one logical task, and concurrent polling of the same token is
// undefined. Concurrent use across sources needs synchronization at a
// higher layer.
type Source interface {
	// SubmitRead enqueues an asynchronous scatter read starting at byte
	// offset off of the resource. vecs describe where, inside buf, each
	// transferred segment lands. The source retains buf for the duration
	// of flight and releases that reference no later than the completion
	// becoming observable. On error nothing is outstanding and no
	// reference is held.
	SubmitRead(off uint64, buf *Buffer, vecs []Vec) (Token, error)

	// PollComplete reports, without blocking, whether the operation behind
	// token has finished. Not ready: w is registered and ready is false.
	// Ready: n is the transferred byte count, which may be less than
	// requested, or err is the operation's failure; the token dies here.
	PollComplete(w Waker, token Token) (n int, ready bool, err error)
}
