// Package fake provides deterministic in-memory implementations of the
// cqio backing-resource capability for tests and examples: a scripted
// source whose completions are delivered by hand, and an always-zero source
// that behaves like /dev/zero.
package fake

import (
	"sync"

	"github.com/brickingsoft/cqio"
	"github.com/brickingsoft/errors"
	"github.com/eapache/queue"
)

var (
	ErrQueueFull    = errors.Define("fake: submission queue full")
	ErrUnknownToken = errors.Define("fake: unknown operation token")
	ErrSourceClosed = errors.Define("fake: source closed")
)

// Options configure a fake Source.
type Options struct {
	// Fill is the byte successful completions write into every scatter view.
	Fill byte
	// SubmitErr, when set, makes every submission fail with it.
	SubmitErr error
	// AutoComplete finishes operations at submission time, so the first
	// poll observes them ready.
	AutoComplete bool
	// HoldBuffers keeps the in-flight buffer reference after completion,
	// simulating a party that never lets go of the allocation.
	HoldBuffers bool
	// QueueCapacity bounds the number of uncompleted operations; zero means
	// unbounded.
	QueueCapacity int
}

type Option func(options *Options) error

func WithFill(b byte) Option {
	return func(options *Options) error {
		options.Fill = b
		return nil
	}
}

func WithSubmitErr(err error) Option {
	return func(options *Options) error {
		options.SubmitErr = err
		return nil
	}
}

func WithAutoComplete() Option {
	return func(options *Options) error {
		options.AutoComplete = true
		return nil
	}
}

func WithHoldBuffers() Option {
	return func(options *Options) error {
		options.HoldBuffers = true
		return nil
	}
}

func WithQueueCapacity(n int) Option {
	return func(options *Options) error {
		options.QueueCapacity = n
		return nil
	}
}

// New builds a scripted source. Submissions park in a FIFO until Complete,
// CompleteN or FailNext finishes them, unless AutoComplete is set.
func New(options ...Option) (src *Source, err error) {
	opts := Options{}
	for _, option := range options {
		if err = option(&opts); err != nil {
			return
		}
	}
	src = &Source{
		opts:     opts,
		pending:  queue.New(),
		inflight: make(map[cqio.Token]*operation),
	}
	return
}

// NewZero returns a source every read from which completes immediately with
// zero-filled data, the in-memory stand-in for /dev/zero.
func NewZero() *Source {
	src, _ := New(WithAutoComplete())
	return src
}

type operation struct {
	token cqio.Token
	views [][]byte
	buf   *cqio.Buffer
	waker cqio.Waker
	done  bool
	n     int
	err   error
}

// Source is a scripted cqio.Source. Completion order is submission order.
type Source struct {
	mu       sync.Mutex
	opts     Options
	seq      uint64
	pending  *queue.Queue
	inflight map[cqio.Token]*operation
}

// SubmitRead implements cqio.Source. The file offset is ignored: scripted
// data is positionless, like /dev/zero.
func (src *Source) SubmitRead(_ uint64, buf *cqio.Buffer, vecs []cqio.Vec) (token cqio.Token, err error) {
	src.mu.Lock()
	defer src.mu.Unlock()
	if src.opts.SubmitErr != nil {
		err = src.opts.SubmitErr
		return
	}
	if capacity := src.opts.QueueCapacity; capacity > 0 && src.pending.Length() >= capacity {
		err = errors.From(ErrQueueFull)
		return
	}
	views, scatterErr := buf.Scatter(vecs)
	if scatterErr != nil {
		err = scatterErr
		return
	}
	src.seq++
	token = cqio.Token(src.seq)
	op := &operation{token: token, views: views, buf: buf.Retain()}
	src.inflight[token] = op
	src.pending.Add(op)
	if src.opts.AutoComplete {
		src.completeNext(total(views), nil)
	}
	return
}

// PollComplete implements cqio.Source.
func (src *Source) PollComplete(w cqio.Waker, token cqio.Token) (n int, ready bool, err error) {
	src.mu.Lock()
	defer src.mu.Unlock()
	op := src.inflight[token]
	if op == nil {
		ready = true
		err = errors.From(ErrUnknownToken)
		return
	}
	if !op.done {
		op.waker = w
		return
	}
	delete(src.inflight, token)
	n, err = op.n, op.err
	ready = true
	return
}

// Complete finishes the oldest pending operation successfully, filling its
// scatter views entirely with the configured fill byte.
func (src *Source) Complete() bool {
	src.mu.Lock()
	defer src.mu.Unlock()
	if src.pending.Length() == 0 {
		return false
	}
	op := src.pending.Peek().(*operation)
	return src.completeNext(total(op.views), nil)
}

// CompleteN finishes the oldest pending operation as a partial transfer of
// n bytes.
func (src *Source) CompleteN(n int) bool {
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.completeNext(n, nil)
}

// FailNext finishes the oldest pending operation with err and leaves its
// views untouched.
func (src *Source) FailNext(err error) bool {
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.completeNext(0, err)
}

// Pending reports the number of submitted, uncompleted operations.
func (src *Source) Pending() int {
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.pending.Length()
}

func (src *Source) completeNext(n int, failure error) bool {
	if src.pending.Length() == 0 {
		return false
	}
	op := src.pending.Remove().(*operation)
	if failure == nil {
		remain := n
		for _, view := range op.views {
			for i := range view {
				if remain == 0 {
					break
				}
				view[i] = src.opts.Fill
				remain--
			}
		}
		op.n = n - remain
	} else {
		op.err = failure
	}
	// the transfer is over; the in-flight reference goes away here unless
	// the source is scripted to hold it.
	if !src.opts.HoldBuffers {
		op.buf.Release()
	}
	op.buf = nil
	op.views = nil
	op.done = true
	if op.waker != nil {
		w := op.waker
		op.waker = nil
		w.Wake()
	}
	return true
}

func total(views [][]byte) (n int) {
	for _, view := range views {
		n += len(view)
	}
	return
}
