//go:build linux

package uring

import (
	"sync"
	"syscall"
	"time"
	"unsafe"

	"github.com/brickingsoft/cqio"
	"github.com/brickingsoft/errors"
	"github.com/pawelgaczynski/giouring"
	"golang.org/x/sys/unix"
)

// Open wraps fd into an io_uring backed cqio.Source. The fd stays owned by
// the caller; Close tears the ring down but leaves the fd open.
func Open(fd int, options ...Option) (src *Source, err error) {
	opts := Options{
		Entries:     defaultEntries,
		WaitTimeout: defaultWaitTimeout,
	}
	for _, option := range options {
		if err = option(&opts); err != nil {
			return
		}
	}
	ring, ringErr := giouring.CreateRing(opts.Entries)
	if ringErr != nil {
		err = ringErr
		return
	}
	src = &Source{
		fd:          fd,
		ring:        ring,
		entries:     opts.Entries,
		waitTimeout: opts.WaitTimeout,
		inflight:    make(map[cqio.Token]*operation),
		stopCh:      make(chan struct{}),
	}
	src.wg.Add(1)
	go src.reap()
	return
}

// OpenFile opens path read-only and wraps it; the fd is closed together
// with the source.
func OpenFile(path string, options ...Option) (src *Source, err error) {
	fd, openErr := unix.Open(path, unix.O_RDONLY, 0)
	if openErr != nil {
		err = openErr
		return
	}
	src, err = Open(fd, options...)
	if err != nil {
		_ = unix.Close(fd)
		return
	}
	src.ownsFd = true
	return
}

type operation struct {
	buf *cqio.Buffer
	// iovs keeps the scatter array reachable while the kernel owns it.
	iovs  []unix.Iovec
	views [][]byte
	waker cqio.Waker
	done  bool
	n     int
	err   error
}

// Source submits scatter reads against one file descriptor and reaps their
// completions on a background goroutine. Submission and polling follow the
// cqio single-task contract; the reaper is the only other goroutine
// touching the inflight table, under the mutex.
type Source struct {
	fd          int
	ownsFd      bool
	ring        *giouring.Ring
	entries     uint32
	waitTimeout time.Duration
	mu          sync.Mutex
	seq         uint64
	inflight    map[cqio.Token]*operation
	stopCh      chan struct{}
	wg          sync.WaitGroup
	closed      bool
}

// SubmitRead implements cqio.Source. The buffer is retained until the
// kernel reports the operation done, even if nobody ever polls for it.
func (src *Source) SubmitRead(off uint64, buf *cqio.Buffer, vecs []cqio.Vec) (token cqio.Token, err error) {
	views, scatterErr := buf.Scatter(vecs)
	if scatterErr != nil {
		err = scatterErr
		return
	}
	src.mu.Lock()
	if src.closed {
		src.mu.Unlock()
		err = errors.From(ErrRingClosed)
		return
	}
	sqe := src.ring.GetSQE()
	if sqe == nil {
		src.mu.Unlock()
		err = errors.From(ErrSQFull)
		return
	}
	src.seq++
	token = cqio.Token(src.seq)
	op := &operation{buf: buf.Retain(), views: views}
	if len(views) == 1 {
		view := views[0]
		sqe.PrepareRead(src.fd, uintptr(unsafe.Pointer(unsafe.SliceData(view))), uint32(len(view)), off)
	} else {
		op.iovs = make([]unix.Iovec, 0, len(views))
		for _, view := range views {
			iov := unix.Iovec{Base: unsafe.SliceData(view)}
			iov.SetLen(len(view))
			op.iovs = append(op.iovs, iov)
		}
		sqe.PrepareReadv(src.fd, uintptr(unsafe.Pointer(unsafe.SliceData(op.iovs))), uint32(len(op.iovs)), off)
	}
	sqe.SetData64(uint64(token))
	src.inflight[token] = op
	for {
		if _, submitErr := src.ring.Submit(); submitErr != nil {
			if errors.Is(submitErr, syscall.EAGAIN) || errors.Is(submitErr, syscall.EINTR) {
				continue
			}
			// the entry already sits in the submission ring and a later
			// flush would carry it along; neuter it before letting go of
			// the buffer, or the kernel could write into memory whose owner
			// was told nothing got enqueued.
			discardSQE(sqe)
			delete(src.inflight, token)
			op.buf.Release()
			op.buf = nil
			src.mu.Unlock()
			token = 0
			err = submitErr
			return
		}
		break
	}
	src.mu.Unlock()
	return
}

// discardSQE rewrites a prepared but unsubmitted entry into a nop carrying
// no token. Tokens start at one, so its completion matches nothing in the
// inflight table and the reaper drops it on the floor.
func discardSQE(sqe *giouring.SubmissionQueueEntry) {
	sqe.PrepareNop()
	sqe.SetData64(0)
}

// PollComplete implements cqio.Source.
func (src *Source) PollComplete(w cqio.Waker, token cqio.Token) (n int, ready bool, err error) {
	src.mu.Lock()
	op := src.inflight[token]
	if op == nil {
		src.mu.Unlock()
		ready = true
		err = errors.From(ErrUnknownToken)
		return
	}
	if !op.done {
		op.waker = w
		src.mu.Unlock()
		return
	}
	delete(src.inflight, token)
	n, err = op.n, op.err
	src.mu.Unlock()
	ready = true
	return
}

func (src *Source) reap() {
	defer src.wg.Done()
	cq := make([]*giouring.CompletionQueueEvent, src.entries)
	for {
		select {
		case <-src.stopCh:
			return
		default:
		}
		src.reapOnce(cq)
	}
}

// reapOnce waits up to waitTimeout for completions and delivers one batch.
// It reports how many CQEs it consumed.
func (src *Source) reapOnce(cq []*giouring.CompletionQueueEvent) (completed uint32) {
	waitTimeout := syscall.NsecToTimespec(src.waitTimeout.Nanoseconds())
	if _, waitErr := src.ring.WaitCQEs(1, &waitTimeout, nil); waitErr != nil {
		return
	}
	completed = src.ring.PeekBatchCQE(cq)
	if completed == 0 {
		return
	}
	var wakers []cqio.Waker
	src.mu.Lock()
	for i := uint32(0); i < completed; i++ {
		cqe := cq[i]
		cq[i] = nil
		op := src.inflight[cqio.Token(cqe.UserData)]
		if op == nil {
			continue
		}
		if cqe.Res < 0 {
			op.err = unix.Errno(-cqe.Res)
		} else {
			op.n = int(cqe.Res)
		}
		op.done = true
		// the kernel is finished with the memory: drop the in-flight
		// reference whether or not anything still polls this token.
		op.buf.Release()
		op.buf = nil
		op.iovs = nil
		op.views = nil
		if op.waker != nil {
			wakers = append(wakers, op.waker)
			op.waker = nil
		}
	}
	src.mu.Unlock()
	src.ring.CQAdvance(completed)
	for _, w := range wakers {
		w.Wake()
	}
	return
}

// Close stops the reaper, drains every outstanding operation, then tears
// the ring down. The ring is never exited under inflight reads: the kernel
// may still be writing into their buffers, so Close blocks until each one
// has completed and released its reference.
func (src *Source) Close() (err error) {
	src.mu.Lock()
	if src.closed {
		src.mu.Unlock()
		return
	}
	src.closed = true
	src.mu.Unlock()
	close(src.stopCh)
	src.wg.Wait()
	cq := make([]*giouring.CompletionQueueEvent, src.entries)
	for src.undone() > 0 {
		src.reapOnce(cq)
	}
	src.ring.QueueExit()
	if src.ownsFd {
		err = unix.Close(src.fd)
	}
	return
}

func (src *Source) undone() (n int) {
	src.mu.Lock()
	for _, op := range src.inflight {
		if !op.done {
			n++
		}
	}
	src.mu.Unlock()
	return
}
