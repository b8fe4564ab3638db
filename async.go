package cqio

import (
	"context"

	"github.com/brickingsoft/rxp"
	"github.com/brickingsoft/rxp/async"
)

// ReadAsync runs a read future on the shared executors and exposes its
// resolution as an rxp future, for callers living in the promise and
// OnComplete programming model rather than the poll one. The single-future
// driver runs inside an executor goroutine; the Waker contract stays
// between the driver and the source.
func ReadAsync(ctx context.Context, src Source, off uint64, b []byte) (future async.Future[ReadResult]) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = rxp.With(ctx, Executors())
	promise, promiseErr := async.Make[ReadResult](ctx)
	if promiseErr != nil {
		future = async.FailedImmediately[ReadResult](ctx, promiseErr)
		return
	}
	future = promise.Future()
	task := &readTask{fut: ReadAt(src, off, b), promise: promise}
	if execErr := Executors().Execute(ctx, task); execErr != nil {
		promise.Fail(execErr)
	}
	return
}

// readTask drives one read future to completion inside an executor
// goroutine and settles its promise.
type readTask struct {
	fut     *ReadFuture
	promise async.Promise[ReadResult]
}

func (task *readTask) Handle(_ context.Context) {
	res, err := Await[ReadResult](task.fut)
	if err != nil {
		task.promise.Fail(err)
		return
	}
	task.promise.Succeed(res)
}
