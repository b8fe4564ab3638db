package cqio

import (
	"runtime"
	"sync"

	"github.com/brickingsoft/rxp"
)

var (
	executors     rxp.Executors = nil
	executorsOnce sync.Once
)

// Startup boots the shared executors behind the async bridge. Call it at
// program start when the defaults are not enough; otherwise Executors
// lazily builds a default set on first use.
func Startup(options ...rxp.Option) (err error) {
	executors, err = rxp.New(options...)
	return
}

// Shutdown closes the shared executors, waiting for tasks already accepted
// to finish; bound the wait with rxp.WithCloseTimeout at Startup. A no-op
// when no executors were ever started.
func Shutdown() (err error) {
	if executors == nil {
		return
	}
	runtime.SetFinalizer(executors, nil)
	err = executors.Close()
	return
}

// Executors returns the shared executors, building a default set on first
// use.
func Executors() rxp.Executors {
	executorsOnce.Do(func() {
		if executors == nil {
			defaults, newErr := rxp.New()
			if newErr != nil {
				panic(newErr)
			}
			executors = defaults
			runtime.SetFinalizer(executors, rxp.Executors.Close)
		}
	})
	return executors
}
