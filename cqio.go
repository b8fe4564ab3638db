// Package cqio turns completion-queue style I/O, where an operation is
// submitted once and its result retrieved later through non-blocking polls,
// into futures that are safe to await.
//
// A caller-owned byte allocation is wrapped into a reference-counted Buffer,
// handed to a backing Source as scatter descriptors, and handed back to the
// caller once the operation completes and the wrapper is uniquely owned
// again. Abandoning a future never cancels the submitted operation: the
// buffer stays referenced until the resource is done with it and its result
// is discarded. Leak-until-drain, never use-after-free.
package cqio
