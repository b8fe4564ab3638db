// Package uring implements the cqio backing-resource capability for file
// descriptors on top of io_uring. Linux only.
package uring
