//go:build linux

package uring

import (
	"bytes"
	"testing"
	"unsafe"

	"github.com/brickingsoft/cqio"
)

// A prepared entry whose submission fails stays in the ring until a later
// flush carries it along. Discarding must strip both the read and the
// token, so the flush neither touches the abandoned buffer nor confuses
// the reaper.
func TestDiscardedEntryIsInert(t *testing.T) {
	src, err := OpenFile("/dev/zero")
	if err != nil {
		t.Skipf("io_uring unavailable: %v", err)
	}
	defer src.Close()

	abandoned := bytes.Repeat([]byte{0x55}, 16)
	src.mu.Lock()
	sqe := src.ring.GetSQE()
	if sqe == nil {
		src.mu.Unlock()
		t.Fatal("no submission entry available")
	}
	sqe.PrepareRead(src.fd, uintptr(unsafe.Pointer(unsafe.SliceData(abandoned))), uint32(len(abandoned)), 0)
	sqe.SetData64(77)
	discardSQE(sqe)
	src.mu.Unlock()

	// this submission flushes the discarded entry together with its own.
	b := bytes.Repeat([]byte{0x55}, 8)
	res, readErr := cqio.Await[cqio.ReadResult](cqio.ReadAt(src, 0, b))
	if readErr != nil {
		t.Fatal(readErr)
	}
	if res.N != 8 || &res.Bytes[0] != &b[0] {
		t.Fatal("unexpected result:", res.N)
	}
	for i, c := range abandoned {
		if c != 0x55 {
			t.Fatalf("byte %d = %#x: discarded entry wrote into the buffer", i, c)
		}
	}
}
