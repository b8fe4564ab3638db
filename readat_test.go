package cqio_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/brickingsoft/cqio"
	"github.com/brickingsoft/cqio/fake"
)

func TestReadAtZeroSource(t *testing.T) {
	src := fake.NewZero()
	b := bytes.Repeat([]byte{0x55}, 32)
	res, err := cqio.Await[cqio.ReadResult](cqio.ReadAt(src, 0, b))
	if err != nil {
		t.Fatal(err)
	}
	if res.N != 32 {
		t.Error("read", res.N, "bytes")
	}
	if len(res.Bytes) != 32 {
		t.Error("result length", len(res.Bytes))
	}
	if &res.Bytes[0] != &b[0] {
		t.Error("result is not the submitted allocation")
	}
	for i, c := range res.Bytes {
		if c != 0 {
			t.Errorf("byte %d = %#x, want 0", i, c)
		}
	}
}

func TestReadAtSubmissionError(t *testing.T) {
	saturated := errors.New("queue saturated")
	src, srcErr := fake.New(fake.WithSubmitErr(saturated))
	if srcErr != nil {
		t.Fatal(srcErr)
	}
	fut := cqio.ReadAt(src, 0, make([]byte, 8))
	_, ready, err := fut.Poll(nopWaker{})
	if !ready {
		t.Fatal("first poll was not terminal")
	}
	if !cqio.IsSubmission(err) {
		t.Fatal("want submission error, got:", err)
	}
	if src.Pending() != 0 {
		t.Error("operation left outstanding after failed submission")
	}
}

func TestReadAtPendingLeavesBufferUntouched(t *testing.T) {
	src, srcErr := fake.New()
	if srcErr != nil {
		t.Fatal(srcErr)
	}
	pattern := bytes.Repeat([]byte{0x55}, 32)
	b := bytes.Repeat([]byte{0x55}, 32)
	fut := cqio.ReadAt(src, 0, b)
	for i := 0; i < 5; i++ {
		_, ready, err := fut.Poll(nopWaker{})
		if ready || err != nil {
			t.Fatal("poll finished without a completion:", err)
		}
		if !bytes.Equal(b, pattern) {
			t.Fatal("pending poll mutated the buffer")
		}
	}
	if !src.Complete() {
		t.Fatal("no pending operation to complete")
	}
	res, ready, err := fut.Poll(nopWaker{})
	if !ready || err != nil {
		t.Fatal("completion not observed:", err)
	}
	if res.N != 32 || &res.Bytes[0] != &b[0] {
		t.Error("unexpected result:", res.N)
	}
	for i, c := range res.Bytes {
		if c != 0 {
			t.Errorf("byte %d = %#x, want 0", i, c)
		}
	}
}

func TestReadAtCompletionError(t *testing.T) {
	src, srcErr := fake.New()
	if srcErr != nil {
		t.Fatal(srcErr)
	}
	fut := cqio.ReadAt(src, 0, make([]byte, 8))
	if _, ready, err := fut.Poll(nopWaker{}); ready || err != nil {
		t.Fatal("poll finished without a completion:", err)
	}
	boom := errors.New("device gone")
	if !src.FailNext(boom) {
		t.Fatal("no pending operation to fail")
	}
	res, ready, err := fut.Poll(nopWaker{})
	if !ready {
		t.Fatal("failure not observed")
	}
	if !cqio.IsCompletion(err) {
		t.Fatal("want completion error, got:", err)
	}
	if res.Bytes != nil {
		t.Error("buffer handed back despite failure")
	}
}

func TestReadAtHeldReferencePanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("completion with a held reference did not panic")
		}
		err, ok := r.(error)
		if !ok || !cqio.IsInvariantViolated(err) {
			t.Fatal("unexpected panic:", r)
		}
	}()
	src, srcErr := fake.New(fake.WithAutoComplete(), fake.WithHoldBuffers())
	if srcErr != nil {
		t.Fatal(srcErr)
	}
	fut := cqio.ReadAt(src, 0, make([]byte, 8))
	fut.Poll(nopWaker{})
	t.Fatal("poll returned")
}

func TestReadAtSequential(t *testing.T) {
	src, srcErr := fake.New()
	if srcErr != nil {
		t.Fatal(srcErr)
	}

	fut1 := cqio.ReadAt(src, 0, make([]byte, 8))
	if _, ready, err := fut1.Poll(nopWaker{}); ready || err != nil {
		t.Fatal("poll finished without a completion:", err)
	}
	src.FailNext(errors.New("transient"))
	if _, ready, err := fut1.Poll(nopWaker{}); !ready || !cqio.IsCompletion(err) {
		t.Fatal("first read did not fail:", err)
	}

	// the second read starts from scratch regardless of the first outcome.
	b2 := bytes.Repeat([]byte{0x55}, 8)
	fut2 := cqio.ReadAt(src, 8, b2)
	if _, ready, err := fut2.Poll(nopWaker{}); ready || err != nil {
		t.Fatal("poll finished without a completion:", err)
	}
	src.Complete()
	res, ready, err := fut2.Poll(nopWaker{})
	if !ready || err != nil {
		t.Fatal("second read did not complete:", err)
	}
	if res.N != 8 || &res.Bytes[0] != &b2[0] {
		t.Error("unexpected result:", res.N)
	}
}

func TestReadAtPartialTransfer(t *testing.T) {
	src, srcErr := fake.New()
	if srcErr != nil {
		t.Fatal(srcErr)
	}
	b := bytes.Repeat([]byte{0x55}, 32)
	fut := cqio.ReadAt(src, 0, b)
	if _, ready, err := fut.Poll(nopWaker{}); ready || err != nil {
		t.Fatal("poll finished without a completion:", err)
	}
	src.CompleteN(16)
	res, ready, err := fut.Poll(nopWaker{})
	if !ready || err != nil {
		t.Fatal("completion not observed:", err)
	}
	if res.N != 16 || len(res.Bytes) != 32 {
		t.Fatal("unexpected partial result:", res.N, len(res.Bytes))
	}
	for i := 0; i < 16; i++ {
		if res.Bytes[i] != 0 {
			t.Errorf("byte %d = %#x, want 0", i, res.Bytes[i])
		}
	}
	for i := 16; i < 32; i++ {
		if res.Bytes[i] != 0x55 {
			t.Errorf("byte %d = %#x, want 0x55", i, res.Bytes[i])
		}
	}
}
