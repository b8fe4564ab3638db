package cqio

// Vec identifies one contiguous sub-range of a buffer participating in a
// single scatter transfer. Offset is relative to the buffer start. Vecs are
// built per submission and never mutated.
type Vec struct {
	Offset uint64
	Len    uint64
}

// End returns the first byte offset past the described range.
func (v Vec) End() uint64 {
	return v.Offset + v.Len
}
