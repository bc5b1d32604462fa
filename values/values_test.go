package values

import (
	"testing"

	"github.com/ais-ml/tensorcore/iter"
)

func TestSequenceCountAndDistance(t *testing.T) {
	it := iter.Matrix(2, 3)
	seq := NewSequence(it)
	if seq.Count() != 6 {
		t.Fatalf("Count = %d, want 6", seq.Count())
	}
	advanced := seq.Advance(seq.StartIndex(), 4)
	if DistanceTo(seq.StartIndex(), advanced) != 4 {
		t.Fatalf("distance = %d, want 4", DistanceTo(seq.StartIndex(), advanced))
	}
}
