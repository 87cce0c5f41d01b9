package buildops

import "testing"

func TestIdGenerator_NormalIDsIncreaseFromOne(t *testing.T) {
	var g idGenerator

	first := g.nextNormalID()
	second := g.nextNormalID()

	if first != 1 {
		t.Fatalf("first id = %d, want 1", first)
	}
	if second != 2 {
		t.Fatalf("second id = %d, want 2", second)
	}
}

func TestIdGenerator_UnmanagedIDsDecreaseFromMinusOne(t *testing.T) {
	var g idGenerator

	first := g.nextUnmanagedID()
	second := g.nextUnmanagedID()

	if first != -1 {
		t.Fatalf("first unmanaged id = %d, want -1", first)
	}
	if second != -2 {
		t.Fatalf("second unmanaged id = %d, want -2", second)
	}
}

func TestIdGenerator_NormalAndUnmanagedSequencesIndependent(t *testing.T) {
	var g idGenerator

	g.nextNormalID()
	g.nextNormalID()
	u := g.nextUnmanagedID()

	if u != -1 {
		t.Fatalf("unmanaged id after two normal ids = %d, want -1", u)
	}
}
