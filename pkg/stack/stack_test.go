package stack

import "testing"

func TestStackOrder(t *testing.T) {
	s := NewStack(1, 2)
	s.Push(3)

	if s.Size() != 3 {
		t.Fatalf("expected size 3, got %d", s.Size())
	}
	if v, ok := s.PeekAt(2); !ok || v != 1 {
		t.Errorf("expected bottom 1, got %d (%v)", v, ok)
	}
	for _, want := range []int{3, 2, 1} {
		if got := s.Pop(); got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}
	if got := s.Pop(); got != 0 {
		t.Errorf("pop on empty stack should return zero value, got %d", got)
	}
	if _, ok := s.PeekAt(0); ok {
		t.Error("PeekAt on empty stack should fail")
	}
}
