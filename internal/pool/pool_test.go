package pool

import "testing"

type item struct {
	value int
}

func newTestPool(capacity int) *Pool[item] {
	return New(capacity, func() *item { return &item{value: -1} }, func(it *item) { it.value = -1 })
}

func TestAcquireNeverReturnsSameObjectTwice(t *testing.T) {
	p := newTestPool(2)

	a, ok := p.Acquire()
	if !ok {
		t.Fatal("expected first acquire to succeed")
	}
	b, ok := p.Acquire()
	if !ok {
		t.Fatal("expected second acquire to succeed")
	}
	if a == b {
		t.Fatal("acquire returned the same object twice before any release")
	}

	if _, ok := p.Acquire(); ok {
		t.Fatal("expected pool to be exhausted after acquiring its full capacity")
	}
}

func TestReleaseAppliesResetAndMakesItemAvailableAgain(t *testing.T) {
	p := newTestPool(1)

	a, ok := p.Acquire()
	if !ok {
		t.Fatal("expected acquire to succeed")
	}
	a.value = 42

	p.Release(a)
	if a.value != -1 {
		t.Errorf("expected reset to set value to -1, got %d", a.value)
	}

	b, ok := p.Acquire()
	if !ok {
		t.Fatal("expected acquire after release to succeed")
	}
	if b != a {
		t.Error("expected the released object to be the one returned by the next acquire")
	}
}

func TestAcquireOrAllocFallsBackWhenExhausted(t *testing.T) {
	p := newTestPool(1)

	if _, ok := p.Acquire(); !ok {
		t.Fatal("expected first acquire to succeed")
	}

	fresh := p.AcquireOrAlloc()
	if fresh == nil {
		t.Fatal("expected AcquireOrAlloc to allocate a fresh item when exhausted")
	}
	if fresh.value != -1 {
		t.Errorf("expected freshly allocated item to use the alloc function, got value %d", fresh.value)
	}
}

func TestLenTracksFreeListSize(t *testing.T) {
	p := newTestPool(3)
	if got := p.Len(); got != 3 {
		t.Fatalf("expected Len()=3 after New, got %d", got)
	}

	a, _ := p.Acquire()
	if got := p.Len(); got != 2 {
		t.Errorf("expected Len()=2 after one acquire, got %d", got)
	}

	p.Release(a)
	if got := p.Len(); got != 3 {
		t.Errorf("expected Len()=3 after release, got %d", got)
	}
}
