package bvh

import "testing"

func TestPoolIndex(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{8, 3},
		{9, 4},
		{16, 4},
		{17, 5},
		{32, 5},
		{33, 6},
	}
	for _, c := range cases {
		if got := PoolIndex(c.n); got != c.want {
			t.Fatalf("PoolIndex(%d) = %d, want %d", c.n, got, c.want)
		}
		if want := 1 << uint(c.want); c.n > 0 && want < c.n {
			t.Fatalf("PoolIndex(%d) = %d, but 2^%d = %d < %d", c.n, c.want, c.want, want, c.n)
		}
	}
}

func TestPoolTakeReturnIsLIFO(t *testing.T) {
	p := NewPool[int]()

	a := p.Take(3)
	b := p.Take(3)
	if len(a) != 8 || len(b) != 8 {
		t.Fatalf("Take(3) returned buffers of length %d, %d, want 8, 8", len(a), len(b))
	}

	a[0], b[0] = 1, 2
	p.Return(a, 3)
	p.Return(b, 3)

	// b was returned last, so it must come back first.
	c := p.Take(3)
	if &c[0] != &b[0] {
		t.Fatalf("Take after Return(a); Return(b) did not return b's buffer first")
	}

	d := p.Take(3)
	if &d[0] != &a[0] {
		t.Fatalf("second Take did not return a's buffer")
	}
}

func TestPoolTakeAllocatesWhenEmpty(t *testing.T) {
	p := NewPool[int]()
	buf := p.Take(4)
	if len(buf) != 16 {
		t.Fatalf("Take(4) returned length %d, want 16", len(buf))
	}
}

func TestPoolEnsureCount(t *testing.T) {
	p := NewPool[int]()
	p.EnsureCount(2, 3)

	for i := 0; i < 3; i++ {
		buf := p.Take(2)
		if len(buf) != 4 {
			t.Fatalf("buffer %d has length %d, want 4", i, len(buf))
		}
	}
}

func TestPoolClearDropsCachedBuffers(t *testing.T) {
	p := NewPool[int]()
	buf := p.Take(2)
	p.Return(buf, 2)
	p.Clear()

	got := p.Take(2)
	if &got[0] == &buf[0] {
		t.Fatalf("Take after Clear returned a previously cached buffer")
	}
}

func TestDebugPoolRejectsNonZeroedReturn(t *testing.T) {
	p := NewDebugPool[int]()
	buf := p.Take(1)
	buf[0] = 42

	defer func() {
		if recover() == nil {
			t.Fatalf("Return of a non-zeroed buffer did not panic in debug mode")
		}
	}()
	p.Return(buf, 1)
}

func TestDebugPoolTracksOutstanding(t *testing.T) {
	p := NewDebugPool[int]()
	buf := p.Take(1)
	if got := p.Outstanding(1); got != 1 {
		t.Fatalf("Outstanding(1) = %d after one Take, want 1", got)
	}

	buf[0] = 0 // already zero, but explicit for clarity
	p.Return(buf, 1)
	if got := p.Outstanding(1); got != 0 {
		t.Fatalf("Outstanding(1) = %d after Return, want 0", got)
	}
}

func TestPoolTakeReturnPanicsOutOfRange(t *testing.T) {
	p := NewPool[int]()

	assertPanics := func(name string, f func()) {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("%s did not panic", name)
				}
			}()
			f()
		})
	}

	assertPanics("Take(-1)", func() { p.Take(-1) })
	assertPanics("Take(MaxPoolExponent+1)", func() { p.Take(MaxPoolExponent + 1) })
	assertPanics("Return(-1)", func() { p.Return(nil, -1) })
	assertPanics("Return(MaxPoolExponent+1)", func() { p.Return(nil, MaxPoolExponent+1) })
}
