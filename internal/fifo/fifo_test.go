package fifo

import (
	"sync"
	"testing"
)

func TestFIFO_BasicOperations(t *testing.T) {
	q := New[int](4)
	defer q.Close()

	if size := q.Len(); size != 0 {
		t.Errorf("Expected empty queue, got size %d", size)
	}

	_, err := q.Peek()
	if err != ErrEmpty {
		t.Errorf("Expected ErrEmpty, got %v", err)
	}

	if err := q.Enqueue(1); err != nil {
		t.Errorf("Enqueue failed: %v", err)
	}
	if err := q.Enqueue(2); err != nil {
		t.Errorf("Enqueue failed: %v", err)
	}

	head, err := q.Peek()
	if err != nil {
		t.Errorf("Peek failed: %v", err)
	}
	if head != 1 {
		t.Errorf("Peeked wrong item: %d", head)
	}

	first, err := q.Dequeue()
	if err != nil {
		t.Errorf("Dequeue failed: %v", err)
	}
	if first != 1 {
		t.Errorf("Expected FIFO order, got %d first", first)
	}

	second, _ := q.Dequeue()
	if second != 2 {
		t.Errorf("Expected 2 second, got %d", second)
	}

	_, err = q.Dequeue()
	if err != ErrEmpty {
		t.Errorf("Expected ErrEmpty after draining, got %v", err)
	}
}

func TestFIFO_Order(t *testing.T) {
	q := New[string](0)
	defer q.Close()

	items := []string{"a", "b", "c", "d"}
	for _, it := range items {
		if err := q.Enqueue(it); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	for i, want := range items {
		got, err := q.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue %d failed: %v", i, err)
		}
		if got != want {
			t.Errorf("Position %d: expected %q, got %q", i, want, got)
		}
	}
}

func TestFIFO_Drain(t *testing.T) {
	q := New[int](2)
	defer q.Close()

	for i := 0; i < 5; i++ {
		_ = q.Enqueue(i)
	}

	out := q.Drain()
	if len(out) != 5 {
		t.Fatalf("Expected 5 drained items, got %d", len(out))
	}
	for i, v := range out {
		if v != i {
			t.Errorf("Drain order broken at %d: got %d", i, v)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Expected empty queue after drain, got %d", q.Len())
	}
}

func TestFIFO_Stats(t *testing.T) {
	q := New[int](0)
	defer q.Close()

	_ = q.Enqueue(1)
	_ = q.Enqueue(2)
	_, _ = q.Dequeue()

	stats := q.GetStats()
	if stats.TotalEnqueued != 2 {
		t.Errorf("Expected 2 enqueued, got %d", stats.TotalEnqueued)
	}
	if stats.TotalDequeued != 1 {
		t.Errorf("Expected 1 dequeued, got %d", stats.TotalDequeued)
	}
	if stats.PeakSize != 2 {
		t.Errorf("Expected peak size 2, got %d", stats.PeakSize)
	}
	if stats.CurrentSize != 1 {
		t.Errorf("Expected current size 1, got %d", stats.CurrentSize)
	}
}

func TestFIFO_Closed(t *testing.T) {
	q := New[int](0)
	_ = q.Enqueue(1)

	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Close is idempotent.
	if err := q.Close(); err != nil {
		t.Fatalf("Second close failed: %v", err)
	}

	if err := q.Enqueue(2); err != ErrClosed {
		t.Errorf("Expected ErrClosed on enqueue, got %v", err)
	}
	if _, err := q.Dequeue(); err != ErrClosed {
		t.Errorf("Expected ErrClosed on dequeue, got %v", err)
	}
}

func TestFIFO_Concurrent(t *testing.T) {
	q := New[int](0)
	defer q.Close()

	var wg sync.WaitGroup
	const n = 50

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			_ = q.Enqueue(v)
		}(i)
	}
	wg.Wait()

	if q.Len() != n {
		t.Fatalf("Expected %d items, got %d", n, q.Len())
	}

	seen := make(map[int]bool)
	for i := 0; i < n; i++ {
		v, err := q.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue failed: %v", err)
		}
		if seen[v] {
			t.Errorf("Item %d dequeued twice", v)
		}
		seen[v] = true
	}
}
