package locker

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryLockerSerializes(t *testing.T) {
	l := NewMemoryLocker()
	const workers = 20
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "visit-1")
			if err != nil {
				t.Errorf("Lock() error = %v", err)
				return
			}
			counter++
			unlock(context.Background())
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Errorf("counter = %d, want %d", counter, workers)
	}
}

func TestMemoryLockerIndependentKeys(t *testing.T) {
	l := NewMemoryLocker()

	unlockA, err := l.Lock(context.Background(), "visit-a")
	if err != nil {
		t.Fatalf("Lock(visit-a) error = %v", err)
	}
	defer unlockA(context.Background())

	done := make(chan struct{})
	go func() {
		unlockB, err := l.Lock(context.Background(), "visit-b")
		if err != nil {
			t.Errorf("Lock(visit-b) error = %v", err)
			return
		}
		unlockB(context.Background())
		close(done)
	}()

	<-done
}

func TestMemoryLockerCleansUpIdleKeys(t *testing.T) {
	l := NewMemoryLocker()

	unlock, err := l.Lock(context.Background(), "visit-1")
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	unlock(context.Background())

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.locks) != 0 {
		t.Errorf("locks map has %d entries after release, want 0", len(l.locks))
	}
}
