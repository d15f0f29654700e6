package shutdown

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestOperationTracker_StartAndDone(t *testing.T) {
	tracker := NewOperationTracker()

	if !tracker.Start() {
		t.Fatal("Start() = false on fresh tracker")
	}
	if got := tracker.ActiveCount(); got != 1 {
		t.Errorf("ActiveCount() = %d, want 1", got)
	}

	tracker.Done()
	if got := tracker.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount() after Done = %d, want 0", got)
	}
}

func TestOperationTracker_RejectsAfterClose(t *testing.T) {
	tracker := NewOperationTracker()
	tracker.Close()

	if tracker.Start() {
		t.Error("Start() = true on closed tracker")
	}
	if !tracker.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
}

func TestOperationTracker_WaitCompletes(t *testing.T) {
	tracker := NewOperationTracker()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		if !tracker.Start() {
			t.Fatal("Start() = false")
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(10 * time.Millisecond)
			tracker.Done()
		}()
	}

	tracker.Close()
	if err := tracker.Wait(2 * time.Second); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
	wg.Wait()

	if got := tracker.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount() = %d, want 0", got)
	}
}

func TestOperationTracker_WaitTimesOut(t *testing.T) {
	tracker := NewOperationTracker()
	if !tracker.Start() {
		t.Fatal("Start() = false")
	}
	defer tracker.Done()

	err := tracker.Wait(20 * time.Millisecond)
	if !errors.Is(err, ErrWaitTimeout) {
		t.Errorf("Wait() error = %v, want ErrWaitTimeout", err)
	}
}

func TestSignalCounter(t *testing.T) {
	forced := 0
	counter := NewSignalCounter(2, func() { forced++ })

	if got := counter.Increment(); got != 1 {
		t.Errorf("first Increment() = %d, want 1", got)
	}
	if forced != 0 {
		t.Error("force callback fired on first signal")
	}

	if got := counter.Increment(); got != 2 {
		t.Errorf("second Increment() = %d, want 2", got)
	}
	if forced != 1 {
		t.Errorf("force callback fired %d times, want 1", forced)
	}

	counter.Reset()
	if got := counter.Count(); got != 0 {
		t.Errorf("Count() after Reset = %d, want 0", got)
	}
}

func TestSignalCounter_NilCallback(t *testing.T) {
	counter := NewSignalCounter(1, nil)
	if got := counter.Increment(); got != 1 {
		t.Errorf("Increment() = %d, want 1", got)
	}
}
