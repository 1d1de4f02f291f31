package executor

import (
	"errors"
	"sync"
	"testing"
)

func TestResultSlotWriteOnce(t *testing.T) {
	var s ResultSlot

	if s.Written() {
		t.Fatal("new slot reports written")
	}
	if got := s.take(); got == nil || len(got) != 0 {
		t.Fatalf("empty slot take = %v, want non-nil empty", got)
	}

	buf := []byte("first")
	if err := s.Set(buf); err != nil {
		t.Fatalf("first Set: %v", err)
	}
	buf[0] = 'X'

	if err := s.Set([]byte("second")); !errors.Is(err, ErrResultAlreadySet) {
		t.Fatalf("second Set = %v, want ErrResultAlreadySet", err)
	}
	if got := string(s.take()); got != "first" {
		t.Errorf("take = %q, want %q", got, "first")
	}
}

func TestResultSlotEmptyWrite(t *testing.T) {
	var s ResultSlot
	if err := s.Set(nil); err != nil {
		t.Fatal(err)
	}
	if !s.Written() {
		t.Error("empty write not recorded")
	}
	if got := s.take(); got == nil || len(got) != 0 {
		t.Errorf("take = %v, want non-nil empty", got)
	}
}

func TestResultSlotConcurrentSet(t *testing.T) {
	var s ResultSlot
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if s.Set([]byte{byte(i)}) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("%d writers succeeded, want 1", wins)
	}
}

func TestStateMemoryBindsOnce(t *testing.T) {
	s := NewState()
	if s.Memory() != nil {
		t.Fatal("new state has memory")
	}
	if err := s.bindMemory(nil); err != nil {
		t.Fatalf("first bind: %v", err)
	}
	if err := s.bindMemory(nil); !errors.Is(err, ErrMemoryBound) {
		t.Errorf("second bind = %v, want ErrMemoryBound", err)
	}
}

func TestStateCancel(t *testing.T) {
	s := NewState()
	if s.Cancelled() {
		t.Fatal("new state is cancelled")
	}
	s.cancel()
	if !s.Cancelled() {
		t.Error("cancel not observed")
	}
}
