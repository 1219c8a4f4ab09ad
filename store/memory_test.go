package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dyshay/agentauth"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Close()
	ctx := context.Background()

	data := agentauth.ChallengeData{AnswerHash: "abc"}
	if err := s.Set(ctx, "id-1", data, 1000); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := s.Get(ctx, "id-1")
	if err != nil || !ok {
		t.Fatalf("Get: got=%v ok=%v err=%v", got, ok, err)
	}
	if got.AnswerHash != "abc" {
		t.Errorf("expected AnswerHash=abc, got %q", got.AnswerHash)
	}

	if err := s.Delete(ctx, "id-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "id-1"); ok {
		t.Error("expected entry to be gone after Delete")
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Close()

	if _, ok, err := s.Get(context.Background(), "nope"); ok || err != nil {
		t.Errorf("expected ok=false err=nil for missing id, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryStore_DeleteMissingIsNotError(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Close()

	if err := s.Delete(context.Background(), "nope"); err != nil {
		t.Errorf("expected deleting a missing id to be a no-op, got %v", err)
	}
}

func TestMemoryStore_ExpiresByTTL(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, "id-expiring", agentauth.ChallengeData{}, 10); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, ok, _ := s.Get(ctx, "id-expiring"); ok {
		t.Error("expected expired entry to be evicted on Get")
	}
}

func TestMemoryStore_BackgroundSweep(t *testing.T) {
	s := NewMemoryStore(10 * time.Millisecond)
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, "id-swept", agentauth.ChallengeData{}, 5); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	s.mu.Lock()
	_, stillPresent := s.entries["id-swept"]
	s.mu.Unlock()
	if stillPresent {
		t.Error("expected background sweep to evict expired entry")
	}
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	s.Close()
	s.Close()
}

func TestMemoryStore_GetAndDelete(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Close()
	ctx := context.Background()

	data := agentauth.ChallengeData{AnswerHash: "abc"}
	if err := s.Set(ctx, "id-1", data, 1000); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := s.GetAndDelete(ctx, "id-1")
	if err != nil || !ok {
		t.Fatalf("GetAndDelete: got=%v ok=%v err=%v", got, ok, err)
	}
	if got.AnswerHash != "abc" {
		t.Errorf("expected AnswerHash=abc, got %q", got.AnswerHash)
	}

	if _, ok, _ := s.Get(ctx, "id-1"); ok {
		t.Error("expected entry to be gone after GetAndDelete")
	}
}

func TestMemoryStore_GetAndDelete_MissingIsNotError(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Close()

	if _, ok, err := s.GetAndDelete(context.Background(), "nope"); ok || err != nil {
		t.Errorf("expected ok=false err=nil for a missing id, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryStore_GetAndDelete_ExpiredIsTreatedAsMissing(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, "id-expiring", agentauth.ChallengeData{}, 10); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, ok, _ := s.GetAndDelete(ctx, "id-expiring"); ok {
		t.Error("expected an expired entry to report ok=false")
	}
}

// TestMemoryStore_GetAndDelete_ConcurrentRaceYieldsExactlyOneWinner is the
// store-level counterpart of the at-most-once invariant relied on by
// engine.SolveChallenge: of any number of goroutines racing GetAndDelete
// on the same id, exactly one must observe the live entry.
func TestMemoryStore_GetAndDelete_ConcurrentRaceYieldsExactlyOneWinner(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, "id-raced", agentauth.ChallengeData{AnswerHash: "abc"}, 60_000); err != nil {
		t.Fatalf("Set: %v", err)
	}

	const racers = 16
	wins := make([]bool, racers)
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func(i int) {
			defer wg.Done()
			_, ok, err := s.GetAndDelete(ctx, "id-raced")
			if err != nil {
				t.Errorf("racer %d: GetAndDelete: %v", i, err)
				return
			}
			wins[i] = ok
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, w := range wins {
		if w {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("expected exactly one winner among %d racers, got %d", racers, winners)
	}
}
