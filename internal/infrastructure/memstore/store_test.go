package memstore

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSetIfAbsent(t *testing.T) {
	s := New()
	ctx := context.Background()

	ok, err := s.SetIfAbsent(ctx, "k", "a", 0)
	if err != nil || !ok {
		t.Fatalf("first set: ok=%v err=%v", ok, err)
	}
	ok, err = s.SetIfAbsent(ctx, "k", "b", 0)
	if err != nil || ok {
		t.Fatalf("second set must lose: ok=%v err=%v", ok, err)
	}
	val, found, _ := s.Get(ctx, "k")
	if !found || val != "a" {
		t.Fatalf("winner's value must survive, got %q found=%v", val, found)
	}
}

func TestSetIfAbsentConcurrent(t *testing.T) {
	s := New()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	wins := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.SetIfAbsent(ctx, "lock", "x", time.Minute)
			if err != nil {
				t.Errorf("SetIfAbsent: %v", err)
				return
			}
			if ok {
				wins <- 1
			}
		}()
	}
	wg.Wait()
	close(wins)

	total := 0
	for range wins {
		total++
	}
	if total != 1 {
		t.Fatalf("expected exactly one winner, got %d", total)
	}
}

func TestExpiry(t *testing.T) {
	s := New()
	ctx := context.Background()

	if ok, _ := s.SetIfAbsent(ctx, "k", "v", 10*time.Millisecond); !ok {
		t.Fatal("set failed")
	}
	time.Sleep(20 * time.Millisecond)
	if _, found, _ := s.Get(ctx, "k"); found {
		t.Fatal("entry should have expired")
	}
	if ok, _ := s.SetIfAbsent(ctx, "k", "v2", 0); !ok {
		t.Fatal("expired key must be claimable again")
	}
}

func TestExpireRefresh(t *testing.T) {
	s := New()
	ctx := context.Background()

	if ok, _ := s.Expire(ctx, "missing", time.Minute); ok {
		t.Fatal("expire on missing key must report false")
	}
	_, _ = s.SetIfAbsent(ctx, "k", "v", 10*time.Millisecond)
	if ok, _ := s.Expire(ctx, "k", time.Minute); !ok {
		t.Fatal("expire on live key must report true")
	}
	time.Sleep(20 * time.Millisecond)
	if _, found, _ := s.Get(ctx, "k"); !found {
		t.Fatal("refreshed entry must still be live")
	}
}

func TestIncrement(t *testing.T) {
	s := New()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := s.Increment(ctx, "seq")
		if err != nil || got != want {
			t.Fatalf("increment: got %d want %d err=%v", got, want, err)
		}
	}
}

func TestPubSubPattern(t *testing.T) {
	s := New()
	ctx := context.Background()

	var mu sync.Mutex
	var received []string
	cancel, err := s.Subscribe(ctx, "events:*", func(channel string, payload []byte) {
		mu.Lock()
		received = append(received, channel+"="+string(payload))
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	_ = s.Publish(ctx, "events:a", []byte("1"))
	_ = s.Publish(ctx, "other:a", []byte("2"))

	mu.Lock()
	got := len(received)
	mu.Unlock()
	if got != 1 || received[0] != "events:a=1" {
		t.Fatalf("unexpected deliveries: %v", received)
	}

	cancel()
	_ = s.Publish(ctx, "events:b", []byte("3"))
	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatal("cancelled subscription must not receive")
	}
}
