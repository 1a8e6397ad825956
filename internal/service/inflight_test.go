package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chess-analytica/internal/player"
)

func TestFetchRegistryShares(t *testing.T) {
	f := NewFetchRegistry()
	release := make(chan struct{})
	var calls atomic.Int32
	want := &player.Record{Username: "alice"}

	fn := func() (*player.Record, error) {
		calls.Add(1)
		<-release
		return want, nil
	}

	var wg, ready sync.WaitGroup
	results := make([]*player.Record, 4)
	for i := range results {
		wg.Add(1)
		ready.Add(1)
		go func() {
			defer wg.Done()
			ready.Done()
			rec, err := f.Do(context.Background(), "alice", fn)
			if err != nil {
				t.Error(err)
			}
			results[i] = rec
		}()
	}

	deadline := time.Now().Add(time.Second)
	for f.InFlight() != 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if f.InFlight() != 1 {
		t.Fatalf("InFlight = %d, want 1", f.InFlight())
	}
	// Let the late starters join the running call
	ready.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
	for i, rec := range results {
		if rec != want {
			t.Errorf("caller %d got %v", i, rec)
		}
	}
	if f.InFlight() != 0 {
		t.Errorf("InFlight = %d after completion", f.InFlight())
	}
}

func TestFetchRegistryWaiterCancelled(t *testing.T) {
	f := NewFetchRegistry()
	release := make(chan struct{})
	started := make(chan struct{})
	want := &player.Record{Username: "alice"}

	leaderDone := make(chan *player.Record, 1)
	go func() {
		rec, _ := f.Do(context.Background(), "alice", func() (*player.Record, error) {
			close(started)
			<-release
			return want, nil
		})
		leaderDone <- rec
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec, err := f.Do(ctx, "alice", func() (*player.Record, error) {
		t.Error("waiter must not start its own fetch")
		return nil, nil
	})
	if !errors.Is(err, context.Canceled) || rec != nil {
		t.Errorf("waiter = %v, %v; want context.Canceled", rec, err)
	}

	// The shared fetch is unaffected by the waiter giving up
	close(release)
	if got := <-leaderDone; got != want {
		t.Errorf("leader got %v", got)
	}
}

func TestFetchRegistryError(t *testing.T) {
	f := NewFetchRegistry()
	boom := errors.New("upstream down")
	_, err := f.Do(context.Background(), "bob", func() (*player.Record, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}

	// A failed call is not remembered
	rec, err := f.Do(context.Background(), "bob", func() (*player.Record, error) {
		return &player.Record{Username: "bob"}, nil
	})
	if err != nil || rec == nil {
		t.Errorf("second call = %v, %v", rec, err)
	}
}
