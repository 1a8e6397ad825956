package service

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"chess-analytica/internal/player"
)

// FetchRegistry coalesces concurrent fetches of the same player. A full
// archive walk can take many requests, so a second caller waits for the
// first instead of starting its own.
type FetchRegistry struct {
	group   singleflight.Group
	running atomic.Int64
}

func NewFetchRegistry() *FetchRegistry {
	return &FetchRegistry{}
}

// Do runs fn for key unless a call for key is already running, in which case
// it waits for that call's result. Any caller stops waiting when its ctx ends;
// the shared call keeps going for the others.
func (f *FetchRegistry) Do(ctx context.Context, key string, fn func() (*player.Record, error)) (*player.Record, error) {
	ch := f.group.DoChan(key, func() (any, error) {
		f.running.Add(1)
		defer f.running.Add(-1)
		return fn()
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*player.Record), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// InFlight returns the number of running fetches
func (f *FetchRegistry) InFlight() int {
	return int(f.running.Load())
}
