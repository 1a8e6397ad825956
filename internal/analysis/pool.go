package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chess-analytica/internal/board"
	"chess-analytica/internal/game"
)

// scanTask asks a worker for the move following target in one game
type scanTask struct {
	index    int
	game     *game.Game
	target   board.Position
	response chan<- scanResult
}

// scanResult is the per-game outcome, reduced later in corpus order
type scanResult struct {
	index     int
	contained bool
	move      board.Move
	hasMove   bool
	err       error
}

// Pool is a fixed set of workers replaying games for position scans.
// A single Pool is shared by all queries of a process.
type Pool struct {
	tasks   chan scanTask
	workers int
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewPool creates a pool with the given worker count
func NewPool(workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 2
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		tasks:   make(chan scanTask, 256),
		workers: workerCount,
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Workers returns the pool size, 0 for a nil pool
func (p *Pool) Workers() int {
	if p == nil {
		return 0
	}
	return p.workers
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			// Response channels are sized to the batch, sends never block
			task.response <- scanGame(task.index, task.game, task.target)

		case <-p.ctx.Done():
			return
		}
	}
}

// scan runs every game through the pool and returns results indexed by corpus position
func (p *Pool) scan(games []*game.Game, target board.Position) ([]scanResult, error) {
	results := make([]scanResult, len(games))
	respChan := make(chan scanResult, len(games))

	submitted := 0
	for i, g := range games {
		task := scanTask{index: i, game: g, target: target, response: respChan}
		select {
		case p.tasks <- task:
			submitted++
		case <-p.ctx.Done():
			// Pool is closing, finish the batch on the caller's goroutine
			results[i] = scanGame(i, g, target)
		}
	}

	for submitted > 0 {
		select {
		case r := <-respChan:
			results[r.index] = r
			submitted--
		case <-p.ctx.Done():
			return nil, fmt.Errorf("scan pool is shutting down")
		}
	}
	return results, nil
}

// Shutdown stops the workers, waiting up to timeout for in-flight scans
func (p *Pool) Shutdown(timeout time.Duration) error {
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

func scanGame(index int, g *game.Game, target board.Position) scanResult {
	r := scanResult{index: index}
	r.contained, r.err = g.ContainsPosition(target)
	if r.err != nil || !r.contained {
		return r
	}
	r.move, r.hasMove, r.err = g.NextMoveAfter(target)
	return r
}
