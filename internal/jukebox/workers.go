package jukebox

import (
	"context"
	"errors"
	"sync"
)

// DefaultWorkers is the pool size used when NewPool is given a non-positive count.
const DefaultWorkers = 4

// ErrPoolClosed is returned when work is handed to a pool that has been closed.
var ErrPoolClosed = errors.New("worker pool closed")

type job struct {
	run  func()
	drop func()
}

// Pool runs network-bound lookups on a fixed set of goroutines so that no
// caller (HTTP handler, terminal UI) blocks its own loop on them.
type Pool struct {
	tasks chan job
	quit  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once

	mu     sync.RWMutex // held for reading by Go while it may still send
	closed bool
}

// NewPool starts workers goroutines reading from a shared task queue.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	p := &Pool{
		tasks: make(chan job, workers*4),
		quit:  make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		// Quit wins over queued work once Close has started.
		select {
		case <-p.quit:
			return
		default:
		}
		select {
		case <-p.quit:
			return
		case j := <-p.tasks:
			j.run()
		}
	}
}

// Go queues task. It blocks while the queue is full and returns ErrPoolClosed
// once Close has been called, or ctx.Err() if ctx ends first.
func (p *Pool) Go(ctx context.Context, task func()) error {
	return p.GoOrDrop(ctx, task, nil)
}

// GoOrDrop is Go with a drop callback, run instead of task when the pool
// closes before task starts. Exactly one of task and drop runs when the
// returned error is nil.
func (p *Pool) GoOrDrop(ctx context.Context, task, drop func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case <-p.quit:
		return ErrPoolClosed
	default:
	}
	select {
	case <-p.quit:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	case p.tasks <- job{run: task, drop: drop}:
		return nil
	}
}

// Close stops the workers, waits for running tasks to return and then calls
// the drop callback of every task still queued.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.quit)
		p.wg.Wait()

		// Wait out senders that raced the quit signal.
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		for {
			select {
			case j := <-p.tasks:
				if j.drop != nil {
					j.drop()
				}
			default:
				return
			}
		}
	})
}
