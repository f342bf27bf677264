// Package workerpool implements the bounded concurrency model described in
// §5: a fixed-size fan-out over detector/analytic/evolution-step tasks with
// first-error-wins cancellation and context-aware deadlines, plus a
// lightweight per-key lock so writers touching the same point id serialize
// without a global mutex.
package workerpool

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/manifold-eng/manifold-core/internal/metrics"
)

// #region pool

// Pool runs a bounded number of tasks concurrently, propagating the first
// error and cancelling the remaining tasks' context, mirroring the
// bounded-fan-out shape §5 asks for.
type Pool struct {
	limit int
	m     *metrics.Registry
}

// New returns a Pool that runs at most limit tasks concurrently. limit <= 0
// means unbounded (errgroup.SetLimit is skipped).
func New(limit int, m *metrics.Registry) *Pool {
	return &Pool{limit: limit, m: m}
}

// Run executes fn once per item in items, at most p.limit at a time,
// stopping at the first error and returning it. ctx cancellation is
// observed cooperatively by task bodies checking ctx.Err().
func Run[T any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if p != nil && p.limit > 0 {
		g.SetLimit(p.limit)
	}
	for _, item := range items {
		item := item
		g.Go(func() error {
			if p != nil {
				p.m.WorkerStarted()
				defer p.m.WorkerFinished()
			}
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, item)
		})
	}
	return g.Wait()
}

// #endregion pool

// #region keyed-lock

// KeyedLock is a map of mutexes, one per string key, used to serialize
// writers touching the same point id (§5) without a single global lock
// forcing unrelated writes to queue behind each other.
type KeyedLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedLock returns an empty KeyedLock.
func NewKeyedLock() *KeyedLock {
	return &KeyedLock{locks: map[string]*sync.Mutex{}}
}

// Lock acquires the mutex for key, creating it on first use.
func (k *KeyedLock) Lock(key string) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()
	l.Lock()
}

// Unlock releases the mutex for key. Calling Unlock for a key that was
// never Locked is a programmer error, matching sync.Mutex's own contract.
func (k *KeyedLock) Unlock(key string) {
	k.mu.Lock()
	l := k.locks[key]
	k.mu.Unlock()
	l.Unlock()
}

// #endregion keyed-lock
