package pool

import (
	"context"
	"fmt"
	"sync"
)

// OrderedMap applies fn to every item produced by next, running at most
// workers calls at once on q, and hands the results to yield strictly in
// input order. next is only ever called by one goroutine at a time.
//
// When ctx is cancelled no new items are taken; calls already running
// finish and their results are still yielded. A yield error stops the map
// the same way and is returned.
func OrderedMap[T any, R any](ctx context.Context, q *Queue, workers int, next func() (T, bool), fn func(context.Context, T) R, yield func(R) error) error {
	if workers < 1 {
		workers = 1
	}
	m := &mapper[T, R]{
		next:    next,
		fn:      fn,
		window:  workers * 4,
		results: make(map[int]R),
	}
	m.cond = sync.NewCond(&m.lock)

	m.running = workers
	for i := 0; i < workers; i++ {
		if err := q.Schedule(func() { m.work(ctx) }); err != nil {
			m.lock.Lock()
			m.running--
			if m.err == nil {
				m.err = err
			}
			m.lock.Unlock()
		}
	}

	err := m.drain(yield)
	if err == nil {
		err = ctx.Err()
	}
	return err
}

type mapper[T any, R any] struct {
	lock sync.Mutex
	cond *sync.Cond

	next func() (T, bool)
	fn   func(context.Context, T) R

	// issued counts items taken from next, drained counts items yielded.
	issued    int
	drained   int
	window    int
	exhausted bool
	running   int
	results   map[int]R
	err       error
}

func (m *mapper[T, R]) work(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.lock.Lock()
			if m.err == nil {
				m.err = fmt.Errorf("panic in ordered map: %v", r)
			}
			m.running--
			m.cond.Broadcast()
			m.lock.Unlock()
			panic(r)
		}
	}()

	for {
		m.lock.Lock()
		for m.err == nil && !m.exhausted && m.issued >= m.drained+m.window {
			m.cond.Wait()
		}
		if m.err != nil || m.exhausted || ctx.Err() != nil {
			m.exhausted = true
			m.running--
			m.cond.Broadcast()
			m.lock.Unlock()
			return
		}
		item, ok := m.next()
		if !ok {
			m.exhausted = true
			m.running--
			m.cond.Broadcast()
			m.lock.Unlock()
			return
		}
		idx := m.issued
		m.issued++
		m.lock.Unlock()

		r := m.fn(ctx, item)

		m.lock.Lock()
		m.results[idx] = r
		m.cond.Broadcast()
		m.lock.Unlock()
	}
}

func (m *mapper[T, R]) drain(yield func(R) error) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	for {
		r, ok := m.results[m.drained]
		if !ok {
			if m.running == 0 {
				// a panicked worker can leave a hole
				return m.err
			}
			m.cond.Wait()
			continue
		}

		delete(m.results, m.drained)
		m.drained++
		m.cond.Broadcast()

		m.lock.Unlock()
		err := yield(r)
		m.lock.Lock()

		if err != nil {
			if m.err == nil {
				m.err = err
			}
			m.cond.Broadcast()
			for m.running > 0 {
				m.cond.Wait()
			}
			return err
		}
	}
}
