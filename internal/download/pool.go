package download

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Outcome is the result of one pool item.
type Outcome[R any] struct {
	OK  bool
	Val R
	Err error
}

// MapWithConcurrency runs worker over items with at most concurrency
// workers in flight and returns one Outcome per item, in input order.
//
// A failing item never stops the others: every error, including a worker
// panic, is recorded in that item's Outcome. onDone, if set, is called once
// per finished item with a strictly increasing done count; calls never
// overlap. Items that have not started when ctx is done fail with the
// context error. Started items run to completion.
//
// concurrency is clamped to at least 1.
func MapWithConcurrency[T, R any](
	ctx context.Context,
	items []T,
	concurrency int,
	worker func(ctx context.Context, item T, index int) (R, error),
	onDone func(done, total int),
) []Outcome[R] {
	outcomes := make([]Outcome[R], len(items))
	if len(items) == 0 {
		return outcomes
	}
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu   sync.Mutex
		done int
	)
	finish := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		if onDone != nil {
			onDone(done, len(items))
		}
	}

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, item := range items {
		i, item := i, item
		if err := ctx.Err(); err != nil {
			outcomes[i] = Outcome[R]{Err: err}
			finish()
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = Outcome[R]{Err: err}
			} else {
				outcomes[i] = runWorker(ctx, worker, item, i)
			}
			finish()
			return nil
		})
	}

	g.Wait()
	return outcomes
}

func runWorker[T, R any](ctx context.Context, worker func(ctx context.Context, item T, index int) (R, error), item T, index int) (out Outcome[R]) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome[R]{Err: fmt.Errorf("worker %d panicked: %v", index, r)}
		}
	}()

	val, err := worker(ctx, item, index)
	if err != nil {
		return Outcome[R]{Val: val, Err: err}
	}
	return Outcome[R]{OK: true, Val: val}
}
