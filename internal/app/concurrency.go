package app

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// eachLimit calls fn for every item with at most limit calls in flight.
// Unlike a plain errgroup, one failure does not cancel the others: every
// item is attempted and the failures are returned joined, along with the
// number of items that succeeded.
func eachLimit[T any](ctx context.Context, limit int, items []T, fn func(context.Context, T) error) (int, error) {
	if limit <= 0 {
		limit = 1
	}

	var (
		g   errgroup.Group
		ok  atomic.Int64
		err = make([]error, len(items))
	)

	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			if err[i] = fn(ctx, item); err[i] == nil {
				ok.Add(1)
			}

			return nil
		})
	}

	_ = g.Wait()

	return int(ok.Load()), errors.Join(err...)
}
