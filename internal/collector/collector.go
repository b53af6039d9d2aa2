// Package collector fetches raw records from providers: paginated browse
// calls, a bounded worker pool for per-release detail lookups, and the
// rate-limit retry policy wrapped around every provider call.
package collector

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// PageFunc fetches one page of at most limit items starting at offset.
type PageFunc[T any] func(ctx context.Context, limit, offset int) ([]T, error)

// CollectPaginated calls fetch with increasing offsets and concatenates the
// pages. It stops after the first page holding fewer than pageSize items.
// Each call starts again from offset zero.
func CollectPaginated[T any](ctx context.Context, pageSize int, fetch PageFunc[T]) ([]T, error) {
	if pageSize < 1 {
		pageSize = 1
	}
	var all []T
	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		page, err := fetch(ctx, pageSize, offset)
		if err != nil {
			return all, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// Result is the outcome of fetching one item.
type Result[T any] struct {
	Value T
	Err   error
}

// FetchConcurrently runs fetch for every item on at most concurrency
// goroutines and blocks until all of them finish. Results are index-aligned
// with items; a failed item carries its error and never aborts the others.
func FetchConcurrently[In, Out any](ctx context.Context, items []In, concurrency int, fetch func(context.Context, In) (Out, error)) []Result[Out] {
	results := make([]Result[Out], len(items))

	var g errgroup.Group
	g.SetLimit(max(concurrency, 1))
	for i, item := range items {
		g.Go(func() error {
			v, err := fetch(ctx, item)
			results[i] = Result[Out]{Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
