// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package chunks

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task parses one chunk. index is the chunk's position in the slice passed
// to Run and data is the chunk's line aligned bytes.
type Task[T any] func(ctx context.Context, index int, data []byte) (T, error)

// Run starts one task per chunk, with at most workers running at once, and
// waits for all of them. The results are returned in chunk order.
// A panic in a task is returned as an error.
func Run[T any](ctx context.Context, data []byte, list []Chunk, workers int, task Task[T]) ([]T, error) {
	results := make([]T, len(list))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, c := range list {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("chunk %d: panic: %v", i, r)
				}
			}()
			result, err := task(ctx, i, data[c.LineStart:c.LineEnd])
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
