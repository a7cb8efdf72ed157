package reshape

import (
	"golang.org/x/sync/errgroup"
)

// minRowsPerWorker keeps tiny tables on a single goroutine.
const minRowsPerWorker = 512

type span struct {
	lo, hi int
}

// partition splits [0, n) into at most workers contiguous spans of roughly
// equal size.
func partition(n, workers int) []span {
	if workers > n/minRowsPerWorker {
		workers = n / minRowsPerWorker
	}
	if workers <= 1 {
		return []span{{0, n}}
	}
	out := make([]span, 0, workers)
	size := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		out = append(out, span{lo, hi})
	}
	return out
}

// runSpans calls fn for every span, concurrently when there is more than one.
// fn receives the span's position so callers can store results by index and
// merge them in order afterwards. The error of the earliest failing span is
// returned, so failures do not depend on scheduling.
func runSpans(spans []span, fn func(i int, s span) error) error {
	if len(spans) == 1 {
		return fn(0, spans[0])
	}
	return forEach(len(spans), len(spans), func(i int) error { return fn(i, spans[i]) })
}

// forEach runs fn for i in [0, n), up to workers at a time. Like runSpans it
// reports the error of the lowest failing i.
func forEach(n, workers int, fn func(i int) error) error {
	if workers <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	errs := make([]error, n)
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			errs[i] = fn(i)
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
