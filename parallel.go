package chrono

import "sync"

// parallelForWorkers splits [0, n) into one contiguous chunk per worker and
// runs fn(worker, start, end) for each, blocking until all chunks finish.
// Each worker owns a disjoint index range, so fn may write to per-index
// slots without synchronization. With a single worker fn runs inline on the
// calling goroutine.
func parallelForWorkers(n, workers int, fn func(worker, start, end int)) {
	if n <= 0 {
		return
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, 0, n)
		return
	}
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	worker := 0
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(w, s, e int) {
			defer wg.Done()
			fn(w, s, e)
		}(worker, start, end)
		worker++
	}
	wg.Wait()
}

// parallelFor is parallelForWorkers without the worker id, for phases that
// only need the index range.
func parallelFor(n, workers int, fn func(start, end int)) {
	parallelForWorkers(n, workers, func(_, start, end int) {
		fn(start, end)
	})
}
