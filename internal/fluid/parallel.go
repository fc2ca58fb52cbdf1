package fluid

import "sync"

// parallelRows runs fn over the interior rows [1, n-1), split into at most
// workers contiguous chunks. Only stages whose reads and writes are disjoint
// may use it; Gauss-Seidel sweeps stay sequential.
func parallelRows(n, workers int, fn func(jStart, jEnd int)) {
	start, end := 1, n-1
	rows := end - start
	if workers <= 1 || rows < 2*workers {
		fn(start, end)
		return
	}

	chunk := (rows + workers - 1) / workers
	var wg sync.WaitGroup
	for s := start; s < end; s += chunk {
		e := s + chunk
		if e > end {
			e = end
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(s, e)
	}
	wg.Wait()
}
