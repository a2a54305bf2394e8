package imaging

import (
	"sync"

	"github.com/anthonynsimon/bild/parallel"
)

// parallelLines runs fn over [0, length) in row bands like parallel.Line.
// A panic in any band is caught on its worker goroutine and raised again on
// the caller's goroutine once every band has finished, so callers can
// recover it.
func parallelLines(length int, fn func(start, end int)) {
	var (
		mu        sync.Mutex
		recovered any
	)

	parallel.Line(length, func(start, end int) {
		defer func() {
			if r := recover(); r != nil {
				mu.Lock()
				if recovered == nil {
					recovered = r
				}
				mu.Unlock()
			}
		}()
		fn(start, end)
	})

	if recovered != nil {
		panic(recovered)
	}
}
