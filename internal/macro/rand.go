package macro

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Rand is a random source that is safe to share between the AFK loop and
// foreground calls.
type Rand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a source seeded with seed. The same seed yields the same
// sequence.
func NewRand(seed uint64) *Rand {
	return &Rand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewTimeRand seeds from the wall clock.
func NewTimeRand() *Rand {
	return NewRand(uint64(time.Now().UnixNano()))
}

func (r *Rand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.IntN(n)
}

func pick[T any](r *Rand, xs []T) T {
	return xs[r.IntN(len(xs))]
}
