package watch

import (
	"math/rand"
	"time"
)

// backoff yields doubling retry delays with +/-20% jitter.
type backoff struct {
	base time.Duration
	max  time.Duration
	cur  time.Duration
	n    int
}

func newBackoff(base, max time.Duration) *backoff { return &backoff{base: base, max: max} }

// Next returns the next delay and how many delays were handed out before it.
func (b *backoff) Next() (time.Duration, int) {
	if b.cur <= 0 {
		b.cur = b.base
	} else {
		b.cur *= 2
		if b.cur > b.max {
			b.cur = b.max
		}
	}
	n := b.n
	b.n++
	j := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(b.cur) * j), n
}
