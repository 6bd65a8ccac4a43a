package console

import "time"

// Backoff doubles from Base up to Max. Base == Max gives a fixed delay.
type Backoff struct {
	Base    time.Duration
	Max     time.Duration
	attempt int
}

func NewBackoff(base, max time.Duration) *Backoff {
	if max < base {
		max = base
	}
	return &Backoff{Base: base, Max: max}
}

func (b *Backoff) Next() time.Duration {
	d := b.Max
	if b.attempt < 32 {
		if shifted := b.Base << b.attempt; shifted > 0 && shifted < b.Max {
			d = shifted
		}
	}
	b.attempt++
	return d
}

func (b *Backoff) Reset() {
	b.attempt = 0
}
