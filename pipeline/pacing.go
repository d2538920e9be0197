package pipeline

import (
	"sync"
	"time"
)

// RollingAverage keeps a bounded FIFO of inference latency samples and
// their running mean. The orchestration loop divides the average by the
// pool size to derive the minimum interval between inference submissions,
// which keeps results evenly spaced instead of arriving in bursts.
//
// The seed makes Average well-defined before the first real sample
// arrives; it stops mattering as soon as one sample is added.
type RollingAverage struct {
	mu      sync.Mutex
	samples []time.Duration
	next    int
	count   int
	sum     time.Duration
	seed    time.Duration
}

func NewRollingAverage(size int, seed time.Duration) *RollingAverage {
	if size < 1 {
		size = 1
	}
	return &RollingAverage{
		samples: make([]time.Duration, size),
		seed:    seed,
	}
}

// Add appends a sample, evicting the oldest one once at capacity.
func (r *RollingAverage) Add(sample time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == len(r.samples) {
		r.sum -= r.samples[r.next]
	} else {
		r.count++
	}
	r.samples[r.next] = sample
	r.sum += sample
	r.next = (r.next + 1) % len(r.samples)
}

// Average returns the mean of the currently stored samples, or the seed if
// none have been added yet.
func (r *RollingAverage) Average() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return r.seed
	}
	return r.sum / time.Duration(r.count)
}
