package pipeline

import (
	"sync"
	"time"

	"github.com/visualab/od-go/model"
)

// Publisher is a single-slot, last-write-wins cell holding the most recent
// annotated frame. It is seeded during pipeline construction, so readers
// never observe an empty slot.
//
// Take enforces a maximum output rate across all callers. Poll is
// edge-triggered but keeps a single global cursor: it correctly supports
// exactly one polling consumer. A second poller sharing the same Publisher
// will observe inconsistent results.
type Publisher struct {
	mu         sync.Mutex
	slot       model.AnnotatedFrame
	lastPolled time.Time

	rateMu      sync.Mutex
	minInterval time.Duration
	nextTake    time.Time
}

// NewPublisher creates a publisher seeded with an initial frame. maxFPS
// caps the rate at which Take returns; zero or negative disables the cap.
func NewPublisher(maxFPS float64, seed model.AnnotatedFrame) *Publisher {
	var interval time.Duration
	if maxFPS > 0 {
		interval = time.Duration(float64(time.Second) / maxFPS)
	}
	return &Publisher{slot: seed, minInterval: interval}
}

// Publish replaces the slot contents.
func (p *Publisher) Publish(af model.AnnotatedFrame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slot = af
}

// Take returns the current slot contents, sleeping first as needed so that
// it never returns sooner than the configured minimum interval after the
// previous Take.
func (p *Publisher) Take() model.AnnotatedFrame {
	p.rateMu.Lock()
	now := time.Now()
	wait := p.nextTake.Sub(now)
	if wait < 0 {
		wait = 0
	}
	p.nextTake = now.Add(wait).Add(p.minInterval)
	p.rateMu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slot
}

// Poll returns the slot contents if the slot holds a frame strictly newer
// than the one this publisher last handed out through Poll; otherwise it
// reports false. Non-blocking.
func (p *Publisher) Poll() (model.AnnotatedFrame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.slot.Timestamp.After(p.lastPolled) {
		p.lastPolled = p.slot.Timestamp
		return p.slot, true
	}
	return model.AnnotatedFrame{}, false
}
