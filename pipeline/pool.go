package pipeline

import (
	"github.com/visualab/od-go/service/engine"
)

// EngineSlot binds one inference engine instance to its private scratch
// output buffers. Slots are created once at startup and live until
// shutdown; at most one task holds a slot at a time.
type EngineSlot struct {
	id     int
	engine engine.Engine
	out    *engine.Buffers
}

// slotPool is a bounded free-list of engine slots implemented as a channel
// of tokens. Acquire never blocks: a slot-starved caller is told so and
// decides what to do (the orchestrator counts it as a dropped submission).
type slotPool struct {
	free chan *EngineSlot
}

func newSlotPool(engines []engine.Engine, maxDetections int) *slotPool {
	free := make(chan *EngineSlot, len(engines))
	for i, eng := range engines {
		free <- &EngineSlot{
			id:     i,
			engine: eng,
			out:    engine.NewBuffers(maxDetections),
		}
	}
	return &slotPool{free: free}
}

// tryAcquire returns a free slot, or nil when all slots are busy.
func (p *slotPool) tryAcquire() *EngineSlot {
	select {
	case slot := <-p.free:
		return slot
	default:
		return nil
	}
}

// release returns a slot to the pool. Must be called exactly once per
// acquired slot.
func (p *slotPool) release(slot *EngineSlot) {
	p.free <- slot
}

// reclaim blocks until n slots are back in the free list, guaranteeing no
// task still holds an engine. Teardown must call this before closing the
// engines.
func (p *slotPool) reclaim(n int) {
	for i := 0; i < n; i++ {
		<-p.free
	}
}
