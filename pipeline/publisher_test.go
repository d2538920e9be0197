package pipeline

import (
	"testing"
	"time"

	"github.com/visualab/od-go/frame"
	"github.com/visualab/od-go/model"
)

func annotatedAt(ts time.Time) model.AnnotatedFrame {
	return model.AnnotatedFrame{Frame: frame.NewEmpty(2, 2), Timestamp: ts}
}

// TestPublisherLastWriteWins verifies the slot holds only the most recent
// publish.
func TestPublisherLastWriteWins(t *testing.T) {
	t0 := time.Now()
	p := NewPublisher(0, annotatedAt(t0))

	p.Publish(annotatedAt(t0.Add(10 * time.Millisecond)))
	newest := annotatedAt(t0.Add(20 * time.Millisecond))
	p.Publish(newest)

	if got := p.Take(); !got.Timestamp.Equal(newest.Timestamp) {
		t.Errorf("Take returned timestamp %v, want %v", got.Timestamp, newest.Timestamp)
	}
}

// TestTakeEnforcesMinimumInterval verifies consecutive Takes are spaced by
// at least the configured output interval.
func TestTakeEnforcesMinimumInterval(t *testing.T) {
	p := NewPublisher(20, annotatedAt(time.Now())) // 50ms interval

	p.Take()
	started := time.Now()
	p.Take()
	p.Take()

	if elapsed := time.Since(started); elapsed < 90*time.Millisecond {
		t.Errorf("two rate-limited Takes completed in %v, want at least ~100ms", elapsed)
	}
}

// TestTakeUncappedDoesNotBlock verifies a zero max rate disables the
// spacing entirely.
func TestTakeUncappedDoesNotBlock(t *testing.T) {
	p := NewPublisher(0, annotatedAt(time.Now()))

	started := time.Now()
	for i := 0; i < 100; i++ {
		p.Take()
	}
	if elapsed := time.Since(started); elapsed > 100*time.Millisecond {
		t.Errorf("100 uncapped Takes took %v", elapsed)
	}
}

// TestPollIsEdgeTriggered verifies Poll returns each published frame at
// most once, starting with the seed.
func TestPollIsEdgeTriggered(t *testing.T) {
	t0 := time.Now()
	p := NewPublisher(0, annotatedAt(t0))

	if _, ok := p.Poll(); !ok {
		t.Fatal("first Poll did not return the seed frame")
	}
	if _, ok := p.Poll(); ok {
		t.Fatal("second Poll returned a frame without a new publish")
	}

	p.Publish(annotatedAt(t0.Add(time.Millisecond)))
	if af, ok := p.Poll(); !ok {
		t.Fatal("Poll missed a newly published frame")
	} else if !af.Timestamp.Equal(t0.Add(time.Millisecond)) {
		t.Errorf("Poll returned timestamp %v, want %v", af.Timestamp, t0.Add(time.Millisecond))
	}
	if _, ok := p.Poll(); ok {
		t.Error("Poll returned the same frame twice")
	}
}

// TestPollIgnoresOlderFrames verifies the cursor never moves backwards: a
// publish that is older than the last polled frame is invisible.
func TestPollIgnoresOlderFrames(t *testing.T) {
	t0 := time.Now()
	p := NewPublisher(0, annotatedAt(t0.Add(100*time.Millisecond)))

	if _, ok := p.Poll(); !ok {
		t.Fatal("first Poll did not return the seed frame")
	}

	p.Publish(annotatedAt(t0.Add(50 * time.Millisecond)))
	if _, ok := p.Poll(); ok {
		t.Error("Poll returned a frame older than the last polled one")
	}
}
