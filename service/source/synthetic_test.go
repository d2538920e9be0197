package source

import (
	"context"
	"testing"
	"time"
)

// TestSyntheticProducesFrames verifies frames come out at the requested
// size and that consecutive frames differ (the square moves).
func TestSyntheticProducesFrames(t *testing.T) {
	svc := NewSynthetic(64, 48, 200)
	defer svc.Shutdown()

	ctx := context.Background()
	first, err := svc.GetFrame(ctx)
	if err != nil {
		t.Fatalf("GetFrame failed: %v", err)
	}
	if first.Width() != 64 || first.Height() != 48 {
		t.Fatalf("frame size = %dx%d, want 64x48", first.Width(), first.Height())
	}

	second, err := svc.GetFrame(ctx)
	if err != nil {
		t.Fatalf("GetFrame failed: %v", err)
	}

	same := true
	a, b := first.Luminance(), second.Luminance()
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("consecutive synthetic frames are identical")
	}
}

// TestSyntheticHonorsCancellation verifies GetFrame returns promptly when
// the context is cancelled mid-wait.
func TestSyntheticHonorsCancellation(t *testing.T) {
	svc := NewSynthetic(32, 32, 0.1) // 10s between frames

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	started := time.Now()
	if _, err := svc.GetFrame(ctx); err == nil {
		t.Fatal("GetFrame returned a frame after cancellation")
	}
	if elapsed := time.Since(started); elapsed > time.Second {
		t.Errorf("GetFrame took %v to observe cancellation", elapsed)
	}
}
