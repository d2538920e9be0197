package tracker

import (
	"image"
	"testing"
	"time"

	"github.com/visualab/od-go/model"
)

// texel hashes a coordinate into a luminance value. Non-linear, so no two
// distinct translations of the plane look alike.
func texel(x, y int) byte {
	v := uint32(x)*0x9E3779B1 + uint32(y)*0x85EBCA77
	v ^= v >> 13
	v *= 0xC2B2AE35
	return byte(v >> 24)
}

// texturedLuma produces a deterministic luminance plane shifted by
// (dx, dy): the content appears moved right by dx and down by dy.
func texturedLuma(width, height, dx, dy int) []byte {
	luma := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			luma[y*width+x] = texel(x-dx, y-dy)
		}
	}
	return luma
}

// TestEstimateShiftRecoversTranslation verifies the alignment search finds
// an exact translation between two frames.
func TestEstimateShiftRecoversTranslation(t *testing.T) {
	const w, h = 64, 64
	cases := []image.Point{{0, 0}, {3, 2}, {-4, 1}, {0, -5}, {8, 8}}

	for _, want := range cases {
		prev := texturedLuma(w, h, 0, 0)
		cur := texturedLuma(w, h, want.X, want.Y)

		dx, dy := estimateShift(prev, cur, w, h, w)
		if dx != want.X || dy != want.Y {
			t.Errorf("shift (%d, %d): estimated (%d, %d)", want.X, want.Y, dx, dy)
		}
	}
}

// TestEstimateShiftFlatFrameIsStill verifies a featureless frame reads as
// no motion rather than locking onto an arbitrary candidate.
func TestEstimateShiftFlatFrameIsStill(t *testing.T) {
	const w, h = 32, 32
	flat := make([]byte, w*h)

	if dx, dy := estimateShift(flat, flat, w, h, w); dx != 0 || dy != 0 {
		t.Errorf("flat frame estimated shift (%d, %d), want (0, 0)", dx, dy)
	}
}

// TestMotionDriftsTrackedBoxes verifies that tracked boxes follow the
// estimated global motion between frames.
func TestMotionDriftsTrackedBoxes(t *testing.T) {
	const w, h = 64, 64
	svc := NewMotion()
	now := time.Now()

	svc.OnFrame(texturedLuma(w, h, 0, 0), w, h, w, now)
	svc.TrackResults([]model.Detection{{
		Label:      "person",
		Confidence: 0.9,
		Box:        image.Rect(10, 10, 20, 20),
	}}, nil, now)

	svc.OnFrame(texturedLuma(w, h, 3, 2), w, h, w, now.Add(33*time.Millisecond))

	recs := svc.Recognitions()
	if len(recs) != 1 {
		t.Fatalf("got %d recognitions, want 1", len(recs))
	}
	if want := image.Rect(13, 12, 23, 22); recs[0].Box != want {
		t.Errorf("box = %v, want %v", recs[0].Box, want)
	}
}

// TestTrackResultsReplacesSet verifies corrections replace the tracked set
// wholesale and come back sorted by confidence.
func TestTrackResultsReplacesSet(t *testing.T) {
	svc := NewMotion()
	now := time.Now()

	svc.TrackResults([]model.Detection{
		{Label: "old", Confidence: 0.9, Box: image.Rect(0, 0, 5, 5)},
	}, nil, now)
	svc.TrackResults([]model.Detection{
		{Label: "low", Confidence: 0.5, Box: image.Rect(0, 0, 5, 5)},
		{Label: "high", Confidence: 0.8, Box: image.Rect(10, 10, 15, 15)},
	}, nil, now)

	recs := svc.Recognitions()
	if len(recs) != 2 {
		t.Fatalf("got %d recognitions, want 2", len(recs))
	}
	if recs[0].Label != "high" || recs[1].Label != "low" {
		t.Errorf("recognitions not sorted by confidence: %v", recs)
	}
	for _, rec := range recs {
		if rec.Label == "old" {
			t.Error("stale detection survived a TrackResults replacement")
		}
	}
}

// TestStaleObjectsExpire verifies objects uncorrected for longer than the
// max age are dropped on the next frame.
func TestStaleObjectsExpire(t *testing.T) {
	const w, h = 32, 32
	svc := NewMotion()
	now := time.Now()

	svc.OnFrame(texturedLuma(w, h, 0, 0), w, h, w, now)
	svc.TrackResults([]model.Detection{
		{Label: "person", Confidence: 0.9, Box: image.Rect(5, 5, 10, 10)},
	}, nil, now)

	svc.OnFrame(texturedLuma(w, h, 0, 0), w, h, w, now.Add(defaultMaxAge+time.Second))

	if recs := svc.Recognitions(); len(recs) != 0 {
		t.Errorf("got %d recognitions, want stale objects expired", len(recs))
	}
}
