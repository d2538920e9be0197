package frame

import (
	"bytes"
	"image"
	"testing"
)

// pixelAt returns the 4-byte RGBA pixel at (x, y) of a frame.
func pixelAt(f *Frame, x, y int) []byte {
	i := (y*f.Width() + x) * 4
	return f.RGBA()[i : i+4]
}

// TestRotate90MovesPixelsClockwise verifies the coordinate mapping: a
// clockwise quarter turn sends source pixel (x, y) of a WxH image to
// (H-1-y, x) of the HxW result.
func TestRotate90MovesPixelsClockwise(t *testing.T) {
	const w, h = 4, 2
	f := NewRGBA(fillRGBA(w, h), w, h)

	r := f.Rotate(90)
	if r.Width() != h || r.Height() != w {
		t.Fatalf("rotated size = %dx%d, want %dx%d", r.Width(), r.Height(), h, w)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			want := pixelAt(f, x, y)
			got := pixelAt(r, h-1-y, x)
			if !bytes.Equal(got, want) {
				t.Fatalf("pixel (%d, %d) not found at (%d, %d) after rotation", x, y, h-1-y, x)
			}
		}
	}
}

// TestRotate180MovesPixels verifies a half turn sends (x, y) to
// (W-1-x, H-1-y).
func TestRotate180MovesPixels(t *testing.T) {
	const w, h = 3, 3
	f := NewRGBA(fillRGBA(w, h), w, h)

	r := f.Rotate(180)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !bytes.Equal(pixelAt(r, w-1-x, h-1-y), pixelAt(f, x, y)) {
				t.Fatalf("pixel (%d, %d) misplaced after 180 rotation", x, y)
			}
		}
	}
}

// TestRotateFourQuarterTurnsRestores verifies four successive quarter
// turns reproduce the original image.
func TestRotateFourQuarterTurnsRestores(t *testing.T) {
	f := NewRGBA(fillRGBA(5, 3), 5, 3)

	r := f.Rotate(90).Rotate(90).Rotate(90).Rotate(90)
	if r.Width() != f.Width() || r.Height() != f.Height() {
		t.Fatalf("size changed: %dx%d", r.Width(), r.Height())
	}
	if !bytes.Equal(r.RGBA(), f.RGBA()) {
		t.Error("four quarter turns did not restore the original image")
	}
}

// TestRotateNormalizesDegrees verifies negative and >360 rotations reduce
// to their canonical quadrant.
func TestRotateNormalizesDegrees(t *testing.T) {
	f := NewRGBA(fillRGBA(4, 3), 4, 3)

	if !bytes.Equal(f.Rotate(-90).RGBA(), f.Rotate(270).RGBA()) {
		t.Error("Rotate(-90) differs from Rotate(270)")
	}
	if !bytes.Equal(f.Rotate(450).RGBA(), f.Rotate(90).RGBA()) {
		t.Error("Rotate(450) differs from Rotate(90)")
	}
	if !bytes.Equal(f.Rotate(0).RGBA(), f.RGBA()) {
		t.Error("Rotate(0) changed the image")
	}
}

// TestRotateRejectsPartialTurns verifies that a rotation that is not a
// multiple of 90 degrees panics.
func TestRotateRejectsPartialTurns(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Rotate(45) did not panic")
		}
	}()

	NewRGBA(fillRGBA(2, 2), 2, 2).Rotate(45)
}

// TestTransformRect verifies box remapping between coordinate spaces,
// including rounding.
func TestTransformRect(t *testing.T) {
	down := TransformBetweenSizes(image.Pt(640, 480), image.Pt(320, 240))
	got := down.Rect(image.Rect(100, 60, 300, 180))
	want := image.Rect(50, 30, 150, 90)
	if got != want {
		t.Errorf("downscale: got %v, want %v", got, want)
	}

	up := TransformBetweenSizes(image.Pt(320, 240), image.Pt(640, 480))
	if back := up.Rect(got); back != image.Rect(100, 60, 300, 180) {
		t.Errorf("upscale: got %v, want the original box", back)
	}

	// Non-integral scale rounds to nearest.
	odd := TransformBetweenSizes(image.Pt(3, 3), image.Pt(2, 2))
	if got := odd.Rect(image.Rect(1, 1, 2, 2)); got != image.Rect(1, 1, 1, 1) {
		t.Errorf("rounding: got %v, want (1,1)-(1,1)", got)
	}
}

// TestScaleRGBAPreservesUniformRegions verifies nearest-neighbor scaling
// of a two-tone image keeps each half's color.
func TestScaleRGBAPreservesUniformRegions(t *testing.T) {
	const w, h = 8, 8
	rgba := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			if x < w/2 {
				rgba[i] = 0xff // left half red
			} else {
				rgba[i+2] = 0xff // right half blue
			}
			rgba[i+3] = 0xff
		}
	}

	f := NewRGBA(rgba, w, h)
	small := f.Resize(image.Pt(4, 4))

	if p := pixelAt(small, 0, 0); p[0] != 0xff || p[2] != 0 {
		t.Errorf("left half lost its color: %v", p)
	}
	if p := pixelAt(small, 3, 3); p[2] != 0xff || p[0] != 0 {
		t.Errorf("right half lost its color: %v", p)
	}
}
