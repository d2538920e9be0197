package frame

import "image"

// Transform is an axis-aligned scale between two image coordinate spaces.
// It is what the pipeline uses to remap detection boxes between the full
// capture resolution and a smaller tracker working resolution.
type Transform struct {
	ScaleX float64
	ScaleY float64
}

// TransformBetweenSizes returns the transform that maps coordinates in an
// image of size src onto an image of size dst.
func TransformBetweenSizes(src, dst image.Point) Transform {
	return Transform{
		ScaleX: float64(dst.X) / float64(src.X),
		ScaleY: float64(dst.Y) / float64(src.Y),
	}
}

// Rect maps a rectangle through the transform.
func (t Transform) Rect(r image.Rectangle) image.Rectangle {
	return image.Rect(
		int(float64(r.Min.X)*t.ScaleX+0.5),
		int(float64(r.Min.Y)*t.ScaleY+0.5),
		int(float64(r.Max.X)*t.ScaleX+0.5),
		int(float64(r.Max.Y)*t.ScaleY+0.5),
	)
}

// transposeRGBA writes the transpose of src (width x height) into dst.
// Pixels are 4-byte RGBA units. src and dst must be distinct buffers.
func transposeRGBA(src, dst []byte, width, height int) {
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			copy(dst[(x*height+y)*4:], src[(y*width+x)*4:(y*width+x)*4+4])
		}
	}
}

// flipRGBALeftRight mirrors src horizontally into dst.
func flipRGBALeftRight(src, dst []byte, width, height int) {
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			di := (y*width + (width - x - 1)) * 4
			si := (y*width + x) * 4
			copy(dst[di:], src[si:si+4])
		}
	}
}

// flipRGBAUpDown mirrors src vertically into dst.
func flipRGBAUpDown(src, dst []byte, width, height int) {
	for y := 0; y < height; y++ {
		di := (height - y - 1) * width * 4
		si := y * width * 4
		copy(dst[di:di+width*4], src[si:si+width*4])
	}
}

// rotateRGBA returns a new buffer holding src rotated clockwise by the given
// number of degrees, along with the rotated dimensions. Rotation must be a
// multiple of 90; anything else is a caller precondition violation.
func rotateRGBA(src []byte, width, height, degrees int) ([]byte, int, int) {
	degrees = ((degrees % 360) + 360) % 360

	switch degrees {
	case 0:
		dst := make([]byte, len(src))
		copy(dst, src)
		return dst, width, height

	case 90:
		tmp := make([]byte, len(src))
		dst := make([]byte, len(src))
		transposeRGBA(src, tmp, width, height)
		flipRGBALeftRight(tmp, dst, height, width)
		return dst, height, width

	case 180:
		tmp := make([]byte, len(src))
		dst := make([]byte, len(src))
		flipRGBALeftRight(src, tmp, width, height)
		flipRGBAUpDown(tmp, dst, width, height)
		return dst, width, height

	case 270:
		tmp := make([]byte, len(src))
		dst := make([]byte, len(src))
		transposeRGBA(src, tmp, width, height)
		flipRGBAUpDown(tmp, dst, height, width)
		return dst, height, width

	default:
		panic("frame: rotation must be a multiple of 90 degrees")
	}
}

// scaleRGBA resizes src (srcW x srcH) to dstW x dstH with nearest-neighbor
// sampling, preserving the color space.
func scaleRGBA(src []byte, srcW, srcH, dstW, dstH int) []byte {
	dst := make([]byte, dstW*dstH*4)

	for y := 0; y < dstH; y++ {
		sy := y * srcH / dstH
		for x := 0; x < dstW; x++ {
			sx := x * srcW / dstW
			si := (sy*srcW + sx) * 4
			di := (y*dstW + x) * 4
			copy(dst[di:di+4], src[si:si+4])
		}
	}

	return dst
}
