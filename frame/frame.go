package frame

import (
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/visualab/od-go/service/lgr"
)

// Frame holds one image in either YUV420SP or RGBA form and converts
// between the two on demand. Conversion is lazy but cached: if a Frame is
// built from YUV data and RGBA data is requested, the first call performs
// the conversion and every later call returns the same buffer.
//
// All data is conceptually immutable. For efficiency the accessors hand
// back the internal buffers; callers must not modify them. Use Copy for a
// mutable image.
type Frame struct {
	width     int
	height    int
	uvFlipped bool

	mu   sync.Mutex
	yuv  []byte // YUV420SP, nil until materialized
	rgba []byte // row-major RGBA, nil until materialized
	luma []byte // Y plane only, set when extracted without full YUV

	cacheMu sync.Mutex
	resized map[image.Point]*Frame
}

// NewYUV builds a frame around YUV420SP data. uvFlipped marks U-then-V
// chroma ordering (NV12); unflipped data is V-then-U (NV21). If one
// ordering gives an image whose colors look inverted, use the other.
// len(data) >= YUVSize(width, height) is a caller precondition.
func NewYUV(data []byte, width, height int, uvFlipped bool) *Frame {
	f := &Frame{
		width:     width,
		height:    height,
		uvFlipped: uvFlipped,
		yuv:       data,
	}
	f.seedCache()
	return f
}

// NewRGBA builds a frame around row-major RGBA data.
// len(data) >= width*height*4 is a caller precondition.
func NewRGBA(data []byte, width, height int) *Frame {
	f := &Frame{
		width:  width,
		height: height,
		rgba:   data,
	}
	f.seedCache()
	return f
}

// NewEmpty returns a black frame of the given dimensions.
func NewEmpty(width, height int) *Frame {
	return NewRGBA(make([]byte, width*height*4), width, height)
}

// seedCache records the frame under its own size so a trivial resize
// request returns the frame itself.
func (f *Frame) seedCache() {
	f.resized = map[image.Point]*Frame{f.Size(): f}
}

func (f *Frame) Width() int        { return f.width }
func (f *Frame) Height() int       { return f.height }
func (f *Frame) Size() image.Point { return image.Pt(f.width, f.height) }

// YUV returns the YUV420SP representation, converting from RGBA on first
// use. The returned buffer is shared; callers must not modify it.
func (f *Frame) YUV() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.yuv == nil {
		started := time.Now()
		f.yuv = convertRGBAToYUV(f.rgba, f.width, f.height)
		lgr.Logger.Debug("converted RGBA to YUV",
			slog.Int("width", f.width),
			slog.Int("height", f.height),
			slog.Duration("took", time.Since(started)),
		)
	}
	return f.yuv
}

// RGBA returns the RGBA representation, converting from YUV on first use.
// The returned buffer is shared; callers must not modify it.
func (f *Frame) RGBA() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.rgba == nil {
		started := time.Now()
		f.rgba = convertYUVToRGBA(f.yuv, f.width, f.height, f.uvFlipped)
		lgr.Logger.Debug("converted YUV to RGBA",
			slog.Int("width", f.width),
			slog.Int("height", f.height),
			slog.Duration("took", time.Since(started)),
		)
	}
	return f.rgba
}

// Luminance returns just the Y plane, width*height bytes with a stride of
// width. When only RGBA data is present the plane is computed directly,
// without materializing the full YUV buffer. Shared buffer; do not modify.
func (f *Frame) Luminance() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.yuv != nil {
		return f.yuv[:f.width*f.height]
	}
	if f.luma == nil {
		f.luma = convertRGBAToLuma(f.rgba, f.width, f.height)
	}
	return f.luma
}

// Copy returns a deep, independently mutable copy of the frame as an RGBA
// image, suitable for drawing on.
func (f *Frame) Copy() *image.RGBA {
	src := f.RGBA()
	pix := make([]byte, len(src))
	copy(pix, src)

	return &image.RGBA{
		Pix:    pix,
		Stride: f.width * 4,
		Rect:   image.Rect(0, 0, f.width, f.height),
	}
}

// Resize returns this frame scaled to the given size. Results are cached
// for the lifetime of the frame: calling Resize twice with the same size
// returns the identical instance, and requesting the frame's own size
// returns the frame itself. The cache is never evicted, so heavy resize
// use on a long-lived frame grows memory without bound.
func (f *Frame) Resize(size image.Point) *Frame {
	f.cacheMu.Lock()
	defer f.cacheMu.Unlock()

	if cached, ok := f.resized[size]; ok {
		lgr.Logger.Debug("returning cached resized frame", slog.Any("size", size))
		return cached
	}

	scaled := scaleRGBA(f.RGBA(), f.width, f.height, size.X, size.Y)
	resized := NewRGBA(scaled, size.X, size.Y)
	f.resized[size] = resized

	return resized
}

// Rotate returns a new frame rotated clockwise by the given number of
// degrees (a multiple of 90). The result is never cached and the operation
// is not cheap; prefer orienting the capture device instead.
func (f *Frame) Rotate(degrees int) *Frame {
	started := time.Now()
	rotated, w, h := rotateRGBA(f.RGBA(), f.width, f.height, degrees)
	lgr.Logger.Debug("rotated frame",
		slog.Int("degrees", degrees),
		slog.Duration("took", time.Since(started)),
	)

	return NewRGBA(rotated, w, h)
}
