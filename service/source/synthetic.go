package source

import (
	"context"
	"time"

	"github.com/visualab/od-go/frame"
)

// syntheticService generates frames with a bright square drifting across a
// dark background, so the tracker and detectors have something to chew on
// without a camera attached.
type syntheticService struct {
	width    int
	height   int
	interval time.Duration
	seq      int
}

func NewSynthetic(width, height int, fps float64) IService {
	if fps <= 0 {
		fps = 30
	}
	return &syntheticService{
		width:    width,
		height:   height,
		interval: time.Duration(float64(time.Second) / fps),
	}
}

func (svc *syntheticService) GetFrame(ctx context.Context) (*frame.Frame, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(svc.interval):
	}

	svc.seq++
	return svc.render(), nil
}

func (svc *syntheticService) render() *frame.Frame {
	rgba := make([]byte, svc.width*svc.height*4)
	for i := 3; i < len(rgba); i += 4 {
		rgba[i] = 0xff
	}

	// Square drifts one pixel per frame and wraps.
	side := svc.height / 4
	if side < 1 {
		side = 1
	}
	x0 := svc.seq % (svc.width - side)
	y0 := (svc.seq / 2) % (svc.height - side)

	for y := y0; y < y0+side; y++ {
		for x := x0; x < x0+side; x++ {
			i := (y*svc.width + x) * 4
			rgba[i] = 0xe0
			rgba[i+1] = 0xe0
			rgba[i+2] = 0xe0
		}
	}

	return frame.NewRGBA(rgba, svc.width, svc.height)
}

func (svc *syntheticService) Shutdown() error {
	return nil
}
