package tracker

import (
	"time"

	"github.com/visualab/od-go/model"
)

// IService fuses inference results with frame-to-frame motion. OnFrame
// advances the tracker's view using only the luminance plane of every
// captured frame; TrackResults corrects it whenever an inference pass
// completes; Recognitions reports the current, motion-compensated
// detection set.
//
// Implementations must be safe for concurrent use: OnFrame runs on the
// orchestration goroutine while TrackResults arrives from pool workers.
type IService interface {
	OnFrame(luma []byte, width, height, stride int, ts time.Time)
	TrackResults(dets []model.Detection, luma []byte, ts time.Time)
	Recognitions() []model.Detection
}
