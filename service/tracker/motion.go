package tracker

import (
	"image"
	"sort"
	"sync"
	"time"

	"github.com/visualab/od-go/model"
)

const (
	// Search radius, in pixels, for the global shift estimate.
	searchRadius = 8
	// Sampling stride over the luminance plane when scoring a shift.
	sampleStep = 4
	// Objects uncorrected for this long are dropped.
	defaultMaxAge = 2 * time.Second
)

type trackedObject struct {
	det       model.Detection
	corrected time.Time
}

// motionService is a deliberately simple motion tracker: it estimates one
// global translation between consecutive luminance frames and drifts every
// tracked box by it. Inference results replace the tracked set wholesale.
type motionService struct {
	mu       sync.Mutex
	prevLuma []byte
	width    int
	height   int
	stride   int
	objects  []trackedObject
	maxAge   time.Duration
}

func NewMotion() IService {
	return &motionService{maxAge: defaultMaxAge}
}

func (svc *motionService) OnFrame(luma []byte, width, height, stride int, ts time.Time) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.prevLuma != nil && svc.width == width && svc.height == height && svc.stride == stride {
		dx, dy := estimateShift(svc.prevLuma, luma, width, height, stride)
		if dx != 0 || dy != 0 {
			for i := range svc.objects {
				svc.objects[i].det.Box = svc.objects[i].det.Box.Add(image.Pt(dx, dy))
			}
		}
	}

	// Frames are immutable by contract, so holding the plane is safe.
	svc.prevLuma = luma
	svc.width = width
	svc.height = height
	svc.stride = stride

	svc.expire(ts)
}

func (svc *motionService) TrackResults(dets []model.Detection, _ []byte, ts time.Time) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	objects := make([]trackedObject, 0, len(dets))
	for _, det := range dets {
		objects = append(objects, trackedObject{det: det, corrected: ts})
	}
	svc.objects = objects
}

func (svc *motionService) Recognitions() []model.Detection {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	dets := make([]model.Detection, len(svc.objects))
	for i, obj := range svc.objects {
		dets[i] = obj.det
	}
	sort.SliceStable(dets, func(i, j int) bool {
		return dets[i].Confidence > dets[j].Confidence
	})
	return dets
}

func (svc *motionService) expire(now time.Time) {
	kept := svc.objects[:0]
	for _, obj := range svc.objects {
		if now.Sub(obj.corrected) <= svc.maxAge {
			kept = append(kept, obj)
		}
	}
	svc.objects = kept
}

// estimateShift finds the translation that best aligns prev onto cur by
// minimizing the sum of absolute differences over a sparse pixel grid.
func estimateShift(prev, cur []byte, width, height, stride int) (int, int) {
	bestDx, bestDy := 0, 0
	bestCost := int64(-1)

	for dy := -searchRadius; dy <= searchRadius; dy++ {
		for dx := -searchRadius; dx <= searchRadius; dx++ {
			var cost int64
			var n int64

			for y := searchRadius; y < height-searchRadius; y += sampleStep {
				row := y * stride
				shifted := (y - dy) * stride
				for x := searchRadius; x < width-searchRadius; x += sampleStep {
					d := int64(cur[row+x]) - int64(prev[shifted+x-dx])
					if d < 0 {
						d = -d
					}
					cost += d
					n++
				}
			}

			if n == 0 {
				continue
			}
			// Normalize and prefer the smaller shift on ties, so a flat
			// or ambiguous frame reads as no motion.
			cost = cost * 1000 / n
			if bestCost < 0 || cost < bestCost ||
				(cost == bestCost && abs(dx)+abs(dy) < abs(bestDx)+abs(bestDy)) {
				bestCost = cost
				bestDx, bestDy = dx, dy
			}
		}
	}

	return bestDx, bestDy
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
