package pipeline

import (
	"image"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/xerrors"

	"github.com/visualab/od-go/frame"
	"github.com/visualab/od-go/model"
	"github.com/visualab/od-go/service/engine"
	"github.com/visualab/od-go/service/lgr"
)

// resultFunc receives the outcome of one inference task. Invoked exactly
// once per task, on the task's goroutine, after the slot is released.
type resultFunc func(f *frame.Frame, ts time.Time, dets []model.Detection, latency time.Duration)

// recognizeTask runs one frame through one exclusively-held engine slot:
// convert the frame to the engine input layout, run inference
// synchronously, decode the raw outputs into detections, release the slot,
// report the result.
type recognizeTask struct {
	frame     *frame.Frame
	ts        time.Time
	slot      *EngineSlot
	inputW    int
	inputH    int
	labels    []string
	threshold float32
	release   func(*EngineSlot)
	done      resultFunc
}

func (t *recognizeTask) run() {
	resized := t.frame.Resize(image.Pt(t.inputW, t.inputH))
	in := engine.Input{
		Pixels: resized.RGBA(),
		Width:  t.inputW,
		Height: t.inputH,
	}

	var dets []model.Detection
	if err := t.slot.engine.Run(in, t.slot.out); err != nil {
		lgr.Logger.Error("inference run failed",
			slog.Int("slot", t.slot.id),
			slog.Any("error", xerrors.New(err.Error())),
		)
	} else {
		dets = t.decode()
	}

	// Decode before release: the output buffers belong to the slot.
	t.release(t.slot)
	t.done(t.frame, t.ts, dets, time.Since(t.ts))
}

// decode turns the slot's raw output buffers into labeled detections in
// the source frame's coordinate space, dropping entries below the
// confidence threshold and the implicit background class (index 0), sorted
// by decreasing confidence.
func (t *recognizeTask) decode() []model.Detection {
	out := t.slot.out
	w := float32(t.frame.Width())
	h := float32(t.frame.Height())

	count := out.Count
	if count > out.Capacity() {
		count = out.Capacity()
	}

	dets := make([]model.Detection, 0, count)
	for i := 0; i < count; i++ {
		score := out.Scores[i]
		if score < t.threshold {
			continue
		}

		class := int(out.Classes[i])
		if class == 0 {
			continue // background
		}
		if class-1 >= len(t.labels) {
			lgr.Logger.Warn("detection class out of label range",
				slog.Int("class", class),
				slog.Int("labels", len(t.labels)),
			)
			continue
		}

		ymin := out.Boxes[4*i] * h
		xmin := out.Boxes[4*i+1] * w
		ymax := out.Boxes[4*i+2] * h
		xmax := out.Boxes[4*i+3] * w

		dets = append(dets, model.Detection{
			Label:      t.labels[class-1],
			Confidence: score,
			Box:        image.Rect(int(xmin), int(ymin), int(xmax), int(ymax)),
		})
	}

	sort.SliceStable(dets, func(i, j int) bool {
		return dets[i].Confidence > dets[j].Confidence
	})

	return dets
}
