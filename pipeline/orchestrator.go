package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/natefinch/lumberjack"

	"github.com/visualab/od-go/frame"
	"github.com/visualab/od-go/model"
	"github.com/visualab/od-go/service/lgr"
	"github.com/visualab/od-go/service/source"
	"github.com/visualab/od-go/service/tracker"
)

// frameManager drives the orchestration loop: acquire a frame, decide
// whether to submit it for inference, advance the tracker, publish the
// current detections. Inference completions arrive asynchronously on pool
// worker goroutines and are reconciled against the newest applied result
// so that published detections never regress in capture time.
type frameManager struct {
	id          string
	source      source.IService
	tracker     tracker.IService // nil when tracking is disabled
	pool        *slotPool
	poolSize    int
	pacing      *RollingAverage
	publisher   *Publisher
	callback    ResultFunc // may be nil
	labels      []string
	inputW      int
	inputH      int
	threshold   float32
	trackerSize image.Point // zero value means full resolution
	grace       time.Duration
	detLog      *lumberjack.Logger // nil disables the detections file

	lastSubmit time.Time

	appliedMu sync.Mutex
	appliedTS time.Time // capture time of the newest applied inference result

	tasks sync.WaitGroup

	started   time.Time
	frames    atomic.Int64
	submitted atomic.Int64
	dropped   atomic.Int64
	anomalies atomic.Int64
	published atomic.Int64
}

// run loops until the context is cancelled. Transient per-frame failures
// never terminate the loop.
func (mgr *frameManager) run(ctx context.Context) {
	mgr.started = time.Now()
	lgr.Logger.Info("frame manager starting...",
		slog.String("id", mgr.id),
		slog.Int("poolSize", mgr.poolSize),
		slog.Bool("tracker", mgr.tracker != nil),
	)

	for {
		if ctx.Err() != nil {
			break
		}

		f, err := mgr.source.GetFrame(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				lgr.Logger.Info("frame manager context cancelled while acquiring")
				break
			}
			lgr.Logger.Error("error acquiring frame",
				slog.Any("error", model.GenError("frame_manager",
					err, nil, "error acquiring frame")),
			)
			continue
		}

		ts := time.Now()
		mgr.frames.Add(1)

		if mgr.enoughInterFrameTimeElapsed(ts) {
			mgr.submit(f, ts)
		} else {
			lgr.Logger.Debug("not enough time elapsed since last submission")
		}

		if mgr.tracker != nil {
			mgr.feedTracker(f, ts)
			mgr.publishTracked(f, ts)
		}
	}

	mgr.drain()
}

// enoughInterFrameTimeElapsed reports whether the average inference
// latency, divided by the pool size, has passed since the last submission.
// With more than one engine this pipelines model evaluation so results
// come back evenly spaced in time rather than in bursts.
func (mgr *frameManager) enoughInterFrameTimeElapsed(ts time.Time) bool {
	elapsed := ts.Sub(mgr.lastSubmit)
	minInterval := mgr.pacing.Average() / time.Duration(mgr.poolSize)
	return elapsed >= minInterval
}

// submit dispatches the frame to a free engine slot, if any. Slot
// starvation is not an error: the frame is simply dropped from inference
// (it still reaches the tracker) and the next iteration supersedes it.
func (mgr *frameManager) submit(f *frame.Frame, ts time.Time) {
	slot := mgr.pool.tryAcquire()
	if slot == nil {
		mgr.dropped.Add(1)
		lgr.Logger.Debug("no available engine slots")
		return
	}

	// Recorded at submission, not completion, to bound burstiness
	// independent of inference duration.
	mgr.lastSubmit = ts
	mgr.submitted.Add(1)

	task := &recognizeTask{
		frame:     f,
		ts:        ts,
		slot:      slot,
		inputW:    mgr.inputW,
		inputH:    mgr.inputH,
		labels:    mgr.labels,
		threshold: mgr.threshold,
		release:   mgr.pool.release,
		done:      mgr.onTaskDone,
	}

	lgr.Logger.Debug("submitting recognition task", slog.Int("slot", slot.id))
	mgr.tasks.Add(1)
	go func() {
		defer mgr.tasks.Done()
		task.run()
	}()
}

// onTaskDone runs on the task's goroutine. It feeds the measured latency
// back into the pacing controller and reconciles the completion against
// the newest applied result: completions older than what is already
// applied are discarded, so the published detections never move backwards
// in capture time even when completions arrive out of submission order.
func (mgr *frameManager) onTaskDone(f *frame.Frame, ts time.Time, dets []model.Detection, latency time.Duration) {
	mgr.pacing.Add(latency)
	lgr.Logger.Debug("recognition task completed",
		slog.Duration("latency", latency),
		slog.Duration("avgLatency", mgr.pacing.Average()),
	)

	mgr.appliedMu.Lock()
	if !mgr.appliedTS.IsZero() && !ts.After(mgr.appliedTS) {
		mgr.appliedMu.Unlock()
		mgr.anomalies.Add(1)
		lgr.Logger.Warn("received an out of order recognition",
			slog.Time("completed", ts),
			slog.Time("applied", mgr.appliedTS),
		)
		return
	}
	mgr.appliedTS = ts
	mgr.appliedMu.Unlock()

	mgr.logDetections(ts, dets)

	if mgr.tracker != nil {
		work, corrections := f, dets
		if mgr.trackerSize != (image.Point{}) {
			work = f.Resize(mgr.trackerSize)
			corrections = remapDetections(dets, frame.TransformBetweenSizes(f.Size(), mgr.trackerSize))
		}
		mgr.tracker.TrackResults(corrections, work.Luminance(), ts)
		return
	}

	af := model.AnnotatedFrame{Frame: f, Detections: dets, Timestamp: ts}
	mgr.publish(af)
}

// feedTracker advances the tracker with the luminance plane of every
// acquired frame, whether or not the frame was submitted for inference.
func (mgr *frameManager) feedTracker(f *frame.Frame, ts time.Time) {
	work := f
	if mgr.trackerSize != (image.Point{}) {
		work = f.Resize(mgr.trackerSize)
	}
	mgr.tracker.OnFrame(work.Luminance(), work.Width(), work.Height(), work.Width(), ts)
}

// publishTracked publishes the tracker's current, motion-compensated view
// paired with the full-resolution frame.
func (mgr *frameManager) publishTracked(f *frame.Frame, ts time.Time) {
	recs := mgr.tracker.Recognitions()
	if mgr.trackerSize != (image.Point{}) {
		recs = remapDetections(recs, frame.TransformBetweenSizes(mgr.trackerSize, f.Size()))
	}
	mgr.publish(model.AnnotatedFrame{Frame: f, Detections: recs, Timestamp: ts})
}

func (mgr *frameManager) publish(af model.AnnotatedFrame) {
	mgr.publisher.Publish(af)
	mgr.published.Add(1)
	if mgr.callback != nil {
		mgr.callback(af)
	}
}

// drain waits for in-flight inference tasks, up to the grace period.
// Stragglers are abandoned by the loop; their slot release and completion
// callback still run, and engine teardown waits on the slot pool for them
// separately.
func (mgr *frameManager) drain() {
	done := make(chan struct{})
	go func() {
		mgr.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		lgr.Logger.Info("all inference tasks drained")
	case <-time.After(mgr.grace):
		lgr.Logger.Warn("grace period expired, abandoning straggler inference tasks",
			slog.Duration("grace", mgr.grace),
		)
	}
}

func (mgr *frameManager) logDetections(ts time.Time, dets []model.Detection) {
	if mgr.detLog == nil || len(dets) == 0 {
		return
	}

	entry := map[string]interface{}{
		"time":       ts.Format(time.RFC3339Nano),
		"id":         mgr.id,
		"detections": dets,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		lgr.Logger.Error("error marshaling detections", slog.Any("error", err))
		return
	}
	if _, err := mgr.detLog.Write(append(data, '\n')); err != nil {
		lgr.Logger.Error("error writing to detections log", slog.Any("error", err))
	}
}

func (mgr *frameManager) stats() model.PipelineStats {
	return model.PipelineStats{
		ID:         mgr.id,
		Frames:     mgr.frames.Load(),
		Submitted:  mgr.submitted.Load(),
		Dropped:    mgr.dropped.Load(),
		Anomalies:  mgr.anomalies.Load(),
		Published:  mgr.published.Load(),
		Uptime:     int64(time.Since(mgr.started).Seconds()),
		AvgInferMs: mgr.pacing.Average().Milliseconds(),
		Timestamp:  time.Now().Unix(),
	}
}

// remapDetections maps detection boxes through t, returning a new slice.
func remapDetections(dets []model.Detection, t frame.Transform) []model.Detection {
	out := make([]model.Detection, len(dets))
	for i, det := range dets {
		out[i] = model.Detection{
			Label:      det.Label,
			Confidence: det.Confidence,
			Box:        t.Rect(det.Box),
		}
	}
	return out
}
