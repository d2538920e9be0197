package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/lumberjack"

	"github.com/visualab/od-go/model"
	"github.com/visualab/od-go/service/engine"
	"github.com/visualab/od-go/service/lgr"
)

// Detector is the public face of the detection pipeline. Construction
// loads every engine instance, acquires one frame synchronously to seed
// the publisher (consumers never see an empty result), and wires the
// orchestration loop; Run drives it until the context is cancelled.
//
// Consumers read results through Take (rate-limited, blocking) or Poll
// (non-blocking, edge-triggered, single consumer).
type Detector struct {
	id        string
	publisher *Publisher
	mgr       *frameManager
	engines   []engine.Engine
}

// New builds a detector from the supplied services. modelBytes may be nil
// for engine services that fabricate results. Initialization problems
// (malformed pool size, empty labels, an engine that will not load) are
// configuration errors: fatal and explicit.
func New(svcs ServicesFactory, modelBytes []byte, labels []string, callback ResultFunc) (*Detector, error) {
	cfg := svcs.CfgSvc

	poolSize := cfg.GetEnginePoolSize()
	if poolSize < 1 {
		return nil, fmt.Errorf("%w: engine pool size must be >= 1, got %d", model.ErrConfiguration, poolSize)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no labels provided", model.ErrConfiguration)
	}
	if cfg.IsTrackerEnabled() && svcs.TrackerSvc == nil {
		return nil, fmt.Errorf("%w: tracking enabled but no tracker service provided", model.ErrConfiguration)
	}

	engines := make([]engine.Engine, 0, poolSize)
	for i := 0; i < poolSize; i++ {
		eng, err := svcs.EngineSvc.Load(modelBytes, cfg.GetEngineThreads())
		if err != nil {
			for _, built := range engines {
				built.Close()
			}
			return nil, model.GenError("detector",
				model.ErrConfiguration, nil, "error loading engine %d: %v", i, err)
		}
		engines = append(engines, eng)
	}

	// Seed the publisher with one synchronously acquired frame. This also
	// flushes any asynchronous setup inside the source before the loop
	// starts.
	seed, err := svcs.SourceSvc.GetFrame(context.Background())
	if err != nil {
		for _, built := range engines {
			built.Close()
		}
		return nil, fmt.Errorf("acquiring seed frame: %w", err)
	}

	publisher := NewPublisher(cfg.GetMaxOutputFPS(),
		model.AnnotatedFrame{Frame: seed, Timestamp: time.Now()})

	inputW, inputH := svcs.EngineSvc.InputSize()

	var detLog *lumberjack.Logger
	if file := cfg.GetDetectionsLogFile(); file != "" {
		detLog = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     7,    // days
			Compress:   true, // compress old logs
		}
	}

	mgr := &frameManager{
		id:        uuid.NewString(),
		source:    svcs.SourceSvc,
		pool:      newSlotPool(engines, cfg.GetMaxDetections()),
		poolSize:  poolSize,
		pacing:    NewRollingAverage(cfg.GetPacingHistorySize(), time.Duration(cfg.GetPacingSeedMs())*time.Millisecond),
		publisher: publisher,
		callback:  callback,
		labels:    labels,
		inputW:    inputW,
		inputH:    inputH,
		threshold: cfg.GetConfidenceThreshold(),
		grace:     time.Duration(cfg.GetShutdownGraceMs()) * time.Millisecond,
		detLog:    detLog,
	}
	if cfg.IsTrackerEnabled() {
		mgr.tracker = svcs.TrackerSvc
		mgr.trackerSize = cfg.GetTrackerFrameSize()
	}

	return &Detector{
		id:        mgr.id,
		publisher: publisher,
		mgr:       mgr,
		engines:   engines,
	}, nil
}

// Run drives the orchestration loop until ctx is cancelled, then drains
// in-flight work and releases the engines.
func (d *Detector) Run(ctx context.Context) error {
	d.mgr.run(ctx)

	// A straggler past the grace period may still be running inference on
	// its slot's engine. Engines close only once every slot is back in the
	// free list.
	d.mgr.pool.reclaim(d.mgr.poolSize)

	for _, eng := range d.engines {
		if err := eng.Close(); err != nil {
			lgr.Logger.Error("error closing engine", slog.Any("error", err))
		}
	}

	lgr.Logger.Info("detector stopped", slog.String("id", d.id))
	return nil
}

// Take returns the most recent annotated frame, at most at the configured
// output rate. Safe for concurrent callers.
func (d *Detector) Take() model.AnnotatedFrame {
	return d.publisher.Take()
}

// Poll returns the most recent annotated frame if it is newer than the
// last one Poll returned, without blocking. Supports a single consumer.
func (d *Detector) Poll() (model.AnnotatedFrame, bool) {
	return d.publisher.Poll()
}

// Stats returns a snapshot of the pipeline counters.
func (d *Detector) Stats() model.PipelineStats {
	return d.mgr.stats()
}

// LoadModel reads model bytes from disk. A missing or unreadable file is a
// configuration error.
func LoadModel(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading model %s: %v", model.ErrConfiguration, path, err)
	}
	return data, nil
}

// LoadLabels reads one label per line. The file must not contain a
// background row: class index k maps to line k-1, with index 0 reserved
// for the implicit background class.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading labels %s: %v", model.ErrConfiguration, path, err)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			labels = append(labels, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading labels %s: %v", model.ErrConfiguration, path, err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: labels file %s is empty", model.ErrConfiguration, path)
	}

	return labels, nil
}
