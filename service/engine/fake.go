package engine

import (
	"sync/atomic"
	"time"
)

// FakeOptions scripts the behavior of the fake engine service. Runs are
// numbered from 0 across all engines created by one service, so tests can
// script per-run latencies and results deterministically.
type FakeOptions struct {
	InputWidth  int
	InputHeight int

	// Latency, if set, is slept before results are produced.
	Latency func(run int) time.Duration

	// Results, if set, fills the output buffers for the given run. When
	// nil the fake reports zero detections.
	Results func(run int, out *Buffers)
}

type fakeService struct {
	opts FakeOptions
	runs atomic.Int64
}

// NewFake returns an engine service that fabricates detections instead of
// running a model. Used by tests and by dev mode when no model is present.
func NewFake(opts FakeOptions) IService {
	if opts.InputWidth == 0 {
		opts.InputWidth = 300
	}
	if opts.InputHeight == 0 {
		opts.InputHeight = 300
	}
	return &fakeService{opts: opts}
}

func (svc *fakeService) InputSize() (int, int) {
	return svc.opts.InputWidth, svc.opts.InputHeight
}

func (svc *fakeService) Load(_ []byte, _ int) (Engine, error) {
	return &fakeEngine{svc: svc}, nil
}

type fakeEngine struct {
	svc *fakeService
}

func (e *fakeEngine) Run(_ Input, out *Buffers) error {
	run := int(e.svc.runs.Add(1) - 1)

	if e.svc.opts.Latency != nil {
		time.Sleep(e.svc.opts.Latency(run))
	}

	out.Count = 0
	if e.svc.opts.Results != nil {
		e.svc.opts.Results(run, out)
	}
	return nil
}

func (e *fakeEngine) Close() error {
	return nil
}
