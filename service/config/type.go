package config

import "image"

// IService exposes the configuration surface consumed by the detection
// pipeline. Implementations decide where values come from (environment,
// hardcoded defaults, etc.).
type IService interface {
	// Engine pool.
	GetEnginePoolSize() int
	GetEngineThreads() int // per-engine internal thread hint, opaque
	GetMaxDetections() int
	GetConfidenceThreshold() float32

	// Model resources.
	GetModelPath() string
	GetLabelsPath() string

	// Output pacing.
	GetMaxOutputFPS() float64

	// Tracker.
	IsTrackerEnabled() bool
	GetTrackerFrameSize() image.Point // zero means track at full resolution

	// Inference submission pacing.
	GetPacingHistorySize() int
	GetPacingSeedMs() int

	// Frame source.
	GetSourceKind() string // "rtsp" or "synthetic"
	GetSourceURL() string

	// Shutdown and logging.
	GetShutdownGraceMs() int
	GetDetectionsLogFile() string
}
