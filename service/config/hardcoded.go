package config

import "image"

type hardcodedService struct {
}

func NewHardCoded() IService {
	return &hardcodedService{}
}

func (svc *hardcodedService) GetEnginePoolSize() int {
	// For now, we are using a hardcoded value.
	// Override with the env service when tuning for a specific device.
	return 2
}

func (svc *hardcodedService) GetEngineThreads() int {
	return 2
}

func (svc *hardcodedService) GetMaxDetections() int {
	return 10
}

func (svc *hardcodedService) GetConfidenceThreshold() float32 {
	return 0.4
}

func (svc *hardcodedService) GetModelPath() string {
	return "./models/detect.onnx"
}

func (svc *hardcodedService) GetLabelsPath() string {
	return "./models/labels.txt"
}

func (svc *hardcodedService) GetMaxOutputFPS() float64 {
	return 15
}

func (svc *hardcodedService) IsTrackerEnabled() bool {
	return true
}

func (svc *hardcodedService) GetTrackerFrameSize() image.Point {
	return image.Pt(320, 240)
}

func (svc *hardcodedService) GetPacingHistorySize() int {
	return 10
}

func (svc *hardcodedService) GetPacingSeedMs() int {
	// Roughly one CPU inference on a mid-range device. The rolling average
	// replaces it as soon as real samples arrive.
	return 300
}

func (svc *hardcodedService) GetSourceKind() string {
	return "synthetic"
}

func (svc *hardcodedService) GetSourceURL() string {
	return ""
}

func (svc *hardcodedService) GetShutdownGraceMs() int {
	return 500
}

func (svc *hardcodedService) GetDetectionsLogFile() string {
	return "detections.log"
}
