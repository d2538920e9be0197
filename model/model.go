package model

import (
	"errors"
	"fmt"
	"image"
	"runtime/debug"
	"time"

	"github.com/visualab/od-go/frame"
)

// ErrConfiguration marks fatal initialization problems: invalid model or
// label resources, malformed pool sizes, etc. These are surfaced explicitly
// at startup and never swallowed.
var ErrConfiguration = errors.New("configuration error")

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func (e CustomError) Error() string {
	return fmt.Sprintf("%s: %s", e.Processor, e.Message)
}

func (e CustomError) Unwrap() error {
	return e.Inner
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

// Detection is one labeled, scored, localized object instance. The box is in
// the pixel coordinate space of the frame that produced it. Immutable value.
type Detection struct {
	Label      string          `json:"label"`
	Confidence float32         `json:"confidence"`
	Box        image.Rectangle `json:"box"`
}

func (d Detection) String() string {
	return fmt.Sprintf("Detection(label=%s, confidence=%.3f, box=%v)", d.Label, d.Confidence, d.Box)
}

// AnnotatedFrame pairs a frame with the detections that currently apply to it
// and the time the frame was captured. Detections are sorted by strictly
// decreasing confidence. The Frame and Timestamp never change after
// construction; the detection slice may be replaced wholesale by later
// pipeline stages (tracker fusion).
type AnnotatedFrame struct {
	Frame      *frame.Frame
	Detections []Detection
	Timestamp  time.Time
}

type PipelineStats struct {
	ID         string `json:"id"`
	Frames     int64  `json:"frames"`
	Submitted  int64  `json:"submitted"`
	Dropped    int64  `json:"dropped"`
	Anomalies  int64  `json:"anomalies"`
	Published  int64  `json:"published"`
	Uptime     int64  `json:"uptime"`
	AvgInferMs int64  `json:"avgInferMs"`
	Timestamp  int64  `json:"timestamp"`
}
