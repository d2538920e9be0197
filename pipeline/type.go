package pipeline

import (
	"github.com/visualab/od-go/model"
	"github.com/visualab/od-go/service/config"
	"github.com/visualab/od-go/service/engine"
	"github.com/visualab/od-go/service/source"
	"github.com/visualab/od-go/service/tracker"
)

// ServicesFactory bundles the services the detection pipeline composes.
type ServicesFactory struct {
	CfgSvc     config.IService
	EngineSvc  engine.IService
	SourceSvc  source.IService
	TrackerSvc tracker.IService // consulted only when the config enables tracking
}

// ResultFunc is invoked with every published annotated frame, in addition
// to the frame being made available through the publisher.
type ResultFunc func(model.AnnotatedFrame)
