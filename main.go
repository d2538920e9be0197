package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"golang.org/x/xerrors"

	"github.com/visualab/od-go/model"
	"github.com/visualab/od-go/pipeline"
	"github.com/visualab/od-go/service/config"
	"github.com/visualab/od-go/service/engine"
	"github.com/visualab/od-go/service/lgr"
	"github.com/visualab/od-go/service/source"
	"github.com/visualab/od-go/service/tracker"
)

const (
	// WARNING: this has to be bigger than the detector shutdown grace period
	waitOnShutdown = 8 * time.Second

	statsInterval = 10 * time.Second
)

func main() {
	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		lgr.Logger.Info(
			"received kill signal",
			slog.Any("signal", sig),
		)
		canxFn()
	}()

	// Load env vars if we are in DEV mode
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		lgr.Logger.Info("loading env vars from .env file")
		err := godotenv.Load()
		if err != nil {
			lgr.Logger.Warn("error loading .env file", slog.Any("error", xerrors.New(err.Error())))
		}
	}

	// Create the services needed for the detector
	// Config service
	cfgSvc := config.NewEnv()

	// Source service
	var sourceSvc source.IService
	switch cfgSvc.GetSourceKind() {
	case "rtsp":
		var err error
		sourceSvc, err = source.NewRTSP(cfgSvc.GetSourceURL())
		if err != nil {
			lgr.Logger.Error("error opening rtsp source", slog.Any("error", xerrors.New(err.Error())))
			panic("error opening rtsp source")
		}
	case "synthetic":
		sourceSvc = source.NewSynthetic(640, 480, 30)
	default:
		lgr.Logger.Error("invalid source kind", slog.String("kind", cfgSvc.GetSourceKind()))
		panic("invalid source kind")
	}
	defer sourceSvc.Shutdown()

	// Engine service and model artifacts
	var engineSvc engine.IService
	var modelBytes []byte
	var labels []string
	if cfgSvc.GetModelPath() == "" {
		engineSvc = engine.NewFake(engine.FakeOptions{})
		labels = []string{"person", "car", "dog"}
	} else {
		engineSvc = engine.NewDNN(300, 300)
		var err error
		modelBytes, err = pipeline.LoadModel(cfgSvc.GetModelPath())
		if err != nil {
			lgr.Logger.Error("error loading model", slog.Any("error", xerrors.New(err.Error())))
			panic("error loading model")
		}
		labels, err = pipeline.LoadLabels(cfgSvc.GetLabelsPath())
		if err != nil {
			lgr.Logger.Error("error loading labels", slog.Any("error", xerrors.New(err.Error())))
			panic("error loading labels")
		}
	}

	// Tracker service
	trackerSvc := tracker.NewMotion()

	svcs := pipeline.ServicesFactory{
		CfgSvc:     cfgSvc,
		EngineSvc:  engineSvc,
		SourceSvc:  sourceSvc,
		TrackerSvc: trackerSvc,
	}

	detector, err := pipeline.New(svcs, modelBytes, labels, nil)
	if err != nil {
		lgr.Logger.Error("error creating detector", slog.Any("error", xerrors.New(err.Error())))
		panic("error creating detector")
	}

	// Create detector result
	detectorResult := make(chan error)
	defer close(detectorResult)

	// Start the detector
	go func() {
		detectorResult <- detector.Run(canxCtx)
	}()

	// Consume annotated frames until cancellation
	go func() {
		statsTicker := time.NewTicker(statsInterval)
		defer statsTicker.Stop()

		for {
			select {
			case <-canxCtx.Done():
				return

			case <-statsTicker.C:
				printStats(detector.Stats())

			default:
				annotated := detector.Take()
				printAnnotated(annotated)
			}
		}
	}()

	// Wait for cancellation, detector exit or error
	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"detector pod context cancelled",
			)
			goto resume

		case err := <-detectorResult:
			if err != nil {
				lgr.Logger.Info(
					"detector pod detector exited",
					slog.Any("error", xerrors.New(err.Error())),
				)
			}
			goto resume
		}
	}

	// Wait in a non-blocking way for `waitOnShutdown` for all the go routines to exit
	// This is needed because the go routines may need to report errors as they are exiting
resume:
	// Cancel the context if not already cancelled
	if canxCtx.Err() == nil {
		// Force cancel the context
		canxFn()
	}

	lgr.Logger.Info(
		"detector pod is waiting for all go routines to exit",
	)

	// The only way to exit the main function is to wait for the shutdown
	// duration
	timer := time.NewTimer(waitOnShutdown)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			// Timer expired, proceed with shutdown
			lgr.Logger.Info(
				"detector pod shutdown waiting period expired. Exiting now",
				slog.Duration("period", waitOnShutdown),
			)

			return

		case err := <-detectorResult:
			if err != nil {
				lgr.Logger.Info(
					"detector pod detector exited",
					slog.Any("error", xerrors.New(err.Error())),
				)
			}
		}
	}
}

func printAnnotated(annotated model.AnnotatedFrame) {
	if annotated.Frame == nil {
		return
	}

	color.Cyan("frame %dx%d @ %s",
		annotated.Frame.Width(), annotated.Frame.Height(),
		annotated.Timestamp.Format(time.StampMilli))
	for _, det := range annotated.Detections {
		color.Green("  %s", det.String())
	}
}

func printStats(stats model.PipelineStats) {
	color.Yellow("pipeline %s: frames=%d submitted=%d dropped=%d anomalies=%d published=%d avg=%dms uptime=%ds",
		stats.ID, stats.Frames, stats.Submitted, stats.Dropped,
		stats.Anomalies, stats.Published, stats.AvgInferMs, stats.Uptime)
}
