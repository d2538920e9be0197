package config

import (
	"image"
	"os"
	"strconv"
	"strings"
)

// envService reads configuration from environment variables, falling back
// to the hardcoded defaults for anything unset. Pairs with godotenv loading
// a .env file in dev mode (see main).
type envService struct {
	defaults IService
}

func NewEnv() IService {
	return &envService{defaults: NewHardCoded()}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (svc *envService) GetEnginePoolSize() int {
	return envInt("ENGINE_POOL_SIZE", svc.defaults.GetEnginePoolSize())
}

func (svc *envService) GetEngineThreads() int {
	return envInt("ENGINE_THREADS", svc.defaults.GetEngineThreads())
}

func (svc *envService) GetMaxDetections() int {
	return envInt("MAX_DETECTIONS", svc.defaults.GetMaxDetections())
}

func (svc *envService) GetConfidenceThreshold() float32 {
	return float32(envFloat("CONFIDENCE_THRESHOLD", float64(svc.defaults.GetConfidenceThreshold())))
}

func (svc *envService) GetModelPath() string {
	return envString("MODEL_PATH", svc.defaults.GetModelPath())
}

func (svc *envService) GetLabelsPath() string {
	return envString("LABELS_PATH", svc.defaults.GetLabelsPath())
}

func (svc *envService) GetMaxOutputFPS() float64 {
	return envFloat("MAX_OUTPUT_FPS", svc.defaults.GetMaxOutputFPS())
}

func (svc *envService) IsTrackerEnabled() bool {
	if v := os.Getenv("TRACKER_ENABLED"); v != "" {
		return v == "true" || v == "1"
	}
	return svc.defaults.IsTrackerEnabled()
}

func (svc *envService) GetTrackerFrameSize() image.Point {
	// Format: WxH, e.g. "320x240". Empty or malformed falls back.
	v := os.Getenv("TRACKER_FRAME_SIZE")
	parts := strings.SplitN(v, "x", 2)
	if len(parts) == 2 {
		w, errW := strconv.Atoi(parts[0])
		h, errH := strconv.Atoi(parts[1])
		if errW == nil && errH == nil {
			return image.Pt(w, h)
		}
	}
	return svc.defaults.GetTrackerFrameSize()
}

func (svc *envService) GetPacingHistorySize() int {
	return envInt("PACING_HISTORY_SIZE", svc.defaults.GetPacingHistorySize())
}

func (svc *envService) GetPacingSeedMs() int {
	return envInt("PACING_SEED_MS", svc.defaults.GetPacingSeedMs())
}

func (svc *envService) GetSourceKind() string {
	return envString("SOURCE_KIND", svc.defaults.GetSourceKind())
}

func (svc *envService) GetSourceURL() string {
	return envString("SOURCE_URL", svc.defaults.GetSourceURL())
}

func (svc *envService) GetShutdownGraceMs() int {
	return envInt("SHUTDOWN_GRACE_MS", svc.defaults.GetShutdownGraceMs())
}

func (svc *envService) GetDetectionsLogFile() string {
	return envString("DETECTIONS_LOG_FILE", svc.defaults.GetDetectionsLogFile())
}
