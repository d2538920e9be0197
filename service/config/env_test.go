package config

import (
	"image"
	"testing"
)

// TestEnvOverridesDefaults verifies set variables win over the hardcoded
// fallbacks.
func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("ENGINE_POOL_SIZE", "4")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.65")
	t.Setenv("TRACKER_ENABLED", "false")
	t.Setenv("SOURCE_KIND", "rtsp")
	t.Setenv("SOURCE_URL", "rtsp://camera.local/stream")

	svc := NewEnv()
	if got := svc.GetEnginePoolSize(); got != 4 {
		t.Errorf("pool size = %d, want 4", got)
	}
	if got := svc.GetConfidenceThreshold(); got != 0.65 {
		t.Errorf("threshold = %v, want 0.65", got)
	}
	if svc.IsTrackerEnabled() {
		t.Error("tracker enabled despite TRACKER_ENABLED=false")
	}
	if got := svc.GetSourceKind(); got != "rtsp" {
		t.Errorf("source kind = %q, want %q", got, "rtsp")
	}
	if got := svc.GetSourceURL(); got != "rtsp://camera.local/stream" {
		t.Errorf("source url = %q", got)
	}
}

// TestEnvFallsBackOnUnsetAndMalformed verifies the defaults survive unset
// and unparseable variables.
func TestEnvFallsBackOnUnsetAndMalformed(t *testing.T) {
	t.Setenv("ENGINE_POOL_SIZE", "lots")
	t.Setenv("MAX_OUTPUT_FPS", "")

	svc := NewEnv()
	defaults := NewHardCoded()

	if got := svc.GetEnginePoolSize(); got != defaults.GetEnginePoolSize() {
		t.Errorf("pool size = %d, want default %d", got, defaults.GetEnginePoolSize())
	}
	if got := svc.GetMaxOutputFPS(); got != defaults.GetMaxOutputFPS() {
		t.Errorf("max fps = %v, want default %v", got, defaults.GetMaxOutputFPS())
	}
}

// TestEnvTrackerFrameSize verifies WxH parsing and its fallback.
func TestEnvTrackerFrameSize(t *testing.T) {
	t.Setenv("TRACKER_FRAME_SIZE", "160x120")
	svc := NewEnv()
	if got := svc.GetTrackerFrameSize(); got != image.Pt(160, 120) {
		t.Errorf("tracker size = %v, want 160x120", got)
	}

	t.Setenv("TRACKER_FRAME_SIZE", "wide")
	if got := NewEnv().GetTrackerFrameSize(); got != NewHardCoded().GetTrackerFrameSize() {
		t.Errorf("malformed size = %v, want the default", got)
	}
}
