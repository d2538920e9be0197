package source

import (
	"context"

	"github.com/visualab/od-go/frame"
)

// IService supplies frames to the pipeline. GetFrame blocks until the next
// frame is available or the context is cancelled.
type IService interface {
	GetFrame(ctx context.Context) (*frame.Frame, error)
	Shutdown() error
}
