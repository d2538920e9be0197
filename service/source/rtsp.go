package source

import (
	"context"
	"fmt"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/visualab/od-go/frame"
	"github.com/visualab/od-go/service/lgr"
)

// rtspService pulls frames from an RTSP stream (or any capture device URL
// OpenCV understands) and converts them to RGBA frames.
type rtspService struct {
	capture *gocv.VideoCapture
	url     string
}

func NewRTSP(url string) (IService, error) {
	capture, err := gocv.OpenVideoCapture(url)
	if err != nil {
		return nil, fmt.Errorf("error opening RTSP stream: %w", err)
	}
	return &rtspService{capture: capture, url: url}, nil
}

func (svc *rtspService) GetFrame(ctx context.Context) (*frame.Frame, error) {
	img := gocv.NewMat()
	defer img.Close() // Crucial to close the image to avoid memory leaks

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if ok := svc.capture.Read(&img); !ok || img.Empty() {
			lgr.Logger.Debug("skipping empty frame due to decode error",
				slog.String("url", svc.url),
			)
			continue
		}

		rgba := gocv.NewMat()
		gocv.CvtColor(img, &rgba, gocv.ColorBGRToRGBA)
		pixels := rgba.ToBytes()
		width := rgba.Cols()
		height := rgba.Rows()
		rgba.Close()

		return frame.NewRGBA(pixels, width, height), nil
	}
}

func (svc *rtspService) Shutdown() error {
	return svc.capture.Close()
}
