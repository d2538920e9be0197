package engine

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// dnnService loads ONNX SSD-style detection models through the OpenCV DNN
// backend.
type dnnService struct {
	inputW int
	inputH int
}

func NewDNN(inputW, inputH int) IService {
	return &dnnService{inputW: inputW, inputH: inputH}
}

func (svc *dnnService) InputSize() (int, int) {
	return svc.inputW, svc.inputH
}

func (svc *dnnService) Load(model []byte, threads int) (Engine, error) {
	// WARNING: a gocv.Net is not thread-safe. One Net is created per engine
	// slot and the slot pool guarantees exclusive use.
	net, err := gocv.ReadNetFromONNXBytes(model)
	if err != nil {
		return nil, fmt.Errorf("error reading detection model: %w", err)
	}
	if net.Empty() {
		return nil, fmt.Errorf("detection model is empty")
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("error setting backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("error setting target: %w", err)
	}

	gocv.SetNumThreads(threads)

	return &dnnEngine{net: net, inputW: svc.inputW, inputH: svc.inputH}, nil
}

type dnnEngine struct {
	net    gocv.Net
	inputW int
	inputH int
}

// Run feeds one RGBA image through the network and decodes the SSD output
// layout (rows of [imageID, classID, score, left, top, right, bottom], all
// coordinates normalized) into the fixed-shape buffers.
func (e *dnnEngine) Run(in Input, out *Buffers) error {
	mat, err := gocv.NewMatFromBytes(in.Height, in.Width, gocv.MatTypeCV8UC4, in.Pixels)
	if err != nil {
		return fmt.Errorf("error wrapping input pixels: %w", err)
	}
	defer mat.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(mat, &bgr, gocv.ColorRGBAToBGR)

	blob := gocv.BlobFromImage(bgr, 1.0/255.0,
		image.Pt(e.inputW, e.inputH), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	e.net.SetInput(blob, "")

	output := e.net.Forward("")
	defer output.Close()

	rows := output.Total() / 7
	reshaped := output.Reshape(1, rows)
	defer reshaped.Close()

	out.Count = 0
	for i := 0; i < rows && out.Count < out.Capacity(); i++ {
		row := reshaped.RowRange(i, i+1)
		data, err := row.DataPtrFloat32()
		row.Close()
		if err != nil || len(data) < 7 {
			continue
		}

		n := out.Count
		out.Classes[n] = data[1]
		out.Scores[n] = data[2]
		out.Boxes[4*n] = data[4]   // ymin
		out.Boxes[4*n+1] = data[3] // xmin
		out.Boxes[4*n+2] = data[6] // ymax
		out.Boxes[4*n+3] = data[5] // xmax
		out.Count++
	}

	return nil
}

func (e *dnnEngine) Close() error {
	return e.net.Close()
}
