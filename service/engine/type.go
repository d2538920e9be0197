package engine

// Input is one image in the layout the engine expects: row-major RGBA at
// the service's input resolution.
type Input struct {
	Pixels []byte
	Width  int
	Height int
}

// Buffers holds the fixed-shape outputs of one inference run. They are
// allocated once per engine slot and reused; they are not safe for
// concurrent use; exclusivity is the pool's job, not the engine's.
//
// Boxes are packed 4 per detection as ymin, xmin, ymax, xmax, normalized to
// [0, 1]. Classes hold raw class indices where 0 is the implicit background
// class. Count is how many leading entries are valid.
type Buffers struct {
	Boxes   []float32
	Classes []float32
	Scores  []float32
	Count   int
}

func NewBuffers(maxDetections int) *Buffers {
	return &Buffers{
		Boxes:   make([]float32, 4*maxDetections),
		Classes: make([]float32, maxDetections),
		Scores:  make([]float32, maxDetections),
	}
}

// Capacity returns the maximum number of detections the buffers can hold.
func (b *Buffers) Capacity() int {
	return len(b.Scores)
}

// Engine is one loaded inference engine instance. Run blocks until the
// pass completes. A single Engine must never be run concurrently.
type Engine interface {
	Run(in Input, out *Buffers) error
	Close() error
}

// IService creates engine instances from model bytes.
type IService interface {
	// Load builds one engine. threads is an opaque internal-parallelism
	// hint passed through to the backend.
	Load(model []byte, threads int) (Engine, error)

	// InputSize reports the width and height Run expects its Input at.
	InputSize() (int, int)
}
