package tensor

import (
	"fmt"

	"github.com/arloliu/ftc/errs"
)

// Size is a spatial size in pixels.
type Size struct {
	Height int
	Width  int
}

// IsZero reports whether neither dimension is set.
func (s Size) IsZero() bool {
	return s.Height == 0 && s.Width == 0
}

// Shape is the channels × height × width shape of a Tensor.
type Shape struct {
	C int
	H int
	W int
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.C, s.H, s.W)
}

// Plane returns the number of elements in one channel.
func (s Shape) Plane() int {
	return s.H * s.W
}

// Tensor is a dense C×H×W float32 array.
type Tensor struct {
	shape Shape
	data  []float32
}

// MaxElements bounds the number of values a single tensor may hold.
const MaxElements = 1 << 28

func checkDims(c, h, w int) error {
	if c <= 0 || h <= 0 || w <= 0 {
		return fmt.Errorf("%w: %dx%dx%d", errs.ErrInvalidTensor, c, h, w)
	}
	if h > MaxElements/w || c > MaxElements/(h*w) {
		return fmt.Errorf("%w: %dx%dx%d exceeds %d elements", errs.ErrInvalidTensor, c, h, w, MaxElements)
	}

	return nil
}

// New allocates a zero-filled tensor.
func New(c, h, w int) (*Tensor, error) {
	if err := checkDims(c, h, w); err != nil {
		return nil, err
	}

	return &Tensor{shape: Shape{C: c, H: h, W: w}, data: make([]float32, c*h*w)}, nil
}

// FromData wraps data, which must hold exactly c*h*w values. The slice is
// not copied.
func FromData(c, h, w int, data []float32) (*Tensor, error) {
	if err := checkDims(c, h, w); err != nil {
		return nil, err
	}
	if len(data) != c*h*w {
		return nil, fmt.Errorf("%w: %d values for shape %dx%dx%d", errs.ErrInvalidTensor, len(data), c, h, w)
	}

	return &Tensor{shape: Shape{C: c, H: h, W: w}, data: data}, nil
}

// Shape returns the tensor shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Channels returns the number of channels.
func (t *Tensor) Channels() int {
	return t.shape.C
}

// Data returns the underlying row-major storage.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Channel returns a view of channel c. Writes through the view modify t.
func (t *Tensor) Channel(c int) []float32 {
	plane := t.shape.Plane()
	return t.data[c*plane : (c+1)*plane : (c+1)*plane]
}

// HasChannel reports whether c is a valid channel index.
func (t *Tensor) HasChannel(c int) bool {
	return c >= 0 && c < t.shape.C
}

// Clone returns a deep copy of t.
func (t *Tensor) Clone() *Tensor {
	data := make([]float32, len(t.data))
	copy(data, t.data)

	return &Tensor{shape: t.shape, data: data}
}
