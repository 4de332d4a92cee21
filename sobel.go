package seamcarving

import (
	"fmt"
	"math"

	"github.com/neor164/seam-carving/utils"
	"github.com/pkg/errors"
)

// Kernel selects the gradient operator used to compute the energy map.
// See https://en.wikipedia.org/wiki/Sobel_operator
type Kernel int

const (
	// Sobel3 is the 3x3 Sobel operator. Near the borders the neighbourhood
	// is clamped to the image, so every pixel receives an energy value.
	// Taps that fall outside the image read the nearest edge pixel instead
	// of being dropped. Dropping them would give the border of a uniform
	// image a non-zero gradient, while replication keeps it at zero.
	Sobel3 Kernel = iota
	// Sobel5 is the 5x5 variant of Sobel3.
	Sobel5
	// Sobel3Interior computes only the pixels whose whole 3x3 patch lies
	// inside the image and leaves the border band at zero.
	Sobel3Interior
	// Sobel5Interior is the 5x5 variant of Sobel3Interior.
	Sobel5Interior
)

type weights struct {
	size int
	x, y []int32
}

var (
	sobel3 = weights{
		size: 3,
		x: []int32{
			-1, 0, 1,
			-2, 0, 2,
			-1, 0, 1,
		},
		y: []int32{
			-1, -2, -1,
			0, 0, 0,
			1, 2, 1,
		},
	}

	sobel5 = weights{
		size: 5,
		x: []int32{
			2, 1, 0, -1, -2,
			2, 1, 0, -1, -2,
			4, 2, 0, -2, -4,
			2, 1, 0, -1, -2,
			2, 1, 0, -1, -2,
		},
		y: []int32{
			2, 2, 4, 2, 2,
			1, 1, 2, 1, 1,
			0, 0, 0, 0, 0,
			-1, -1, -2, -1, -1,
			-2, -2, -4, -2, -2,
		},
	}
)

// ParseKernel converts the textual kernel name used on the command line.
func ParseKernel(s string) (Kernel, error) {
	switch s {
	case "", "3":
		return Sobel3, nil
	case "5":
		return Sobel5, nil
	case "3i":
		return Sobel3Interior, nil
	case "5i":
		return Sobel5Interior, nil
	}
	return Sobel3, errors.Errorf("unknown kernel %q, expected one of 3, 5, 3i, 5i", s)
}

// Size returns the kernel width (and height).
func (k Kernel) Size() int {
	return k.weights().size
}

func (k Kernel) String() string {
	switch k {
	case Sobel3:
		return "sobel3x3"
	case Sobel5:
		return "sobel5x5"
	case Sobel3Interior:
		return "sobel3x3-interior"
	case Sobel5Interior:
		return "sobel5x5-interior"
	}
	return fmt.Sprintf("Kernel(%d)", int(k))
}

func (k Kernel) weights() weights {
	switch k {
	case Sobel5, Sobel5Interior:
		return sobel5
	}
	return sobel3
}

func (k Kernel) interior() bool {
	return k == Sobel3Interior || k == Sobel5Interior
}

// Apply computes the gradient magnitude sqrt(gx²+gy²) of every pixel of a
// single channel intensity buffer. The values are neither normalized nor
// clipped, so they may exceed 255.
func (k Kernel) Apply(gray []uint8, width, height int) []float32 {
	w := k.weights()
	energy := make([]float32, len(gray))

	b := 0
	if k.interior() {
		b = w.size / 2
	}
	for y := b; y < height-b; y++ {
		for x := b; x < width-b; x++ {
			energy[y*width+x] = w.magnitude(gray, width, height, x, y)
		}
	}
	return energy
}

// magnitude convolves the patch centered on (x, y). Coordinates falling
// outside the image are replaced by the nearest border pixel.
func (w weights) magnitude(gray []uint8, width, height, x, y int) float32 {
	var gx, gy int32
	b := w.size / 2

	for j := 0; j < w.size; j++ {
		row := utils.Clamp(y+j-b, 0, height-1) * width
		for i := 0; i < w.size; i++ {
			px := int32(gray[row+utils.Clamp(x+i-b, 0, width-1)])
			gx += px * w.x[j*w.size+i]
			gy += px * w.y[j*w.size+i]
		}
	}
	return float32(math.Sqrt(float64(gx)*float64(gx) + float64(gy)*float64(gy)))
}
