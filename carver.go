package seamcarving

import (
	"image"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// EnergyMode decides whether the energy map is computed once or refreshed after every removal.
type EnergyMode int

const (
	// StaticEnergy computes the grayscale and energy buffers once from the
	// source image and afterwards only removes the seams from them.
	StaticEnergy EnergyMode = iota
	// RecomputedEnergy derives the grayscale and energy buffers from the
	// current pixels before every seam removal.
	RecomputedEnergy
)

func (m EnergyMode) String() string {
	if m == RecomputedEnergy {
		return "recomputed"
	}
	return "static"
}

// ProtectedEnergy is added to the energy of every pixel inside a detected region.
const ProtectedEnergy float32 = 1 << 16

// Detector locates the image regions which should survive the resize.
type Detector interface {
	Detect(gray []uint8, width, height int) []image.Rectangle
}

// Options configures the seam carver. The zero value uses the clamped 3x3
// Sobel kernel on a static energy map.
type Options struct {
	Kernel    Kernel
	Energy    EnergyMode
	BlurSigma float64
	Detector  Detector
	Logger    logrus.FieldLogger
	// TrackSeams records the removed seams in source image coordinates.
	TrackSeams bool
}

// Carver shrinks an image one seam at a time. The pixel, grayscale and
// energy buffers are always of the same Width x Height size.
type Carver struct {
	Width        int
	Height       int
	Channels     int
	TargetWidth  int
	TargetHeight int

	opts    Options
	log     logrus.FieldLogger
	pix     []uint8
	gray    []uint8
	energy  []float32
	stale   bool
	removed int

	// origin holds the source cell index of every current cell.
	origin []int32
	seams  []Seam
}

// NewCarver prepares the carving of img down to targetWidth x targetHeight.
// The target can not be larger than the source image.
func NewCarver(img *Image, targetWidth, targetHeight int, opts *Options) (*Carver, error) {
	if err := img.validate(); err != nil {
		return nil, err
	}
	if targetWidth > img.Width || targetHeight > img.Height || targetWidth < 1 || targetHeight < 1 {
		return nil, errors.WithStack(&SizeError{
			Width:        img.Width,
			Height:       img.Height,
			TargetWidth:  targetWidth,
			TargetHeight: targetHeight,
		})
	}

	c := &Carver{
		Width:        img.Width,
		Height:       img.Height,
		Channels:     img.Channels,
		TargetWidth:  targetWidth,
		TargetHeight: targetHeight,
	}
	if opts != nil {
		c.opts = *opts
	}
	c.log = c.opts.Logger
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}

	c.pix = append([]uint8(nil), img.Pix...)
	c.gray = Luminance(c.pix, c.Channels)
	if c.opts.TrackSeams {
		c.origin = make([]int32, img.Width*img.Height)
		for i := range c.origin {
			c.origin[i] = int32(i)
		}
	}
	if err := c.measure(); err != nil {
		return nil, err
	}
	return c, nil
}

// Run removes horizontal seams until the target height is reached,
// then vertical seams until the target width is reached.
func (c *Carver) Run() (*Image, error) {
	for c.Height > c.TargetHeight {
		if _, err := c.Step(ColumnAxis); err != nil {
			return nil, err
		}
	}
	for c.Width > c.TargetWidth {
		if _, err := c.Step(RowAxis); err != nil {
			return nil, err
		}
	}

	c.log.WithFields(logrus.Fields{
		"width":   c.Width,
		"height":  c.Height,
		"removed": c.removed,
		"energy":  c.opts.Energy,
	}).Info("seam carving finished")

	return c.Image(), nil
}

// Step removes the cheapest seam in the given direction from the pixel,
// grayscale and energy buffers and returns it.
func (c *Carver) Step(dir Direction) (Seam, error) {
	if (dir == RowAxis && c.Width <= 1) || (dir == ColumnAxis && c.Height <= 1) {
		return nil, errors.WithStack(&SizeError{
			Width:        c.Width,
			Height:       c.Height,
			TargetWidth:  c.TargetWidth,
			TargetHeight: c.TargetHeight,
		})
	}
	if c.stale {
		c.gray = Luminance(c.pix, c.Channels)
		if err := c.measure(); err != nil {
			return nil, err
		}
	}

	cost := CostMatrix(c.energy, c.Width, c.Height, dir)
	seam := FindSeam(cost, c.Width, c.Height, dir)

	var err error
	if c.gray, err = RemoveSeam(c.gray, seam, 1, dir, c.Width); err != nil {
		return nil, errors.Wrap(err, "removing seam from the grayscale buffer")
	}
	if c.energy, err = RemoveSeam(c.energy, seam, 1, dir, c.Width); err != nil {
		return nil, errors.Wrap(err, "removing seam from the energy buffer")
	}
	if c.pix, err = RemoveSeam(c.pix, seam, c.Channels, dir, c.Width); err != nil {
		return nil, errors.Wrap(err, "removing seam from the pixel buffer")
	}
	if c.origin != nil {
		src := make(Seam, len(seam))
		for i, idx := range seam {
			src[i] = int(c.origin[idx])
		}
		c.seams = append(c.seams, src)
		if c.origin, err = RemoveSeam(c.origin, seam, 1, dir, c.Width); err != nil {
			return nil, errors.Wrap(err, "removing seam from the origin buffer")
		}
	}

	if dir == RowAxis {
		c.Width--
	} else {
		c.Height--
	}
	c.removed++
	c.stale = c.opts.Energy == RecomputedEnergy

	c.log.WithFields(logrus.Fields{
		"direction": dir,
		"width":     c.Width,
		"height":    c.Height,
	}).Debug("seam removed")

	return seam, nil
}

// Image returns a copy of the current pixel buffer.
func (c *Carver) Image() *Image {
	return &Image{
		Pix:      append([]uint8(nil), c.pix...),
		Width:    c.Width,
		Height:   c.Height,
		Channels: c.Channels,
	}
}

// Energy returns a copy of the current energy map.
func (c *Carver) Energy() []float32 {
	return append([]float32(nil), c.energy...)
}

// Seams returns the removed seams in removal order, as cell indices of the
// source image. It is empty unless Options.TrackSeams is set.
func (c *Carver) Seams() []Seam {
	return append([]Seam(nil), c.seams...)
}

// Removed returns the number of seams removed so far.
func (c *Carver) Removed() int { return c.removed }

// Remaining returns the number of seams still to be removed by Run.
func (c *Carver) Remaining() int {
	return (c.Width - c.TargetWidth) + (c.Height - c.TargetHeight)
}

// measure computes the energy map of the grayscale buffer
// and raises it over the detected regions.
func (c *Carver) measure() error {
	src := c.gray
	if c.opts.BlurSigma > 0 {
		src = blurGray(c.gray, c.Width, c.Height, c.opts.BlurSigma)
	}
	c.energy = c.opts.Kernel.Apply(src, c.Width, c.Height)
	c.stale = false

	if c.opts.Detector == nil {
		return nil
	}
	bounds := image.Rect(0, 0, c.Width, c.Height)
	for _, rect := range c.opts.Detector.Detect(c.gray, c.Width, c.Height) {
		rect = rect.Intersect(bounds)
		if rect.Empty() {
			continue
		}
		if rect.Dx() > c.TargetWidth || rect.Dy() > c.TargetHeight {
			return errors.Wrapf(ErrFaceDistortion, "region %v does not fit into %dx%d",
				rect, c.TargetWidth, c.TargetHeight)
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				c.energy[y*c.Width+x] += ProtectedEnergy
			}
		}
	}
	return nil
}
