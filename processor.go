package seamcarving

import (
	"image"
	"io"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/neor164/seam-carving/face"
	"github.com/neor164/seam-carving/utils"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Processor options
type Processor struct {
	// NewWidth and NewHeight are the requested image sizes. Zero keeps the source size.
	NewWidth  int
	NewHeight int
	// Percentage interprets NewWidth and NewHeight as the percentage to remove.
	Percentage bool
	// Square reduces the image to a square of the smaller requested side.
	Square bool
	// Scale first rescales the image proportionally when both sides shrink,
	// so only the remaining pixels are carved.
	Scale bool

	Kernel    Kernel
	Energy    EnergyMode
	BlurSigma float64

	// FaceDetect protects the faces found by the Classifier cascade from being carved.
	FaceDetect bool
	Classifier string
	FaceAngle  float64

	// SeamMap receives the source image with the removed seams drawn over it,
	// colored in removal order starting from SeamColor.
	SeamMap   io.Writer
	SeamColor string

	Logger *logrus.Logger

	once     sync.Once
	detector Detector
	loadErr  error
}

func (p *Processor) logger() *logrus.Logger {
	if p.Logger == nil {
		return logrus.StandardLogger()
	}
	return p.Logger
}

// faceDetector loads the cascade file the first time it is needed.
func (p *Processor) faceDetector() (Detector, error) {
	p.once.Do(func() {
		if p.Classifier == "" {
			p.loadErr = errors.New("face detection requires a cascade classifier file")
			return
		}
		d, err := face.Load(p.Classifier, p.FaceAngle)
		if err != nil {
			p.loadErr = err
			return
		}
		p.detector = d
	})
	return p.detector, p.loadErr
}

// targetSize computes the final image size from the processor options.
func (p *Processor) targetSize(width, height int) (int, int, error) {
	tw, th := p.NewWidth, p.NewHeight

	if p.Percentage {
		if tw < 0 || th < 0 {
			return 0, 0, errors.New("the percentage can not be negative")
		}
		if tw >= 100 || th >= 100 {
			return 0, 0, errors.New("cannot use the percentage flag for image enlargement")
		}
		tw = width - int(float64(width)*float64(p.NewWidth)/100)
		th = height - int(float64(height)*float64(p.NewHeight)/100)
	} else {
		if tw == 0 {
			tw = width
		}
		if th == 0 {
			th = height
		}
	}

	// When the square option is used the image is resized to a square based on the shortest edge.
	if p.Square {
		if p.NewWidth == 0 || p.NewHeight == 0 {
			return 0, 0, errors.New("please provide a new WIDTH and HEIGHT when using the square option")
		}
		tw = utils.Min(tw, th)
		th = tw
	}
	return tw, th, nil
}

// calculateFitness rescales the image by the smaller of the two scale factors,
// so the result covers the target size on both sides.
func calculateFitness(img image.Image, targetWidth, targetHeight int) *image.NRGBA {
	var (
		w = float64(img.Bounds().Dx())
		h = float64(img.Bounds().Dy())
	)
	f := math.Min(w/float64(targetWidth), h/float64(targetHeight))
	sw := int(math.Round(w / f))
	sh := int(math.Round(h / f))

	return imaging.Resize(img, utils.Max(sw, targetWidth), utils.Max(sh, targetHeight), imaging.Lanczos)
}

// Resize carves the image down to the size requested by the processor options.
func (p *Processor) Resize(src image.Image) (image.Image, error) {
	img := FromImage(src)

	tw, th, err := p.targetSize(img.Width, img.Height)
	if err != nil {
		return nil, err
	}
	if p.SeamMap != nil {
		if _, _, err := SeamGradient(p.SeamColor); err != nil {
			return nil, err
		}
	}

	log := p.logger()
	if p.Scale && tw < img.Width && th < img.Height {
		scaled := FromImage(calculateFitness(src, tw, th))
		if img.Channels == 1 {
			scaled.Pix = Luminance(scaled.Pix, scaled.Channels)
			scaled.Channels = 1
		}
		log.WithFields(logrus.Fields{
			"width":  scaled.Width,
			"height": scaled.Height,
		}).Debug("image rescaled")
		img = scaled
	}

	opts := &Options{
		Kernel:     p.Kernel,
		Energy:     p.Energy,
		BlurSigma:  p.BlurSigma,
		Logger:     log,
		TrackSeams: p.SeamMap != nil,
	}
	if p.FaceDetect {
		if opts.Detector, err = p.faceDetector(); err != nil {
			return nil, err
		}
	}

	c, err := NewCarver(img, tw, th, opts)
	if err != nil {
		return nil, err
	}
	res, err := c.Run()
	if err != nil {
		return nil, err
	}

	if p.SeamMap != nil {
		start, end, err := SeamGradient(p.SeamColor)
		if err != nil {
			return nil, err
		}
		if err := encodeImg(p.SeamMap, SeamMap(img.ToImage(), c.Seams(), start, end)); err != nil {
			return nil, errors.Wrap(err, "could not encode the seam map")
		}
	}
	return res.ToImage(), nil
}

// Process decodes the source image, carves it and encodes the result into w.
// Since the io package is used, any input and output type implementing
// io.Reader and io.Writer can be provided.
func (p *Processor) Process(r io.Reader, w io.Writer) error {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return errors.Wrap(err, "could not decode the source image")
	}

	res, err := p.Resize(src)
	if err != nil {
		return err
	}
	return errors.Wrap(encodeImg(w, res), "could not encode the image")
}
