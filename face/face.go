// Package face finds human faces on a grayscale pixel buffer with the pigo
// cascade classifier. The detected regions are handed to the seam carver,
// which raises their energy so that seams avoid them.
package face

import (
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
	"github.com/neor164/seam-carving/utils"
	"github.com/pkg/errors"
)

// Detector runs a face classification cascade over grayscale images.
type Detector struct {
	classifier *pigo.Pigo

	// Angle is the in-plane rotation of the faces, as a fraction of 2π (0 to 1).
	Angle float64
	// MinSize is the smallest face size in pixels.
	MinSize int
	// ShiftFactor moves the detection window by this fraction of its size.
	ShiftFactor float64
	// ScaleFactor grows the detection window between two passes.
	ScaleFactor float64
	// IoUThreshold merges detections overlapping more than this ratio.
	IoUThreshold float64
	// MinScore discards detections with a lower classifier score.
	MinScore float32
}

// NewDetector unpacks the binary cascade file.
func NewDetector(cascade []byte, angle float64) (*Detector, error) {
	// 8 bytes header, tree depth and tree count.
	if len(cascade) < 16 {
		return nil, errors.Errorf("invalid cascade file: %d bytes", len(cascade))
	}
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, errors.Wrap(err, "error unpacking the cascade file")
	}
	return &Detector{
		classifier:   classifier,
		Angle:        angle,
		MinSize:      100,
		ShiftFactor:  0.1,
		ScaleFactor:  1.1,
		IoUThreshold: 0.2,
		MinScore:     5.0,
	}, nil
}

// Load reads the cascade file from path.
func Load(path string, angle float64) (*Detector, error) {
	cascade, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not read the cascade file")
	}
	return NewDetector(cascade, angle)
}

// Detect returns the bounding boxes of the faces found on the grayscale buffer.
func (d *Detector) Detect(gray []uint8, width, height int) []image.Rectangle {
	params := pigo.CascadeParams{
		MinSize:     d.MinSize,
		MaxSize:     utils.Max(width, height),
		ShiftFactor: d.ShiftFactor,
		ScaleFactor: d.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: gray,
			Rows:   height,
			Cols:   width,
			Dim:    width,
		},
	}

	// The result contains quadruplets representing the row, column, scale and detection score.
	dets := d.classifier.RunCascade(params, d.Angle)
	dets = d.classifier.ClusterDetections(dets, d.IoUThreshold)

	var faces []image.Rectangle
	for _, det := range dets {
		if det.Q > d.MinScore {
			faces = append(faces, image.Rect(
				det.Col-det.Scale/2,
				det.Row-det.Scale/2,
				det.Col+det.Scale/2,
				det.Row+det.Scale/2,
			))
		}
	}
	return faces
}
