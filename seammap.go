package seamcarving

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blend"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// DefaultSeamColor is the color of the first removed seam on a seam map.
const DefaultSeamColor = "#ff0000"

// SeamGradient parses a hex color and returns it together with the color
// of the last removed seam, 60° further on the HCL hue circle.
func SeamGradient(hex string) (start, end colorful.Color, err error) {
	if hex == "" {
		hex = DefaultSeamColor
	}
	start, err = colorful.Hex(hex)
	if err != nil {
		return start, end, errors.Wrapf(err, "invalid seam color %q", hex)
	}
	h, c, l := start.Hcl()
	end = colorful.Hcl(math.Mod(h+60, 360), c, l).Clamped()
	return start, end, nil
}

// SeamMap draws the removed seams over the source image they were removed
// from. The seams are colored in removal order from start to end.
func SeamMap(src image.Image, seams []Seam, start, end colorful.Color) *image.RGBA {
	bg := imaging.Clone(src)
	width := bg.Bounds().Dx()

	overlay := image.NewNRGBA(bg.Bounds())
	for i, seam := range seams {
		t := 0.0
		if len(seams) > 1 {
			t = float64(i) / float64(len(seams)-1)
		}
		r, g, b := start.BlendHcl(end, t).Clamped().RGB255()
		for _, p := range seam.Points(width) {
			overlay.SetNRGBA(p.X, p.Y, color.NRGBA{R: r, G: g, B: b, A: 0xff})
		}
	}
	return blend.Normal(bg, overlay)
}
