package seamcarving

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Image is a decoded, row-major pixel buffer with one byte per channel.
// Channels is 1 for grayscale and 3 for RGB images.
type Image struct {
	Pix      []uint8
	Width    int
	Height   int
	Channels int
}

func (img *Image) validate() error {
	if img == nil {
		return errors.WithStack(&LayoutError{Reason: "missing image"})
	}
	if img.Channels != 1 && img.Channels != 3 {
		return errors.WithStack(&LayoutError{
			Channels: img.Channels,
			Len:      len(img.Pix),
			Reason:   "only gray and RGB images are supported",
		})
	}
	if img.Width < 0 || img.Height < 0 || len(img.Pix) != img.Width*img.Height*img.Channels {
		return errors.WithStack(&LayoutError{
			Channels: img.Channels,
			Len:      len(img.Pix),
			Reason:   fmt.Sprintf("buffer does not match a %dx%d image", img.Width, img.Height),
		})
	}
	return nil
}

// FromImage converts any image to an Image. Gray images keep a single
// channel, everything else is converted to RGB and the alpha is dropped.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	width, height := b.Dx(), b.Dy()

	if gray, ok := src.(*image.Gray); ok {
		img := &Image{
			Pix:      make([]uint8, width*height),
			Width:    width,
			Height:   height,
			Channels: 1,
		}
		for y := 0; y < height; y++ {
			off := gray.PixOffset(b.Min.X, b.Min.Y+y)
			copy(img.Pix[y*width:(y+1)*width], gray.Pix[off:off+width])
		}
		return img
	}

	nrgba := imaging.Clone(src)
	img := &Image{
		Pix:      make([]uint8, 0, width*height*3),
		Width:    width,
		Height:   height,
		Channels: 3,
	}
	for i := 0; i < len(nrgba.Pix); i += 4 {
		img.Pix = append(img.Pix, nrgba.Pix[i], nrgba.Pix[i+1], nrgba.Pix[i+2])
	}
	return img
}

// ToImage converts the buffer back to *image.Gray or to an opaque *image.NRGBA.
func (img *Image) ToImage() image.Image {
	rect := image.Rect(0, 0, img.Width, img.Height)
	if img.Channels == 1 {
		dst := image.NewGray(rect)
		copy(dst.Pix, img.Pix)
		return dst
	}

	dst := image.NewNRGBA(rect)
	for i, j := 0, 0; i < len(img.Pix); i, j = i+img.Channels, j+4 {
		dst.Pix[j+0] = img.Pix[i+0]
		dst.Pix[j+1] = img.Pix[i+1]
		dst.Pix[j+2] = img.Pix[i+2]
		dst.Pix[j+3] = 0xff
	}
	return dst
}

// Luminance converts the pixel buffer to a single channel intensity buffer
// using the ITU-R BT.601 weights.
func Luminance(pix []uint8, channels int) []uint8 {
	if channels == 1 {
		return append([]uint8(nil), pix...)
	}
	gray := make([]uint8, len(pix)/channels)
	for i := range gray {
		r, g, b := pix[i*channels], pix[i*channels+1], pix[i*channels+2]
		gray[i] = uint8(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b) + 0.5)
	}
	return gray
}

// blurGray smooths an intensity buffer with a gaussian filter.
func blurGray(gray []uint8, width, height int, sigma float64) []uint8 {
	src := &image.Gray{
		Pix:    gray,
		Stride: width,
		Rect:   image.Rect(0, 0, width, height),
	}
	blurred := imaging.Blur(src, sigma)

	dst := make([]uint8, len(gray))
	for i := range dst {
		dst[i] = blurred.Pix[i*4]
	}
	return dst
}

// encodeImg encodes an image to a destination of type io.Writer.
// The format of a destination file is chosen by its extension,
// any other writer receives a JPEG stream.
func encodeImg(w io.Writer, img image.Image) error {
	f, ok := w.(*os.File)
	if !ok {
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(100))
	}

	switch ext := strings.ToLower(filepath.Ext(f.Name())); ext {
	case "", ".jpg", ".jpeg":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(100))
	case ".png":
		return imaging.Encode(w, img, imaging.PNG)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".gif":
		return imaging.Encode(w, img, imaging.GIF)
	case ".tif", ".tiff":
		return imaging.Encode(w, img, imaging.TIFF)
	default:
		return errors.Errorf("unsupported image format %q", ext)
	}
}
