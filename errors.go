package seamcarving

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidTargetSize is returned when the requested size would enlarge the image.
	ErrInvalidTargetSize = errors.New("target size exceeds the source image")

	// ErrUnsupportedChannels is returned for pixel buffers which are neither gray nor RGB.
	ErrUnsupportedChannels = errors.New("unsupported channel layout")

	// ErrFaceDistortion is returned when a protected region does not fit into the target size.
	ErrFaceDistortion = errors.New("cannot resize the image without distorting a protected region")
)

// SizeError describes a rejected target size.
type SizeError struct {
	Width, Height             int
	TargetWidth, TargetHeight int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("%v: %dx%d requested for a %dx%d image",
		ErrInvalidTargetSize, e.TargetWidth, e.TargetHeight, e.Width, e.Height)
}

func (e *SizeError) Unwrap() error { return ErrInvalidTargetSize }

// LayoutError describes a buffer whose length or channel count does not match its dimensions.
type LayoutError struct {
	Channels int
	Len      int
	Reason   string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("%v: %s (channels=%d, len=%d)", ErrUnsupportedChannels, e.Reason, e.Channels, e.Len)
}

func (e *LayoutError) Unwrap() error { return ErrUnsupportedChannels }
