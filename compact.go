package seamcarving

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Sample is the element type of the buffers a seam can be removed from.
type Sample interface {
	~uint8 | ~int32 | ~float32
}

// RemoveSeam deletes the cells listed in seam from a row-major buffer holding
// channels samples per cell and width cells per row. The buffer is compacted
// in place and returned shortened by len(seam)*channels samples; the order of
// the remaining samples is preserved. The seam must hold exactly one cell on
// every line it crosses: every row for RowAxis, every column for ColumnAxis.
func RemoveSeam[T Sample](buf []T, seam Seam, channels int, dir Direction, width int) ([]T, error) {
	if channels < 1 || width < 1 {
		return nil, errors.WithStack(&LayoutError{
			Channels: channels,
			Len:      len(buf),
			Reason:   fmt.Sprintf("invalid row width %d", width),
		})
	}
	if len(buf)%(width*channels) != 0 {
		return nil, errors.WithStack(&LayoutError{
			Channels: channels,
			Len:      len(buf),
			Reason:   fmt.Sprintf("buffer is not made of %d cell wide rows", width),
		})
	}

	cells := len(buf) / channels
	lines := width
	if dir == RowAxis {
		lines = cells / width
	}
	if len(seam) != lines {
		return nil, errors.WithStack(&LayoutError{
			Channels: channels,
			Len:      len(buf),
			Reason:   fmt.Sprintf("seam has %d cells, want one for each of %d lines", len(seam), lines),
		})
	}

	if lines == 0 {
		return buf, nil
	}

	seen := make([]bool, lines)
	for _, idx := range seam {
		if idx < 0 || idx >= cells {
			return nil, errors.WithStack(&LayoutError{
				Channels: channels,
				Len:      len(buf),
				Reason:   fmt.Sprintf("seam index %d outside of %d cells", idx, cells),
			})
		}
		line := idx % width
		if dir == RowAxis {
			line = idx / width
		}
		if seen[line] {
			return nil, errors.WithStack(&LayoutError{
				Channels: channels,
				Len:      len(buf),
				Reason:   fmt.Sprintf("seam crosses line %d more than once", line),
			})
		}
		seen[line] = true
	}

	if dir == ColumnAxis {
		return removeColumnSeam(buf, seam, channels, width), nil
	}
	return removeRowSeam(buf, seam, channels), nil
}

// removeRowSeam shifts every sample left by the number of removed cells
// preceding it, in a single sweep starting at the lowest seam index.
func removeRowSeam[T Sample](buf []T, seam Seam, channels int) []T {
	path := append(Seam(nil), seam...)
	sort.Ints(path)

	newLen := len(buf) - len(path)*channels
	idx := path[0] * channels
	shift := channels
	for _, next := range path[1:] {
		next *= channels
		copy(buf[idx:next-shift], buf[idx+shift:next])
		idx = next - shift
		shift += channels
	}
	copy(buf[idx:newLen], buf[idx+shift:])

	return buf[:newLen]
}

// removeColumnSeam moves the tail of each seam cell's column one row up.
// Every seam cell lives in its own column, so the order does not matter.
func removeColumnSeam[T Sample](buf []T, seam Seam, channels, width int) []T {
	rowLen := width * channels
	for _, idx := range seam {
		for i := idx * channels; i+rowLen < len(buf); i += rowLen {
			copy(buf[i:i+channels], buf[i+rowLen:i+rowLen+channels])
		}
	}
	return buf[:len(buf)-len(seam)*channels]
}
