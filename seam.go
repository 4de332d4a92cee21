package seamcarving

import "image"

// Seam holds one cell index (y*width + x) for every scanned line.
type Seam []int

// Points converts the seam cell indices to image coordinates.
func (s Seam) Points(width int) []image.Point {
	points := make([]image.Point, len(s))
	for i, idx := range s {
		points[i] = image.Point{X: idx % width, Y: idx / width}
	}
	return points
}

// FindSeam walks the cost table from the first line to the last one and
// returns the cheapest connected path. On the first line the lowest cost
// wins, the leftmost (topmost) one on ties. On every following line the
// candidates are checked in the order: same position, previous, next,
// and a candidate replaces the current pick only when it is strictly cheaper.
func FindSeam(cost []float32, width, height int, dir Direction) Seam {
	outer, inner, offset, stride := dir.layout(width, height)
	if outer == 0 || inner == 0 {
		return nil
	}

	pos := 0
	for i := 1; i < inner; i++ {
		if cost[i*offset] < cost[pos*offset] {
			pos = i
		}
	}
	seam := make(Seam, 0, outer)
	seam = append(seam, pos*offset)

	for line := 1; line < outer; line++ {
		base := line * stride
		next := pos
		if pos > 0 && cost[base+(pos-1)*offset] < cost[base+next*offset] {
			next = pos - 1
		}
		if pos < inner-1 && cost[base+(pos+1)*offset] < cost[base+next*offset] {
			next = pos + 1
		}
		pos = next
		seam = append(seam, base+pos*offset)
	}
	return seam
}
