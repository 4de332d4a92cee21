package seamcarving

// Direction selects the axis which is scanned line by line when looking for a seam.
type Direction int

const (
	// RowAxis removes one pixel from every row (a vertical seam), shrinking the width.
	RowAxis Direction = iota
	// ColumnAxis removes one pixel from every column (a horizontal seam), shrinking the height.
	ColumnAxis
)

func (d Direction) String() string {
	if d == ColumnAxis {
		return "column"
	}
	return "row"
}

// layout describes a row-major width x height grid from the point of view of
// the scanning direction: the number of lines, the cells on each line, the
// index step between neighbouring cells of a line and between two lines.
func (d Direction) layout(width, height int) (outer, inner, offset, stride int) {
	if d == ColumnAxis {
		return width, height, width, 1
	}
	return height, width, 1, width
}

// CostMatrix computes the cumulative minimum energy table. The last line
// (last row for RowAxis, last column for ColumnAxis) is a copy of the energy,
// every other cell holds its own energy plus the cheapest of its (up to three)
// connected neighbours on the following line.
func CostMatrix(energy []float32, width, height int, dir Direction) []float32 {
	cost := make([]float32, len(energy))
	outer, inner, offset, stride := dir.layout(width, height)
	if outer == 0 || inner == 0 {
		return cost
	}

	last := (outer - 1) * stride
	for i := 0; i < inner; i++ {
		idx := last + i*offset
		cost[idx] = energy[idx]
	}

	for line := outer - 2; line >= 0; line-- {
		for i := 0; i < inner; i++ {
			idx := line*stride + i*offset
			next := idx + stride

			best := cost[next]
			if i > 0 && cost[next-offset] < best {
				best = cost[next-offset]
			}
			if i < inner-1 && cost[next+offset] < best {
				best = cost[next+offset]
			}
			cost[idx] = energy[idx] + best
		}
	}
	return cost
}
