package ipts

// Sample is a single heatmap grid cell: its coordinates and an 8-bit
// intensity value. Zero means empty; larger means more likely a contact.
// Produced fresh each frame by Normalise and never mutated afterwards.
type Sample struct {
	X, Y  uint8
	Value uint8
}

// Grid is the normalised W*H sample field for one frame, stored row-major
// (index = y*W + x) to match the flood fill's neighbour access pattern.
type Grid struct {
	cells [W * H]Sample
}

// At returns the sample at (x, y). The caller must ensure the coordinates
// are in bounds; Grid is an internal hot-path type and does not re-check
// bounds its callers have already validated.
func (g *Grid) At(x, y int) Sample {
	return g.cells[y*W+x]
}

func (g *Grid) set(x, y int, value uint8) {
	g.cells[y*W+x] = Sample{X: uint8(x), Y: uint8(y), Value: value}
}

// inBounds reports whether (x, y) lies within the fixed WxH grid.
func inBounds(x, y int) bool {
	return x >= 0 && x < W && y >= 0 && y < H
}
