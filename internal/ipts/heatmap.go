package ipts

// Normalise converts a raw W*H byte heatmap payload into the grid the
// segmenter operates on: both axes mirrored, intensity inverted (the
// device reports lower values as more contact), background subtracted by
// Bias, clamped at zero.
//
// raw must contain exactly W*H bytes. The grid is written whole; no cell
// is read before it is written this call, so g may be reused across
// frames without zeroing.
func Normalise(raw []byte, g *Grid) {
	for y := 0; y < H; y++ {
		for x := 0; x < W; x++ {
			var sx = W - 1 - x
			var sy = H - 1 - y

			var v = int(raw[sy*W+sx])
			v = 255 - v - Bias
			if v < 0 {
				v = 0
			}

			g.set(x, y, uint8(v))
		}
	}
}
