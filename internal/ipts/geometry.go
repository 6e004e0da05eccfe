package ipts

// ComputeGeometry fills in Centre, Diameter, BBox and Valid for every
// cluster in cs, then applies the giant-contact palm veto and the
// pairwise overlap suppression, in that order - both single-shot passes
// over the frame's clusters.
func ComputeGeometry(cs *ClusterSet) {
	for i := 0; i < cs.Count; i++ {
		computeOne(&cs.Clusters[i])
	}

	applyPalmVeto(cs)
	applyOverlapSuppression(cs)
}

func computeOne(c *Cluster) {
	var weightedX, weightedY, totalWeight float64

	for i := 0; i < c.Size; i++ {
		var m = c.Members[i]
		var v = float64(m.Value)

		weightedX += float64(m.X) * v
		weightedY += float64(m.Y) * v
		totalWeight += v
	}

	if totalWeight == 0 {
		c.Valid = false
		return
	}

	c.Centre = Point{
		X: weightedX/totalWeight + 0.5,
		Y: weightedY/totalWeight + 0.5,
	}
	c.Diameter = totalWeight / 100

	var half = c.Diameter / 2
	c.BBox = Box{
		X1: c.Centre.X - half,
		Y1: c.Centre.Y - half,
		X2: c.Centre.X + half,
		Y2: c.Centre.Y + half,
	}

	c.Valid = c.Diameter > DiameterValid
}

// applyPalmVeto invalidates every cluster in the frame if any one of them
// has a diameter above DiameterPalm. A flat hand produces one huge blob
// rather than a clean finger, so the whole frame is discarded. Applying
// the veto a second time is a no-op: once every cluster is invalid, no
// diameter check can re-trigger it.
func applyPalmVeto(cs *ClusterSet) {
	var giant = false

	for i := 0; i < cs.Count; i++ {
		if cs.Clusters[i].Diameter > DiameterPalm {
			giant = true
			break
		}
	}

	if !giant {
		return
	}

	for i := 0; i < cs.Count; i++ {
		cs.Clusters[i].Valid = false
	}
}

// applyOverlapSuppression walks every ordered pair (i, j), i < j, of
// currently-valid clusters and invalidates the smaller-area one of the
// pair when their intersection exceeds OverlapRatio of the smaller box's
// area. The ratio is computed against the smaller box, and the smaller
// box is also the one invalidated - this asymmetry is intentional and
// preserved literally (spec.md section 9(a)): overlapping small blobs are
// usually satellites of a larger contact. The pass is single-shot: later
// pairs see earlier invalidations.
func applyOverlapSuppression(cs *ClusterSet) {
	for i := 0; i < cs.Count; i++ {
		for j := i + 1; j < cs.Count; j++ {
			var a, b = &cs.Clusters[i], &cs.Clusters[j]
			if !a.Valid || !b.Valid {
				continue
			}

			var intersection = intersectionArea(a.BBox, b.BBox)

			var areaA, areaB = a.BBox.Area(), b.BBox.Area()
			var smaller = a
			var small = areaA

			if areaB < areaA {
				smaller = b
				small = areaB
			}

			if small <= 0 {
				continue
			}

			if intersection/small > OverlapRatio {
				smaller.Valid = false
			}
		}
	}
}

func intersectionArea(a, b Box) float64 {
	var ix = min(a.X2, b.X2) - max(a.X1, b.X1)
	var iy = min(a.Y2, b.Y2) - max(a.Y1, b.Y1)

	if ix < 0 {
		ix = 0
	}
	if iy < 0 {
		iy = 0
	}

	return ix * iy
}
