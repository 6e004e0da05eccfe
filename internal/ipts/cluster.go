package ipts

// Cluster is a connected set of samples drawn from a single frame,
// identified by its slot position within a ClusterSet rather than by
// pointer - per the arena-and-indices design, cluster identity is an
// array index so the previous/current toggle swap never copies data.
type Cluster struct {
	Members [MaxClusterSize]Sample
	Size    int

	// Centre is the weighted-centroid sub-cell position, set by
	// ComputeGeometry.
	Centre Point

	// Diameter is the pseudo-diameter size estimate, set by
	// ComputeGeometry.
	Diameter float64

	// BBox is the axis-aligned bounding box in device space, set by
	// ComputeGeometry.
	BBox Box

	// Valid is false for clusters kept only for diagnostic symmetry:
	// they do not emit contacts. Set by ComputeGeometry and possibly
	// cleared by the palm veto or overlap suppression.
	Valid bool

	// ID is the tracking identifier assigned by Tracker.Update. Zero
	// means unassigned this frame.
	ID int
}

// Point is a floating-point sub-cell device-space position.
type Point struct {
	X, Y float64
}

// Box is an axis-aligned device-space bounding box.
type Box struct {
	X1, Y1, X2, Y2 float64
}

// Area returns the box's area; zero for a degenerate (zero-size) box.
func (b Box) Area() float64 {
	return (b.X2 - b.X1) * (b.Y2 - b.Y1)
}

// reset clears a cluster for reuse without reallocating its Members array.
func (c *Cluster) reset() {
	c.Size = 0
	c.Centre = Point{}
	c.Diameter = 0
	c.BBox = Box{}
	c.Valid = false
	c.ID = 0
}

// has reports whether (x, y) is already a member of this cluster. This is
// a per-cluster membership test, not a global claimed-bitmap: the same
// sample may be visited by more than one cluster's flood fill, and that
// is intentional (see flood in segment.go).
func (c *Cluster) has(x, y int) bool {
	for i := 0; i < c.Size; i++ {
		if int(c.Members[i].X) == x && int(c.Members[i].Y) == y {
			return true
		}
	}

	return false
}

func (c *Cluster) add(s Sample) {
	c.Members[c.Size] = s
	c.Size++
}

// ClusterSet is a fixed-capacity array of clusters for one frame. Both the
// current and previous sets a Pipeline holds are values of this type;
// Reset zero-initialises it in place, so the same backing array is reused
// every frame with no per-frame allocation.
type ClusterSet struct {
	Clusters [MaxClusters]Cluster
	Count    int
}

// Reset clears the set for reuse at the start of a new frame.
func (cs *ClusterSet) Reset() {
	for i := 0; i < cs.Count; i++ {
		cs.Clusters[i].reset()
	}
	cs.Count = 0
}

// next allocates the next free cluster slot, or returns nil if
// MaxClusters has already been used this frame.
func (cs *ClusterSet) next() *Cluster {
	if cs.Count >= MaxClusters {
		return nil
	}

	var c = &cs.Clusters[cs.Count]
	cs.Count++

	return c
}
