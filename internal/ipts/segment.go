package ipts

// neighbourOffsets are the eight 8-connected neighbour deltas, in no
// particular order - the admission rule does not depend on visit order
// within a single threshold step.
var neighbourOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// isSeed reports whether (x, y) is a local maximum: non-zero and not
// strictly dimmer than any in-bounds 8-neighbour. The comparison is
// strict (<), not <=, so a plateau of equal-valued cells produces
// multiple adjacent seeds - see SPEC_FULL.md section 4.3 and spec.md section 9(c) for
// why this is preserved rather than "fixed".
func isSeed(g *Grid, x, y int) bool {
	var v = g.At(x, y).Value
	if v == 0 {
		return false
	}

	for _, d := range neighbourOffsets {
		var nx, ny = x + d[0], y + d[1]
		if !inBounds(nx, ny) {
			continue
		}

		if v < g.At(nx, ny).Value {
			return false
		}
	}

	return true
}

// floodWorkItem is one pending (coordinate, threshold) step on the
// explicit flood-fill work-stack. An explicit stack bounded by
// MaxClusterSize is used in place of the original's recursion; the
// behavioural contract is the per-neighbour admission rule below, not the
// call shape (spec.md section 9).
type floodWorkItem struct {
	x, y      int
	threshold uint8
}

// floodStackCapacity bounds floodStack: one push for the seed, plus up to
// 8 neighbour pushes for each of the at most MaxClusterSize samples a
// single flood can admit. Rejected items are popped without pushing
// anything, so this is the true worst-case high-water mark, not a
// heuristic guess.
const floodStackCapacity = 1 + 8*MaxClusterSize

// floodStack is flood's work-stack, backed by a fixed-size array so it
// never allocates. Reused across every seed and every frame - reset, not
// reallocated - per the allocate-once-reuse discipline the rest of the
// segmenter/tracker path follows (spec.md section 5/9).
type floodStack struct {
	items [floodStackCapacity]floodWorkItem
	n     int
}

func (s *floodStack) reset() { s.n = 0 }

func (s *floodStack) push(item floodWorkItem) {
	s.items[s.n] = item
	s.n++
}

func (s *floodStack) pop() floodWorkItem {
	s.n--
	return s.items[s.n]
}

func (s *floodStack) empty() bool { return s.n == 0 }

// flood grows cluster from seed (x, y) using threshold as the initial
// admission ceiling, descending monotonically: each admitted sample's own
// value becomes the threshold for its neighbours. A sample already
// admitted to this cluster, with value zero, or brighter than the current
// threshold, is not (re-)admitted. This is the dimmer-monotone flood fill
// of spec.md section 4.4, preserved exactly: changing the per-cluster
// membership test to a global claimed-bitmap produces different clusters
// on plateaus and would be a design change, not a refactor. stack is
// reset on entry and owned by the caller, so a single caller-held buffer
// serves every seed in a frame without reallocating.
func flood(g *Grid, x, y int, threshold uint8, cluster *Cluster, stack *floodStack) {
	stack.reset()
	stack.push(floodWorkItem{x: x, y: y, threshold: threshold})

	for !stack.empty() {
		var item = stack.pop()

		if cluster.Size >= MaxClusterSize {
			return
		}

		if cluster.has(item.x, item.y) {
			continue
		}

		var s = g.At(item.x, item.y)
		if s.Value == 0 {
			continue
		}

		if s.Value > item.threshold {
			continue
		}

		cluster.add(s)

		for _, d := range neighbourOffsets {
			var nx, ny = item.x + d[0], item.y + d[1]
			if !inBounds(nx, ny) {
				continue
			}

			stack.push(floodWorkItem{x: nx, y: ny, threshold: s.Value})
		}
	}
}

// Segment seeds at every local maximum in scan order and flood-fills each
// seed into a cluster in cs, stopping once MaxClusters slots are used. cs
// must already have been reset by the caller for this frame. stack is
// scratch space for flood, owned and reused by the caller across frames -
// see floodStack.
func Segment(g *Grid, cs *ClusterSet, stack *floodStack) {
	for y := 0; y < H; y++ {
		for x := 0; x < W; x++ {
			if !isSeed(g, x, y) {
				continue
			}

			var cluster = cs.next()
			if cluster == nil {
				return
			}

			flood(g, x, y, g.At(x, y).Value, cluster, stack)
		}
	}
}
