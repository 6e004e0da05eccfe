package ipts

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queueSource is a FrameSource test double yielding a fixed sequence of
// already-built transport buffers, one per Step call.
type queueSource struct {
	frames [][]byte
	i      int
}

func (q *queueSource) ReadFrame(buf []byte) error {
	copy(buf, q.frames[q.i])
	q.i++
	return nil
}

func (q *queueSource) Close() error { return nil }

// rawFromGridValues builds a raw W*H heatmap payload whose Normalise
// output matches values: background cells read back as zero, and each
// (x, y) key in values reads back as its given grid-space intensity.
func rawFromGridValues(values map[[2]int]uint8) []byte {
	var raw = make([]byte, heatmapPayloadBytes)
	for i := range raw {
		raw[i] = 0xFF // -> grid value 0 after Normalise's invert+bias+clamp.
	}

	for key, v := range values {
		var x, y = key[0], key[1]
		var sx, sy = W - 1 - x, H - 1 - y
		raw[sy*W+sx] = byte(155 - int(v)) // inverse of 255 - raw - Bias.
	}

	return raw
}

// addPlusBlob writes a five-cell local maximum (a center cell and its four
// orthogonal neighbours) into values, grounded on the flood fill's
// dimmer-monotone admission rule: peak strictly brighter than ring
// guarantees exactly one seed and one cluster per blob.
func addPlusBlob(values map[[2]int]uint8, cx, cy int, peak, ring uint8) {
	values[[2]int{cx, cy}] = peak
	values[[2]int{cx - 1, cy}] = ring
	values[[2]int{cx + 1, cy}] = ring
	values[[2]int{cx, cy - 1}] = ring
	values[[2]int{cx, cy + 1}] = ring
}

// buildHeatmapTransport wraps a raw heatmap payload into a full transport buffer
// (HID outer header, one raw frame, one report) and pads it to
// TransportSize; the padding is never visited, since every header's
// declared size accounts exactly for the bytes that precede it.
func buildHeatmapTransport(raw []byte) []byte {
	var report = buildReport(reportTypeHeatmap, raw)
	var frame = buildRawFrame(rawFrameTypeHeatmap, report)
	var transport = buildTransport(hidOuterType, frame)

	var padded = make([]byte, TransportSize)
	copy(padded, transport)
	return padded
}

func newTestPipeline(sink Sink, transports ...[]byte) *Pipeline {
	var source = &queueSource{frames: transports}
	return NewPipeline(source, sink)
}

func TestPipeline_EmptyHeatmapEmitsAllSlotsUpAndSync(t *testing.T) {
	var transport = buildHeatmapTransport(rawFromGridValues(nil))

	var sink RecordingSink
	var p = newTestPipeline(&sink, transport)

	require.NoError(t, p.Step())

	for slot := 0; slot < MatchSlots; slot++ {
		assert.Contains(t, sink.Events, slotIDEvent(slot, -1))
	}
	assert.Contains(t, sink.Events, "touch-up")
	assert.Equal(t, "sync", sink.Events[len(sink.Events)-1])
}

func TestPipeline_SingleBlobEmitsSlotZeroAndSingleTouch(t *testing.T) {
	var values = map[[2]int]uint8{}
	addPlusBlob(values, 30, 20, 150, 50)
	var transport = buildHeatmapTransport(rawFromGridValues(values))

	var sink RecordingSink
	var p = newTestPipeline(&sink, transport)

	require.NoError(t, p.Step())

	assert.Contains(t, sink.Events, slotIDEvent(0, 1))
	assert.NotContains(t, sink.Events, "touch-up")

	var sawSingleDown = false
	for _, e := range sink.Events {
		if e == "single pos=(488.00,328.00) down=true" {
			sawSingleDown = true
		}
	}
	assert.True(t, sawSingleDown, "events: %v", sink.Events)
}

func TestPipeline_TwoSeparatedBlobsPersistIDsAcrossFrames(t *testing.T) {
	var values = map[[2]int]uint8{}
	addPlusBlob(values, 10, 10, 150, 50)
	addPlusBlob(values, 50, 30, 150, 50)
	var transport = buildHeatmapTransport(rawFromGridValues(values))

	var sink RecordingSink
	var p = newTestPipeline(&sink, transport, transport)

	require.NoError(t, p.Step())
	var firstIDs = collectSlotIDs(sink.Events)
	sink.Events = nil

	require.NoError(t, p.Step())
	var secondIDs = collectSlotIDs(sink.Events)

	assert.Equal(t, firstIDs, secondIDs)
	assert.Contains(t, firstIDs, 1)
	assert.Contains(t, firstIDs, 2)
}

func TestPipeline_OverlappingBlobsSuppressTheSmaller(t *testing.T) {
	var values = map[[2]int]uint8{}
	addPlusBlob(values, 20, 20, 255, 150) // large: weight 855, diameter 8.55
	addPlusBlob(values, 24, 20, 100, 50)  // small: weight 300, diameter 3.0, bbox over half inside the large one's
	var transport = buildHeatmapTransport(rawFromGridValues(values))

	var sink RecordingSink
	var p = newTestPipeline(&sink, transport)

	require.NoError(t, p.Step())

	assert.Contains(t, sink.Events, slotIDEvent(0, 1))
	for slot := 1; slot < MatchSlots; slot++ {
		assert.Contains(t, sink.Events, slotIDEvent(slot, -1))
	}
}

func TestPipeline_PalmEventVetoesWholeFrame(t *testing.T) {
	var values = map[[2]int]uint8{}
	// A 3x3 giant contact: weight 1655, diameter 16.55, well past DiameterPalm.
	values[[2]int{20, 20}] = 255
	values[[2]int{19, 20}] = 200
	values[[2]int{21, 20}] = 200
	values[[2]int{20, 19}] = 200
	values[[2]int{20, 21}] = 200
	values[[2]int{19, 19}] = 150
	values[[2]int{21, 19}] = 150
	values[[2]int{19, 21}] = 150
	values[[2]int{21, 21}] = 150

	// An otherwise-ordinary contact elsewhere in the same frame.
	addPlusBlob(values, 50, 30, 150, 50)

	var transport = buildHeatmapTransport(rawFromGridValues(values))

	var sink RecordingSink
	var p = newTestPipeline(&sink, transport)

	require.NoError(t, p.Step())

	for slot := 0; slot < MatchSlots; slot++ {
		assert.Contains(t, sink.Events, slotIDEvent(slot, -1))
	}
	assert.Contains(t, sink.Events, "touch-up")
}

// TestPipeline_RecyclesLowestFreeID exercises spec.md section 8's ID
// recycling scenario end to end: three contacts, the last-created of
// which then lifts cleanly (it is processed last by Tracker.Update, after
// both survivors have already claimed their own unambiguous matches, so
// it is orphaned rather than stealing another contact's slot); a new
// fourth contact then reuses the freed ID instead of counting past it.
func TestPipeline_RecyclesLowestFreeID(t *testing.T) {
	var frame1 = map[[2]int]uint8{}
	addPlusBlob(frame1, 10, 5, 150, 50)  // found first in scan order: id 1
	addPlusBlob(frame1, 50, 5, 150, 50)  // found second: id 2
	addPlusBlob(frame1, 25, 30, 150, 50) // found last: id 3

	var frame2 = map[[2]int]uint8{}
	addPlusBlob(frame2, 10, 5, 150, 50) // id 1 survives
	addPlusBlob(frame2, 50, 5, 150, 50) // id 2 survives
	// the id-3 contact has lifted: no blob near (25, 30) this frame.

	var frame3 = map[[2]int]uint8{}
	addPlusBlob(frame3, 10, 5, 150, 50)  // id 1 survives
	addPlusBlob(frame3, 50, 5, 150, 50)  // id 2 survives
	addPlusBlob(frame3, 30, 10, 150, 50) // a brand new contact

	var sink RecordingSink
	var p = newTestPipeline(&sink,
		buildHeatmapTransport(rawFromGridValues(frame1)),
		buildHeatmapTransport(rawFromGridValues(frame2)),
		buildHeatmapTransport(rawFromGridValues(frame3)),
	)

	require.NoError(t, p.Step())
	require.ElementsMatch(t, []int{1, 2, 3}, collectSlotIDs(sink.Events))
	sink.Events = nil

	require.NoError(t, p.Step())
	require.ElementsMatch(t, []int{1, 2}, collectSlotIDs(sink.Events))
	sink.Events = nil

	require.NoError(t, p.Step())
	// ID 3 (freed when the third contact lifted) is reused by the new
	// contact rather than a fresh, never-before-used ID being minted.
	assert.ElementsMatch(t, []int{1, 2, 3}, collectSlotIDs(sink.Events))
}

func slotIDEvent(slot, trackingID int) string {
	var e RecordingSink
	e.SlotTrackingID(slot, trackingID)
	return e.Events[0]
}

// collectSlotIDs extracts every positive tracking ID reported across a
// frame's "slot=N id=M" events.
func collectSlotIDs(events []string) []int {
	var ids []int
	for _, e := range events {
		var rest, ok = strings.CutPrefix(e, "slot=")
		if !ok {
			continue
		}

		var idPart, hasID = splitAfterID(rest)
		if !hasID {
			continue
		}

		var id, err = strconv.Atoi(idPart)
		if err != nil || id <= 0 {
			continue
		}

		ids = append(ids, id)
	}
	return ids
}

func splitAfterID(s string) (string, bool) {
	var idx = strings.Index(s, "id=")
	if idx < 0 {
		return "", false
	}
	return s[idx+len("id="):], true
}
