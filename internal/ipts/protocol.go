package ipts

import "encoding/binary"

// cursor is a bounds-checked little-endian read head over a transport
// buffer. Every advance first checks that the requested size fits in
// what remains; a header whose declared size would run past the end of
// the buffer turns into ErrMalformedFrame rather than a slice panic.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *cursor) take(n int) ([]byte, bool) {
	if n < 0 || n > c.remaining() {
		return nil, false
	}

	var s = c.buf[c.pos : c.pos+n]
	c.pos += n

	return s, true
}

func (c *cursor) skip(n int) bool {
	_, ok := c.take(n)
	return ok
}

func (c *cursor) u8() (uint8, bool) {
	b, ok := c.take(1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

func (c *cursor) u16() (uint16, bool) {
	b, ok := c.take(2)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b), true
}

func (c *cursor) u32() (uint32, bool) {
	b, ok := c.take(4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

// StylusReport is the decoded body of an IPTS report 0x60: an 8-byte
// fixed preamble followed by Elements 16-byte records. Dispatch of
// individual stylus elements to a host input subsystem is out of scope
// for this driver; the report is fully decoded so a caller could dispatch
// it without re-parsing.
type StylusReport struct {
	Preamble []byte // 8 bytes, opaque to this decoder.
	Elements [][]byte
}

// DecodeResult is what one transport buffer yielded: at most one heatmap
// payload and at most one stylus report, per the "recognised report type,
// advance by its declared size" gate rule of spec.md section 4.1. A real
// IPTS frame carries at most one of each in practice; the decoder does
// not special-case a second occurrence beyond the last one written.
type DecodeResult struct {
	Heatmap    []byte // exactly W*H bytes when HasHeatmap is true.
	HasHeatmap bool
	Stylus     *StylusReport
}

// Decoder walks the nested HID / raw / frame / report header layout of an
// IPTS transport buffer and locates the heatmap (0x25) and stylus (0x60)
// report payloads within it. It carries no state between calls; Decode is
// safe to call with a fresh or reused DecodeResult.
type Decoder struct{}

// Decode parses one TransportSize-byte buffer. On success it reports
// which report types were found; the Heatmap slice, if present, aliases
// buf and must not be retained past the next Decode call on the same
// backing buffer. On ErrMalformedFrame the caller should drop this buffer
// and continue with the next read - no partial state is left in result.
func (d *Decoder) Decode(buf []byte, result *DecodeResult) error {
	result.Heatmap = nil
	result.HasHeatmap = false
	result.Stylus = nil

	var c = cursor{buf: buf}

	// HID outer header: report(1) + timestamp(2) + size(4) + reserved(1) + type(1) + reserved(1) = 10 bytes.
	if !c.skip(1) { // report
		return ErrMalformedFrame
	}
	if !c.skip(2) { // timestamp
		return ErrMalformedFrame
	}
	if !c.skip(4) { // size
		return ErrMalformedFrame
	}
	if !c.skip(1) { // reserved1
		return ErrMalformedFrame
	}

	hidType, ok := c.u8()
	if !ok {
		return ErrMalformedFrame
	}

	if !c.skip(1) { // reserved2
		return ErrMalformedFrame
	}

	if hidType != hidOuterType {
		// Not an error: a non-0xEE frame is silently discarded per
		// spec.md section 4.1, but there is nothing further to parse.
		return nil
	}

	// Raw header: counter(4) + frames(4) + reserved(4) = 12 bytes.
	if !c.skip(4) { // counter
		return ErrMalformedFrame
	}

	frames, ok := c.u32()
	if !ok {
		return ErrMalformedFrame
	}

	if !c.skip(4) { // reserved
		return ErrMalformedFrame
	}

	for i := uint32(0); i < frames; i++ {
		if err := d.decodeRawFrame(&c, result); err != nil {
			*result = DecodeResult{}
			return err
		}
	}

	return nil
}

func (d *Decoder) decodeRawFrame(c *cursor, result *DecodeResult) error {
	// Raw frame header: index(2) + type(2) + size(4) + reserved(8) = 16 bytes.
	if !c.skip(2) { // index
		return ErrMalformedFrame
	}

	frameType, ok := c.u16()
	if !ok {
		return ErrMalformedFrame
	}

	size, ok := c.u32()
	if !ok {
		return ErrMalformedFrame
	}

	if !c.skip(8) { // reserved
		return ErrMalformedFrame
	}

	if int(size) > c.remaining() {
		return ErrMalformedFrame
	}

	if frameType != rawFrameTypeHeatmap && frameType != rawFrameTypeStylus {
		if !c.skip(int(size)) {
			return ErrMalformedFrame
		}
		return nil
	}

	var end = c.pos + int(size)

	for c.pos < end {
		if err := d.decodeReport(c, end, result); err != nil {
			return err
		}
	}

	return nil
}

func (d *Decoder) decodeReport(c *cursor, frameEnd int, result *DecodeResult) error {
	// Report header: type(1) + flags(1) + size(2) = 4 bytes.
	reportType, ok := c.u8()
	if !ok {
		return ErrMalformedFrame
	}

	if !c.skip(1) { // flags
		return ErrMalformedFrame
	}

	size, ok := c.u16()
	if !ok {
		return ErrMalformedFrame
	}

	if int(size) > c.remaining() || c.pos+int(size) > frameEnd {
		return ErrMalformedFrame
	}

	switch reportType {
	case reportTypeHeatmap:
		payload, ok := c.take(heatmapPayloadBytes)
		if !ok {
			return ErrMalformedFrame
		}

		result.Heatmap = payload
		result.HasHeatmap = true

		// The report's declared size may exceed the payload we care
		// about; advance to its end regardless.
		if int(size) > heatmapPayloadBytes {
			if !c.skip(int(size) - heatmapPayloadBytes) {
				return ErrMalformedFrame
			}
		}

	case reportTypeStylus:
		stylus, err := decodeStylus(c, int(size))
		if err != nil {
			return err
		}

		result.Stylus = stylus

	default:
		if !c.skip(int(size)) {
			return ErrMalformedFrame
		}
	}

	return nil
}

func decodeStylus(c *cursor, size int) (*StylusReport, error) {
	var start = c.pos

	preamble, ok := c.take(stylusPreambleSize)
	if !ok {
		return nil, ErrMalformedFrame
	}

	var remainingPayload = size - stylusPreambleSize
	if remainingPayload < 0 || remainingPayload%stylusElementSize != 0 {
		// Still must advance by the declared size so the cursor stays
		// consistent for whatever follows.
		if !c.skip(size - (c.pos - start)) {
			return nil, ErrMalformedFrame
		}

		return &StylusReport{Preamble: preamble}, nil
	}

	var count = remainingPayload / stylusElementSize
	var elements = make([][]byte, 0, count)

	for i := 0; i < count; i++ {
		elem, ok := c.take(stylusElementSize)
		if !ok {
			return nil, ErrMalformedFrame
		}

		elements = append(elements, elem)
	}

	return &StylusReport{Preamble: preamble, Elements: elements}, nil
}
