package ipts

import "errors"

// Error kinds surfaced by the pipeline. Callers match with errors.Is;
// the pipeline itself never panics or exits on these - each one has a
// documented, local recovery (see Pipeline.Step).
var (
	// ErrShortRead indicates the Frame Source returned fewer than
	// TransportSize bytes. Transient: a replay source rewinds and
	// retries, a live device read is reissued.
	ErrShortRead = errors.New("ipts: short read from frame source")

	// ErrMalformedFrame indicates a header's declared size would run
	// the read cursor past the end of the transport buffer. A buffer
	// whose outer HID type is not 0xEE is not an error: it is discarded
	// silently. Recoverable: the current buffer is dropped and current
	// cluster state is left zeroed.
	ErrMalformedFrame = errors.New("ipts: malformed frame")

	// ErrSinkWrite indicates a Sink call returned an error while
	// emitting the current frame's contacts. Recoverable: logged and
	// skipped, the next frame re-expresses current contact state.
	ErrSinkWrite = errors.New("ipts: sink write failed")

	// ErrSinkSetup indicates a Sink could not be initialised. Fatal:
	// the caller must abort before entering the main loop.
	ErrSinkSetup = errors.New("ipts: sink setup failed")
)
