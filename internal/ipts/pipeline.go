package ipts

// Logger is the minimal structured-logging surface Pipeline and LogSink
// need. Satisfied by internal/logging's Logger; a nil Logger silently
// disables reporting.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// Pipeline owns every per-frame working buffer - transport buffer, pixel
// grid, and both cluster sets - allocated once by NewPipeline and reused
// for the lifetime of the value. It is an ordinary Go value, not a
// singleton: nothing here is process-global, so multiple pipelines can
// run side by side (e.g. one per test case).
type Pipeline struct {
	source FrameSource
	sink   Sink

	decoder Decoder
	tracker Tracker

	buf    [TransportSize]byte
	grid   Grid
	result DecodeResult
	stack  floodStack

	// sets holds both cluster buffers; toggle selects which is
	// "current" this frame. Swapping is a single-bit flip, never a
	// copy - per the arena-and-indices design note in spec.md section 9.
	sets   [2]ClusterSet
	toggle int

	// Log, if set, receives one warning per malformed frame and sink
	// write failure. Left nil by NewPipeline; callers that want
	// reporting assign it before the first Step.
	Log Logger

	// Observer, if set, is called with the current frame's cluster set
	// once per Step, after tracking and before the sink is written -
	// e.g. to mirror frame statistics to a diagnostics server. Left nil
	// by NewPipeline.
	Observer func(*ClusterSet)
}

// NewPipeline constructs a Pipeline reading from source and writing to
// sink. Both must be non-nil; use NopSink for a pipeline that only needs
// to compute cluster/tracker state.
func NewPipeline(source FrameSource, sink Sink) *Pipeline {
	return &Pipeline{source: source, sink: sink}
}

func (p *Pipeline) warnf(format string, args ...any) {
	if p.Log != nil {
		p.Log.Warnf(format, args...)
	}
}

func (p *Pipeline) current() *ClusterSet  { return &p.sets[p.toggle] }
func (p *Pipeline) previous() *ClusterSet { return &p.sets[1-p.toggle] }

// Step reads, decodes, segments, geometrises, tracks and emits exactly
// one frame. It returns ErrShortRead for a transient read failure the
// caller should retry (immediately, for a live device; the replay source
// already retries internally), or a wrapped ErrSinkWrite for a
// recoverable sink failure the caller should log and continue past. A
// malformed transport buffer is not an error returned to the caller: per
// spec.md section 7, the pipeline never aborts mid-frame for bad data -
// Step zeroes the current cluster set and returns nil, so the sink sees
// "no contacts" this frame.
func (p *Pipeline) Step() error {
	var current = p.current()
	current.Reset()

	if err := p.source.ReadFrame(p.buf[:]); err != nil {
		return err
	}

	if err := p.decoder.Decode(p.buf[:], &p.result); err != nil {
		// Malformed frame: current stays zeroed, safe default per
		// spec.md section 7. Not propagated as an error.
		p.warnf("dropping malformed transport buffer: %v", err)
		return p.emit()
	}

	if p.result.HasHeatmap {
		Normalise(p.result.Heatmap, &p.grid)
		Segment(&p.grid, current, &p.stack)
		ComputeGeometry(current)
		p.tracker.Update(p.previous(), current)
	}

	return p.emit()
}

func (p *Pipeline) emit() error {
	if p.Observer != nil {
		p.Observer(p.current())
	}

	var err = Emit(p.current(), p.sink)
	if err != nil {
		p.warnf("sink write failed: %v", err)
	}
	p.toggle = 1 - p.toggle
	return err
}

// Close releases the pipeline's Frame Source.
func (p *Pipeline) Close() error {
	return p.source.Close()
}
