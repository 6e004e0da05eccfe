package ipts

import "fmt"

// Sink is the host OS's multi-touch event grammar, driven by Emit per the
// six-slot protocol of spec.md section 6. A Sink implementation is
// expected to buffer nothing itself - each call should be written
// through immediately so SyncFrame delimits exactly the events emitted
// since the previous SyncFrame.
type Sink interface {
	// SlotPosition reports that slot currently holds a contact at
	// (x, y) with the given touch-major size, both already scaled by
	// Scale.
	SlotPosition(slot int, x, y, touchMajor float64) error

	// SlotTrackingID reports slot's tracking ID for this frame: a
	// positive ID if matched, or -1 if the slot has no contact.
	SlotTrackingID(slot int, trackingID int) error

	// SingleTouch reports the legacy single-touch absolute position and
	// touch-down state, emitted only when exactly one cluster is valid
	// this frame.
	SingleTouch(x, y float64, down bool) error

	// TouchUp reports that no single contact is active this frame.
	TouchUp() error

	// SyncFrame delimits the current frame for the sink.
	SyncFrame() error
}

// Emit translates the valid clusters of cs into calls on sink, following
// spec.md section 6 exactly: six slots in order, each slot's tracking ID
// drives its position/down events, a trailing touch-up when the frame
// does not have exactly one valid contact, then a sync marker.
//
// A write error from sink is wrapped in ErrSinkWrite and returned
// immediately; the caller should log it and continue with the next
// frame, per spec.md section 7 - Emit itself does not retry.
func Emit(cs *ClusterSet, sink Sink) error {
	var validCount = 0
	for i := 0; i < cs.Count; i++ {
		if cs.Clusters[i].Valid {
			validCount++
		}
	}

	for slot := 0; slot < MatchSlots; slot++ {
		var wantID = slot + 1
		var matched *Cluster

		for i := 0; i < cs.Count; i++ {
			var c = &cs.Clusters[i]
			if c.Valid && c.ID == wantID {
				matched = c
				break
			}
		}

		if matched != nil {
			if err := sink.SlotPosition(slot, matched.Centre.X*Scale, matched.Centre.Y*Scale, matched.Diameter*Scale); err != nil {
				return fmt.Errorf("%w: slot %d position: %w", ErrSinkWrite, slot, err)
			}

			if err := sink.SlotTrackingID(slot, wantID); err != nil {
				return fmt.Errorf("%w: slot %d tracking id: %w", ErrSinkWrite, slot, err)
			}

			if validCount == 1 {
				if err := sink.SingleTouch(matched.Centre.X*Scale, matched.Centre.Y*Scale, true); err != nil {
					return fmt.Errorf("%w: single touch: %w", ErrSinkWrite, err)
				}
			}
		} else {
			if err := sink.SlotTrackingID(slot, -1); err != nil {
				return fmt.Errorf("%w: slot %d tracking id: %w", ErrSinkWrite, slot, err)
			}
		}
	}

	if validCount != 1 {
		if err := sink.TouchUp(); err != nil {
			return fmt.Errorf("%w: touch up: %w", ErrSinkWrite, err)
		}
	}

	if err := sink.SyncFrame(); err != nil {
		return fmt.Errorf("%w: sync: %w", ErrSinkWrite, err)
	}

	return nil
}

// NopSink discards every event. Useful for tests that only assert on
// cluster or tracker state.
type NopSink struct{}

func (NopSink) SlotPosition(int, float64, float64, float64) error { return nil }
func (NopSink) SlotTrackingID(int, int) error                      { return nil }
func (NopSink) SingleTouch(float64, float64, bool) error           { return nil }
func (NopSink) TouchUp() error                                     { return nil }
func (NopSink) SyncFrame() error                                   { return nil }

// LogSink writes each emitted event except the frame sync marker to a
// Logger at debug level instead of driving a real input device. Useful for dry runs and for exercising the
// daemon wiring on a machine with no /dev/uinput.
type LogSink struct {
	Log Logger
}

func (s LogSink) debugf(format string, args ...any) {
	if s.Log != nil {
		s.Log.Debugf(format, args...)
	}
}

func (s LogSink) SlotPosition(slot int, x, y, touchMajor float64) error {
	s.debugf("slot %d pos=(%.2f,%.2f) major=%.2f", slot, x, y, touchMajor)
	return nil
}

func (s LogSink) SlotTrackingID(slot int, trackingID int) error {
	s.debugf("slot %d id=%d", slot, trackingID)
	return nil
}

func (s LogSink) SingleTouch(x, y float64, down bool) error {
	s.debugf("single pos=(%.2f,%.2f) down=%v", x, y, down)
	return nil
}

func (s LogSink) TouchUp() error {
	s.debugf("touch up")
	return nil
}

func (s LogSink) SyncFrame() error {
	return nil
}

// RecordingSink captures every call it receives, in order, for use in
// tests that assert on the exact emitted event stream (spec.md section
// 8's end-to-end scenarios).
type RecordingSink struct {
	Events []string
}

func (r *RecordingSink) SlotPosition(slot int, x, y, touchMajor float64) error {
	r.Events = append(r.Events, fmt.Sprintf("slot=%d pos=(%.2f,%.2f) major=%.2f", slot, x, y, touchMajor))
	return nil
}

func (r *RecordingSink) SlotTrackingID(slot int, trackingID int) error {
	r.Events = append(r.Events, fmt.Sprintf("slot=%d id=%d", slot, trackingID))
	return nil
}

func (r *RecordingSink) SingleTouch(x, y float64, down bool) error {
	r.Events = append(r.Events, fmt.Sprintf("single pos=(%.2f,%.2f) down=%v", x, y, down))
	return nil
}

func (r *RecordingSink) TouchUp() error {
	r.Events = append(r.Events, "touch-up")
	return nil
}

func (r *RecordingSink) SyncFrame() error {
	r.Events = append(r.Events, "sync")
	return nil
}
