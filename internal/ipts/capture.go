package ipts

import (
	"os"
	"path/filepath"
	"time"

	"github.com/lestrrat-go/strftime"
)

// capturePattern names one capture file per process run, timestamped to
// the second; strftime gives us the same date-pattern idiom the rest of
// this codebase's ancestry uses for daily log file names.
const capturePattern = "ipts-%Y%m%dT%H%M%S.raw"

// CaptureWriter wraps a FrameSource and additionally appends every raw
// transport buffer it reads to a dated file under dir, for later replay
// through ReplayFileSource. It never alters the bytes handed to the
// caller - a write failure is logged (if Log is set) and otherwise
// ignored, since capture is a diagnostic aid, not part of the contact
// pipeline's contract.
type CaptureWriter struct {
	FrameSource
	f   *os.File
	Log Logger
}

// NewCaptureWriter creates (or truncates) a capture file under dir named
// by the current time and returns a FrameSource that mirrors every frame
// read from source into it.
func NewCaptureWriter(source FrameSource, dir string) (*CaptureWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var name, err = strftime.Format(capturePattern, time.Now())
	if err != nil {
		return nil, err
	}

	var f, openErr = os.Create(filepath.Join(dir, name))
	if openErr != nil {
		return nil, openErr
	}

	return &CaptureWriter{FrameSource: source, f: f}, nil
}

func (c *CaptureWriter) ReadFrame(buf []byte) error {
	if err := c.FrameSource.ReadFrame(buf); err != nil {
		return err
	}

	if _, err := c.f.Write(buf); err != nil && c.Log != nil {
		c.Log.Warnf("capture write failed: %v", err)
	}

	return nil
}

func (c *CaptureWriter) Close() error {
	var captureErr = c.f.Close()
	var sourceErr = c.FrameSource.Close()

	if sourceErr != nil {
		return sourceErr
	}

	return captureErr
}
