package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_UnrecognisedLevel_FallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	var log = New(&buf, "not-a-real-level")

	log.Debugf("should not appear")
	log.Infof("should appear")

	assert.NotContains(t, buf.String(), "should not appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestNew_DebugLevel_EmitsDebugLines(t *testing.T) {
	var buf bytes.Buffer
	var log = New(&buf, "debug")

	log.Debugf("ping %d", 1)

	assert.Contains(t, buf.String(), "ping 1")
}

func TestWith_ComposesComponentTagsWithSlash(t *testing.T) {
	var buf bytes.Buffer
	var log = New(&buf, "info")

	var nested = log.With("discovery").With("udev")
	nested.Infof("enumerating")

	assert.Contains(t, buf.String(), "discovery/udev")
}

func TestWith_DoesNotMutateParentLogger(t *testing.T) {
	var buf bytes.Buffer
	var log = New(&buf, "info")

	_ = log.With("diagnostics")
	log.Infof("root line")

	assert.Contains(t, buf.String(), "root line")
	assert.NotContains(t, buf.String(), "diagnostics")
}

func TestErrorf_WritesErrorLine(t *testing.T) {
	var buf bytes.Buffer
	var log = New(&buf, "info")

	log.Errorf("boom: %v", assertErr{})

	assert.Contains(t, buf.String(), "boom: kaboom")
}

type assertErr struct{}

func (assertErr) Error() string { return "kaboom" }
