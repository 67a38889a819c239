package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLogger("quadrt", false, &out, &errOut)

	l.Debugf("hidden %d", 1)
	l.Infof("ready")
	l.Warnf("dropping %d primitives", 3)
	l.Errorf("boom")

	assert.Equal(t, "[quadrt] INFO: ready\n", out.String())
	assert.Equal(t, "[quadrt] WARN: dropping 3 primitives\n[quadrt] ERROR: boom\n", errOut.String())

	out.Reset()
	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown %d", 2)
	assert.Equal(t, "[quadrt] DEBUG: shown 2\n", out.String())
}

func TestLoggerWithoutPrefix(t *testing.T) {
	var out bytes.Buffer
	l := NewLogger("", false, &out, &out)
	l.Infof("x")
	assert.Equal(t, "INFO: x\n", out.String())
}

func TestLoggerOrNop(t *testing.T) {
	l := LoggerOrNop(nil)
	assert.NotNil(t, l)
	assert.False(t, l.DebugEnabled())
	l.SetDebug(true)
	assert.False(t, l.DebugEnabled())

	d := NewLogger("", false, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Same(t, d, LoggerOrNop(d))
}
