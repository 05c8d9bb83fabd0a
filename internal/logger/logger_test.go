package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func resetLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetVerbose(false)
	})
	return &buf
}

func TestDebugSuppressedByDefault(t *testing.T) {
	buf := resetLogger(t)
	Debug("reading %s", "issues.json")
	assert.Empty(t, buf.String())
}

func TestDebugWhenVerbose(t *testing.T) {
	buf := resetLogger(t)
	SetVerbose(true)
	Debug("reading %s", "issues.json")
	assert.Equal(t, "[DEBUG] reading issues.json\n", buf.String())
}

func TestWarnAlwaysPrinted(t *testing.T) {
	buf := resetLogger(t)
	Warn("bad comment file for %s", "ISSUE-3")
	assert.Equal(t, "[WARN] bad comment file for ISSUE-3\n", buf.String())
}

func TestProgress(t *testing.T) {
	buf := resetLogger(t)
	Progress("acme/widgets", 5, 20)
	assert.Equal(t, "[acme/widgets] Progress: 25% (5/20)\n", buf.String())

	buf.Reset()
	Progress("acme/widgets", 0, 0)
	assert.Empty(t, buf.String())
}

func TestIsVerbose(t *testing.T) {
	resetLogger(t)
	assert.False(t, IsVerbose())
	SetVerbose(true)
	assert.True(t, IsVerbose())
}
