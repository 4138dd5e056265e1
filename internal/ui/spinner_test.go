package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpinnerStopWithMsg(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinnerTo(&buf, "compiling")
	s.Start()
	s.StopWithMsg("done")
	s.Stop()

	out := buf.String()
	assert.Contains(t, out, "compiling")
	assert.Contains(t, out, "done\n")
}
