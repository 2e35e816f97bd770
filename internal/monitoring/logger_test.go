package monitoring

import (
	"fmt"
	"testing"
)

func capture(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { SetLogger(nil) })
	return &lines
}

func TestSetLogger(t *testing.T) {
	lines := capture(t)
	Logf("tilt=%.1f", 0.5)

	if len(*lines) != 1 || (*lines)[0] != "tilt=0.5" {
		t.Errorf("unexpected log lines %q", *lines)
	}

	SetLogger(nil)
	Logf("muted")
	if len(*lines) != 1 {
		t.Error("nil logger should mute output")
	}
}

func TestPrefixed(t *testing.T) {
	logf := Prefixed("drive")
	lines := capture(t)

	logf("touches=%d", 2)
	if len(*lines) != 1 || (*lines)[0] != "[drive] touches=2" {
		t.Errorf("unexpected log lines %q", *lines)
	}
}
