package trace

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/arcontrol/internal/steering"
)

var start = time.Date(2026, 7, 4, 10, 0, 0, 0, time.UTC)

func sampleTrace(t *testing.T) []steering.Sample {
	t.Helper()
	return []steering.Sample{
		{X: 0.6, Y: 0.3},
		{X: 0.6, Y: 0.3},
		{X: -0.6, Y: 0.3},
		{X: -0.6, Y: 0.3, Time: start.Add(time.Second)},
	}
}

func TestReplay(t *testing.T) {
	points, err := Replay(sampleTrace(t), 0.5, start, 16*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, points, 4)

	assert.True(t, points[1].Time.Equal(start.Add(16*time.Millisecond)))
	assert.True(t, points[3].Time.Equal(start.Add(time.Second)), "explicit timestamps are kept")

	assert.InDelta(t, -0.15, points[0].Tilt, 1e-12)
	assert.InDelta(t, -0.225, points[1].Tilt, 1e-12)
	// Filtered X drops to 0.45/2 - 0.3 = -0.075 after the grip changes, so
	// the sign flips.
	assert.InDelta(t, -0.075, points[2].FilteredX, 1e-12)
	assert.InDelta(t, 0.2625, points[2].Tilt, 1e-12)

	_, err = Replay(nil, 0, start, time.Millisecond)
	assert.Error(t, err)
}

func TestRenderHTML(t *testing.T) {
	points, err := Replay(sampleTrace(t), 0.5, start, 16*time.Millisecond)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, "session abc", points))
	html := buf.String()
	assert.True(t, strings.Contains(html, "echarts"), "page should load echarts")
	assert.Contains(t, html, "session abc")
	assert.Contains(t, html, "filtered y")
	assert.Contains(t, html, "0.016")
}

func TestWritePNG(t *testing.T) {
	points, err := Replay(sampleTrace(t), 0.5, start, 16*time.Millisecond)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, "replay", points, 4*vg.Inch, 2*vg.Inch))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")), "output should be a PNG")

	assert.ErrorIs(t, WritePNG(&buf, "empty", nil, vg.Inch, vg.Inch), ErrEmptyTrace)
}

func TestSavePNG(t *testing.T) {
	points, err := Replay(sampleTrace(t), 0.5, start, 16*time.Millisecond)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "trace.png")
	require.NoError(t, SavePNG(path, "replay", points))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}
