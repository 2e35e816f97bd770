package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "v1.2.3"

	info := Get()
	assert.Equal(t, "v1.2.3", info.Version)
	assert.Equal(t, "arcontrol v1.2.3 (unknown, built unknown)", info.String())
}
