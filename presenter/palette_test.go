package presenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPalette_For(t *testing.T) {
	p := NewPalette("cyan", "magenta", "yellow")
	assert.Equal(t, "cyan", p.For("alice"))
	assert.Equal(t, "magenta", p.For("bob"))
	assert.Equal(t, "cyan", p.For("alice"))
	assert.Equal(t, "yellow", p.For("carol"))
	assert.Equal(t, "cyan", p.For("dave"), "palette wraps around")

	empty := NewPalette[int]()
	assert.Equal(t, 0, empty.For("alice"))
}

func TestStatusKind_String(t *testing.T) {
	assert.Equal(t, "warning", StatusWarning.String())
	assert.Equal(t, "unknown", StatusKind(42).String())
}
