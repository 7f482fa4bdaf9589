package buildinfo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionOverride(t *testing.T) {
	assert.Equal(t, "v1.2.3", Version("v1.2.3"))
}

func TestVersionFallback(t *testing.T) {
	v := Version("unknown")
	assert.NotEmpty(t, v)
	assert.True(t, strings.Contains(v, "-"))
}

func TestShortRevision(t *testing.T) {
	assert.LessOrEqual(t, len(ShortRevision()), 7)
}
