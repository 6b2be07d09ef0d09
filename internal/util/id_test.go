package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	id := NewID("ws")
	assert.True(t, strings.HasPrefix(id, "ws_"))
	assert.Len(t, id, len("ws_")+32)
	assert.Len(t, NewID(""), 32)
	assert.NotEqual(t, NewID("ws"), NewID("ws"))
}
