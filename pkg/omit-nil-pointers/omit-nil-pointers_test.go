package omitnilpointers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOmitNilPointers(t *testing.T) {
	playing := true
	var position *float64

	got := OmitNilPointers(map[string]any{
		"is_playing":   &playing,
		"current_time": position,
		"video_url":    "http://x/v.mp4",
		"empty":        nil,
	})

	assert.Equal(t, map[string]any{
		"is_playing": true,
		"video_url":  "http://x/v.mp4",
	}, got)
}
