package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMediaKindUploadable(t *testing.T) {
	for _, kind := range []MediaKind{MediaPhoto, MediaVideo, MediaDocument, MediaAudio} {
		assert.True(t, kind.Uploadable(), kind)
	}
	assert.False(t, MediaText.Uploadable())
	assert.False(t, MediaKind("sticker").Uploadable())
	assert.Equal(t, "Photo", MediaPhoto.Label())
}

func TestValidDeleteTimer(t *testing.T) {
	for _, minutes := range []int{0, 5, 60, 1440, 10080} {
		assert.True(t, ValidDeleteTimer(minutes), minutes)
	}
	for _, minutes := range []int{-1, 1, 30, 61, 1439, 10081} {
		assert.False(t, ValidDeleteTimer(minutes), minutes)
	}
}

func TestFormatMinutes(t *testing.T) {
	cases := map[int]string{
		0:     "never",
		1:     "1 minute",
		5:     "5 minutes",
		60:    "1 hour",
		120:   "2 hours",
		1440:  "1 day",
		10080: "7 days",
	}
	for minutes, want := range cases {
		assert.Equal(t, want, FormatMinutes(minutes), minutes)
	}
}
