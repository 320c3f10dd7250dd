package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadSessionItemsRoundTrip(t *testing.T) {
	items := []FileItem{
		{FileID: "f1", Kind: MediaPhoto, Caption: "a"},
		{FileID: "f2", Kind: MediaDocument, Caption: "b"},
	}

	s := NewUploadSession("abc", 1, items, true, 60)

	require.Len(t, s.FileIDs, 2)
	assert.Equal(t, len(s.FileIDs), len(s.Captions))
	assert.Equal(t, 2, s.FileCount)
	assert.Equal(t, items, s.Items())
}

func TestUploadSessionItemsLegacyRows(t *testing.T) {
	s := &UploadSession{FileIDs: []string{"f1", "f2"}, Captions: []string{"only"}}

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, MediaDocument, items[0].Kind)
	assert.Equal(t, "only", items[0].Caption)
	assert.Equal(t, "", items[1].Caption)
}

func TestEffectiveProtection(t *testing.T) {
	protected := &UploadSession{OwnerID: 1, ProtectContent: true}
	open := &UploadSession{OwnerID: 1, ProtectContent: false}

	assert.False(t, protected.EffectiveProtection(1), "owner always gets unprotected copies")
	assert.True(t, protected.EffectiveProtection(2))
	assert.False(t, open.EffectiveProtection(2))
}
