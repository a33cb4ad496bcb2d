package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadataCaseInsensitive(t *testing.T) {
	md := NewMetadata(map[string]any{"dropProbability": 0.5})

	assert.True(t, md.IsExists("dropprobability"))
	assert.True(t, md.IsExists("DropProbability"))
	assert.Equal(t, 0.5, md.Get("dropProbability"))

	md.Set("Seed", 3)
	assert.Equal(t, 3, md.Get("seed"))
}

func TestMetadataNil(t *testing.T) {
	md := NewMetadata(nil)
	assert.False(t, md.IsExists("nodes"))
	assert.Nil(t, md.Get("nodes"))

	md.Set("nodes", 4)
	assert.Equal(t, 4, md.Get("nodes"))
}
