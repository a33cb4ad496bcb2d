package metadata

import (
	"strings"

	"github.com/go-gost/core/metadata"
)

// mapMetadata carries the free-form handler settings of a protocol config.
// Keys are case-insensitive, since config loading lowercases them.
type mapMetadata map[string]any

// NewMetadata copies m. A nil map yields an empty, writable metadata.
func NewMetadata(m map[string]any) metadata.Metadata {
	md := make(mapMetadata, len(m))
	for k, v := range m {
		md[strings.ToLower(k)] = v
	}
	return md
}

func (m mapMetadata) IsExists(key string) bool {
	_, ok := m[strings.ToLower(key)]
	return ok
}

func (m mapMetadata) Set(key string, value any) {
	m[strings.ToLower(key)] = value
}

func (m mapMetadata) Get(key string) any {
	if m != nil {
		return m[strings.ToLower(key)]
	}
	return nil
}
