package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closer struct{ closed bool }

func (c *closer) Close() error {
	c.closed = true
	return nil
}

func TestRegistry(t *testing.T) {
	r := new(registry[*closer])

	a, b := &closer{}, &closer{}
	require.NoError(t, r.Register("b", b))
	require.NoError(t, r.Register("a", a))
	assert.ErrorIs(t, r.Register("a", &closer{}), ErrDup)
	assert.ErrorIs(t, r.Register("", &closer{}), ErrName)

	assert.True(t, r.IsRegistered("a"))
	assert.Same(t, a, r.Get("a"))
	assert.Nil(t, r.Get(""))
	assert.Nil(t, r.Get("missing"))
	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.Len(t, r.GetAll(), 2)

	r.Unregister("a")
	assert.True(t, a.closed)
	assert.False(t, r.IsRegistered("a"))
	assert.Equal(t, []string{"b"}, r.Names())

	r.Unregister("missing")
}

func TestLoggerRegistrySkipsNil(t *testing.T) {
	r := new(loggerRegistry)
	require.NoError(t, r.Register("none", nil))
	assert.False(t, r.IsRegistered("none"))
}
