package oauth

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundedCache_EvictsOldest(t *testing.T) {
	c := newBoundedCache(2)

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Set("c", []byte("3"))

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())

	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, []byte("3"), v)
}

func TestBoundedCache_OverwriteKeepsSize(t *testing.T) {
	c := newBoundedCache(2)

	for i := range 5 {
		c.Set("same", []byte(fmt.Sprint(i)))
	}

	v, ok := c.Get("same")
	assert.True(t, ok)
	assert.Equal(t, []byte("4"), v)
	assert.Equal(t, 1, c.Len())
}

func TestBoundedCache_Delete(t *testing.T) {
	c := newBoundedCache(2)

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Delete("a")
	c.Delete("missing")
	c.Set("c", []byte("3"))

	_, ok := c.Get("b")
	assert.True(t, ok, "b survives because a was deleted, not evicted")
	assert.Equal(t, 2, c.Len())
}
