package reflection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath_Simple(t *testing.T) {
	p := ParsePath("name")
	assert.Equal(t, "name", p.Name())
	assert.Equal(t, "name", p.IndexedName())
	assert.False(t, p.HasIndex())
	assert.False(t, p.HasNext())
	assert.Equal(t, "", p.Children())
}

func TestParsePath_Dotted(t *testing.T) {
	p := ParsePath("order.customer.name")
	assert.Equal(t, "order", p.Name())
	assert.Equal(t, "customer.name", p.Children())
	require.True(t, p.HasNext())

	next := p.Next()
	assert.Equal(t, "customer", next.Name())
	assert.Equal(t, "name", next.Children())
	require.True(t, next.HasNext())

	last := next.Next()
	assert.Equal(t, "name", last.Name())
	assert.False(t, last.HasNext())
}

func TestParsePath_Indexed(t *testing.T) {
	p := ParsePath("items[0].price")
	assert.Equal(t, "items", p.Name())
	assert.Equal(t, "items[0]", p.IndexedName())
	assert.Equal(t, "0", p.Index())
	assert.True(t, p.HasIndex())
	assert.Equal(t, "price", p.Children())
}

func TestParsePath_MapKeyIndex(t *testing.T) {
	p := ParsePath("attrs[color]")
	assert.Equal(t, "attrs", p.Name())
	assert.Equal(t, "color", p.Index())
	assert.False(t, p.HasNext())
}

func TestParsePath_IndexOnLaterSegment(t *testing.T) {
	p := ParsePath("order.lines[2].sku")
	next := p.Next()
	assert.Equal(t, "lines", next.Name())
	assert.Equal(t, "2", next.Index())
	assert.Equal(t, "sku", next.Children())
}

func TestPropertyPath_NextPanicsOnTerminal(t *testing.T) {
	p := ParsePath("name")
	assert.Panics(t, func() { p.Next() })
}

func TestParsePath_EmptyExpression(t *testing.T) {
	p := ParsePath("")
	assert.Equal(t, "", p.Name())
	assert.False(t, p.HasNext())
}
