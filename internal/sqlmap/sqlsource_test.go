package sqlmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLSource_LowersPlaceholders(t *testing.T) {
	src := NewSQLSource("SELECT * FROM users WHERE id = #{id} AND name = #{user.name}")
	bound := src.BoundSQL()

	assert.Equal(t, "SELECT * FROM users WHERE id = ? AND name = ?", bound.SQL)
	require.Len(t, bound.Parameters, 2)
	assert.Equal(t, "id", bound.Parameters[0].Property)
	assert.Equal(t, "user.name", bound.Parameters[1].Property)
}

func TestNewSQLSource_NoPlaceholders(t *testing.T) {
	src := NewSQLSource("SELECT 1")
	bound := src.BoundSQL()
	assert.Equal(t, "SELECT 1", bound.SQL)
	assert.Empty(t, bound.Parameters)
}

func TestNewSQLSource_CollapsesWhitespace(t *testing.T) {
	src := NewSQLSource("\n\t\tSELECT *\n\t\tFROM users\n\t\tWHERE id = #{ id }\n\t")
	bound := src.BoundSQL()
	assert.Equal(t, "SELECT * FROM users WHERE id = ?", bound.SQL)
	require.Len(t, bound.Parameters, 1)
	assert.Equal(t, "id", bound.Parameters[0].Property)
}

func TestNewSQLSource_UnterminatedPassedThrough(t *testing.T) {
	src := NewSQLSource("SELECT #{id FROM t")
	assert.Equal(t, "SELECT #{id FROM t", src.SQL())
	assert.Empty(t, src.BoundSQL().Parameters)
}

func TestNewSQLSource_IndexedProperty(t *testing.T) {
	src := NewSQLSource("WHERE sku = #{lines[0].sku}")
	bound := src.BoundSQL()
	require.Len(t, bound.Parameters, 1)
	assert.Equal(t, "lines[0].sku", bound.Parameters[0].Property)
}
