package types

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ConvertScalars(t *testing.T) {
	r := NewRegistry()

	got, err := r.Convert(int64(42), reflect.TypeOf(0))
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	got, err = r.Convert([]byte("3.5"), reflect.TypeOf(float64(0)))
	require.NoError(t, err)
	assert.Equal(t, 3.5, got)

	got, err = r.Convert(int64(1), reflect.TypeOf(false))
	require.NoError(t, err)
	assert.Equal(t, true, got)

	got, err = r.Convert([]byte("hello"), reflect.TypeOf(""))
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestRegistry_ConvertWidths(t *testing.T) {
	r := NewRegistry()

	got, err := r.Convert(int64(7), reflect.TypeOf(int32(0)))
	require.NoError(t, err)
	assert.Equal(t, int32(7), got)

	got, err = r.Convert("12", reflect.TypeOf(int64(0)))
	require.NoError(t, err)
	assert.Equal(t, int64(12), got)
}

func TestRegistry_ConvertTime(t *testing.T) {
	r := NewRegistry()

	stamp := "2024-06-01T10:30:00Z"
	got, err := r.Convert(stamp, reflect.TypeOf(time.Time{}))
	require.NoError(t, err)
	want, _ := time.Parse(time.RFC3339, stamp)
	assert.Equal(t, want, got)

	got, err = r.Convert(int64(0), reflect.TypeOf(time.Time{}))
	require.NoError(t, err)
	assert.Equal(t, time.Unix(0, 0).UTC(), got)
}

func TestRegistry_ConvertPointerTarget(t *testing.T) {
	r := NewRegistry()
	got, err := r.Convert(int64(5), reflect.TypeOf((*int)(nil)))
	require.NoError(t, err)
	ptr, ok := got.(*int)
	require.True(t, ok)
	assert.Equal(t, 5, *ptr)
}

func TestRegistry_ConvertNilTarget(t *testing.T) {
	r := NewRegistry()
	got, err := r.Convert("raw", nil)
	require.NoError(t, err)
	assert.Equal(t, "raw", got)
}

func TestRegistry_IdentityFallback(t *testing.T) {
	r := NewRegistry()
	type custom struct{ V int }
	h := r.Handler(reflect.TypeOf(custom{}))
	out, err := h.GetResult(custom{V: 1})
	require.NoError(t, err)
	assert.Equal(t, custom{V: 1}, out)
}

func TestRegistry_ConvertErrors(t *testing.T) {
	r := NewRegistry()
	_, err := r.Convert("not-a-number", reflect.TypeOf(0))
	assert.Error(t, err)
}
