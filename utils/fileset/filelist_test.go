package fileset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf_FlattenAndLen(t *testing.T) {
	fl, err := Of("a.txt", "b.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, fl.Len())
	assert.Equal(t, []string{"a.txt", "b.txt"}, fl.Flatten())
}

func TestNested_FlattensOneLevel(t *testing.T) {
	inner, err := Of("x.txt", "y.txt")
	require.NoError(t, err)
	fl, err := Of(inner, "z.txt")
	require.NoError(t, err)
	assert.Equal(t, 3, fl.Len())
	assert.Equal(t, []string{"x.txt", "y.txt", "z.txt"}, fl.Flatten())
}

func TestNamed_GetAndContains(t *testing.T) {
	fl, err := NewOrdered([]any{"a.txt"}, []NamedItem{{Name: "log", Value: "run.log"}})
	require.NoError(t, err)
	assert.Equal(t, 2, fl.Len())
	assert.True(t, fl.Contains("run.log"))

	v, err := fl.GetNamed("log")
	require.NoError(t, err)
	assert.Equal(t, "run.log", v)

	_, err = fl.GetNamed("missing")
	assert.Error(t, err)
}

func TestGet_PositionalOutOfRange(t *testing.T) {
	fl, err := Of("a.txt")
	require.NoError(t, err)
	_, err = fl.Get(0)
	assert.NoError(t, err)
	_, err = fl.Get(1)
	assert.Error(t, err)
}

func TestFromAny_Idempotent(t *testing.T) {
	fl, err := Of("a.txt")
	require.NoError(t, err)

	again, err := FromAny(fl)
	require.NoError(t, err)
	assert.Same(t, fl, again)

	viaPath, err := FromAny("a.txt")
	require.NoError(t, err)
	assert.True(t, viaPath.Equal(fl))

	viaList, err := FromAny([]string{"a.txt", "b.txt"})
	require.NoError(t, err)
	assert.Equal(t, 2, viaList.Len())
}

func TestEqual_StructuralOverFlattenedAndNamed(t *testing.T) {
	a, err := NewOrdered([]any{"a.txt"}, []NamedItem{{Name: "log", Value: "r.log"}})
	require.NoError(t, err)
	b, err := NewOrdered([]any{"a.txt"}, []NamedItem{{Name: "log", Value: "r.log"}})
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	c, err := NewOrdered([]any{"a.txt"}, []NamedItem{{Name: "log", Value: "other.log"}})
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
}

func TestToEntry_RejectsUnsupportedType(t *testing.T) {
	_, err := Of(42)
	assert.Error(t, err)
}
