package value_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kristoferb/lox/internal/value"
)

func TestFalsey(t *testing.T) {
	assert.True(t, value.Nil.Falsey())
	assert.True(t, value.Bool(false).Falsey())
	assert.False(t, value.Bool(true).Falsey())
	assert.False(t, value.Number(0).Falsey())
	assert.False(t, value.FromObj(value.NewRawString("")).Falsey())
}

func TestEqual(t *testing.T) {
	assert.True(t, value.Equal(value.Nil, value.Nil))
	assert.True(t, value.Equal(value.Bool(true), value.Bool(true)))
	assert.False(t, value.Equal(value.Bool(true), value.Bool(false)))
	assert.True(t, value.Equal(value.Number(1), value.Number(1)))
	assert.False(t, value.Equal(value.Number(1), value.Bool(true)))

	nan := value.Number(math.NaN())
	assert.False(t, value.Equal(nan, nan))

	s1 := value.NewRawString("hi")
	s2 := value.NewRawString("hi")
	assert.False(t, value.Equal(value.FromObj(s1), value.FromObj(s2)),
		"distinct (non-interned) ObjStrings with equal content are not == by identity")
	assert.True(t, value.Equal(value.FromObj(s1), value.FromObj(s1)))
}

func TestPrint(t *testing.T) {
	assert.Equal(t, "nil", value.Print(value.Nil))
	assert.Equal(t, "true", value.Print(value.Bool(true)))
	assert.Equal(t, "3", value.Print(value.Number(3)))
	assert.Equal(t, "3.5", value.Print(value.Number(3.5)))
	assert.Equal(t, "-1", value.Print(value.Number(-1)))
	assert.Equal(t, "inf", value.Print(value.Number(math.Inf(1))))
	assert.Equal(t, "nan", value.Print(value.Number(math.NaN())))

	s := value.NewRawString("hi")
	assert.Equal(t, "hi", value.Print(value.FromObj(s)))
}

func TestHashString(t *testing.T) {
	assert.Equal(t, value.HashString("hi"), value.HashString("hi"))
	assert.NotEqual(t, value.HashString("hi"), value.HashString("bye"))
}

func TestChunkConstantLimit(t *testing.T) {
	var c value.Chunk
	for i := 0; i < 256; i++ {
		_, ok := c.AddConstant(value.Number(float64(i)))
		assert.True(t, ok)
	}
	_, ok := c.AddConstant(value.Number(256))
	assert.False(t, ok)
}
