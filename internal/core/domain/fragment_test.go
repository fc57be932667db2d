package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseContainerKind(t *testing.T) {
	tests := []struct {
		tag  string
		want ContainerKind
	}{
		{"api", ContainerAPI},
		{"sequence", ContainerSequence},
		{"proxy", ContainerProxy},
		{"endpoint", ContainerEndpoint},
		{"localEntry", ContainerLocalEntry},
		{"definitions", ContainerUnknown},
		{"", ContainerUnknown},
		{"API", ContainerUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseContainerKind(tt.tag))
		})
	}
}

func TestFragmentLevel_IsValid(t *testing.T) {
	assert.True(t, LevelContainer.IsValid())
	assert.True(t, LevelFlow.IsValid())
	assert.True(t, LevelLeaf.IsValid())
	assert.False(t, FragmentLevel("mediator").IsValid())
}

func TestSpan(t *testing.T) {
	t.Run("validity", func(t *testing.T) {
		assert.True(t, Span{Start: 3, End: 3}.IsValid())
		assert.True(t, Span{Start: 1, End: 9}.IsValid())
		assert.False(t, Span{Start: 0, End: 2}.IsValid())
		assert.False(t, Span{Start: 5, End: 4}.IsValid())
	})

	t.Run("contains", func(t *testing.T) {
		outer := Span{Start: 2, End: 10}
		assert.True(t, outer.Contains(Span{Start: 2, End: 10}))
		assert.True(t, outer.Contains(Span{Start: 4, End: 4}))
		assert.False(t, outer.Contains(Span{Start: 1, End: 4}))
		assert.False(t, outer.Contains(Span{Start: 9, End: 11}))
	})

	t.Run("string", func(t *testing.T) {
		assert.Equal(t, "4-7", Span{Start: 4, End: 7}.String())
	})
}

func TestFragmentFromTransient(t *testing.T) {
	parent := 0
	tf := TransientFragment{
		LocalIndex:       1,
		ContainerName:    "orders",
		ContainerKind:    ContainerAPI,
		Level:            LevelFlow,
		Kind:             "resource",
		Name:             "/list",
		Span:             Span{Start: 2, End: 8},
		EmbeddingText:    "flow resource /list",
		ParentLocalIndex: &parent,
	}

	f := FragmentFromTransient("/conf/orders.xml", "abc", tf)

	assert.Zero(t, f.ID)
	assert.Nil(t, f.ParentID)
	assert.Equal(t, "/conf/orders.xml", f.DocumentPath)
	assert.Equal(t, "abc", f.DocumentFingerprint)
	assert.Equal(t, "orders", f.ContainerName)
	assert.Equal(t, ContainerAPI, f.ContainerKind)
	assert.Equal(t, LevelFlow, f.Level)
	assert.Equal(t, "resource", f.Kind)
	assert.Equal(t, "/list", f.Name)
	assert.Equal(t, 1, f.LocalIndex)
	assert.Equal(t, Span{Start: 2, End: 8}, f.Span)
	assert.Equal(t, "flow resource /list", f.EmbeddingText)
	assert.True(t, f.IsRoot())
}

func TestSameParent(t *testing.T) {
	one, otherOne, two := int64(1), int64(1), int64(2)

	assert.True(t, SameParent(nil, nil))
	assert.True(t, SameParent(&one, &otherOne))
	assert.False(t, SameParent(&one, &two))
	assert.False(t, SameParent(nil, &one))
	assert.False(t, SameParent(&one, nil))
}
