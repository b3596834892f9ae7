package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassDesc_IsEnum(t *testing.T) {
	cd := &ClassDesc{Flags: ScEnum}
	assert.True(t, cd.IsEnum())

	cd2 := &ClassDesc{Flags: ScSerializable}
	assert.False(t, cd2.IsEnum())
}

func TestClassDesc_Externalizable(t *testing.T) {
	cd := &ClassDesc{Flags: ScExternalizable}
	assert.True(t, cd.Externalizable())
	assert.False(t, (&ClassDesc{Flags: ScSerializable}).Externalizable())
}

func TestClassDesc_HasWriteMethod(t *testing.T) {
	cd := &ClassDesc{Flags: ScSerializable | ScWriteMethod}
	assert.True(t, cd.HasWriteMethod())
	assert.False(t, (&ClassDesc{Flags: ScSerializable}).HasWriteMethod())
}

func TestClassDesc_Hierarchy_RootToLeaf(t *testing.T) {
	root := &ClassDesc{Name: "Root"}
	mid := &ClassDesc{Name: "Mid", Super: root}
	leaf := &ClassDesc{Name: "Leaf", Super: mid}

	chain := leaf.Hierarchy()
	if assert.Len(t, chain, 3) {
		assert.Same(t, root, chain[0])
		assert.Same(t, mid, chain[1])
		assert.Same(t, leaf, chain[2])
	}
}

func TestClassDesc_Hierarchy_SingleLevel(t *testing.T) {
	leaf := &ClassDesc{Name: "Leaf"}
	chain := leaf.Hierarchy()
	if assert.Len(t, chain, 1) {
		assert.Same(t, leaf, chain[0])
	}
}
