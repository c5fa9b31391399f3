package oba

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueTruthiness(t *testing.T) {
	assert.False(t, NilValue.IsTruthy())
	assert.False(t, BoolValue(false).IsTruthy())
	assert.True(t, BoolValue(true).IsTruthy())
	assert.True(t, NumberValue(0).IsTruthy(), "0 is truthy")
	assert.True(t, ObjectValue(&Object{Kind: ObjStringKind, str: &ObjString{Value: ""}}).IsTruthy(), `"" is truthy`)
}

func TestValueEqual(t *testing.T) {
	assert.True(t, NilValue.Equal(NilValue))
	assert.True(t, NumberValue(1).Equal(NumberValue(1)))
	assert.False(t, NumberValue(1).Equal(NumberValue(2)))
	assert.False(t, NumberValue(1).Equal(BoolValue(true)), "different kinds never compare equal")

	a := &Object{Kind: ObjStringKind, str: &ObjString{Value: "ab"}}
	b := &Object{Kind: ObjStringKind, str: &ObjString{Value: "ab"}}
	assert.True(t, ObjectValue(a).Equal(ObjectValue(b)), "strings compare by content, not identity")

	c := &Object{Kind: ObjStringKind, str: &ObjString{Value: "cd"}}
	assert.False(t, ObjectValue(a).Equal(ObjectValue(c)))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "nil", NilValue.String())
	assert.Equal(t, "true", BoolValue(true).String())
	assert.Equal(t, "false", BoolValue(false).String())
	assert.Equal(t, "3", NumberValue(3).String())
	assert.Equal(t, "3.5", NumberValue(3.5).String())

	fn := &Object{Kind: ObjFunctionKind, function: &ObjFunction{Name: "foo"}}
	assert.Equal(t, "<fn foo>", ObjectValue(fn).String())

	anon := &Object{Kind: ObjFunctionKind, function: &ObjFunction{}}
	assert.Equal(t, "<fn>", ObjectValue(anon).String())
}
