package shared

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyShape(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  Shape
	}{
		{"true", true, ShapeBoolean},
		{"false", false, ShapeBoolean},
		{"float", 2.5, ShapeScalar},
		{"int", 3, ShapeScalar},
		{"json number", json.Number("0"), ShapeScalar},
		{"color", map[string]interface{}{"r": 1.0, "g": 0.0, "b": 0.0}, ShapeColor},
		{"color wins over vector", map[string]interface{}{"r": 1.0, "x": 0.0}, ShapeColor},
		{"vector", map[string]interface{}{"x": 1.0, "y": 2.0, "z": 3.0}, ShapeVector},
		{"yaml map", map[interface{}]interface{}{"x": 1, "y": 2, "z": 3}, ShapeVector},
		{"alpha only", map[string]interface{}{"a": 0.5}, ShapeUnmatchedObject},
		{"empty object", map[string]interface{}{}, ShapeUnmatchedObject},
		{"string", "1.0", ShapeUnknown},
		{"array", []interface{}{1.0, 2.0}, ShapeUnknown},
		{"null", nil, ShapeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyShape(tt.value))
		})
	}
}

func TestValueFromShapeDefaults(t *testing.T) {
	v, shape, err := ValueFromShape(map[string]interface{}{"b": 0.5})
	require.NoError(t, err)
	assert.Equal(t, ShapeColor, shape)
	assert.Equal(t, Color{R: 1, G: 1, B: 0.5, A: 1}, *v.Color)

	v, shape, err = ValueFromShape(map[string]interface{}{"z": -2.0})
	require.NoError(t, err)
	assert.Equal(t, ShapeVector, shape)
	assert.Equal(t, Vector3{Z: -2}, *v.Vector)
}

func TestValueFromShapeErrors(t *testing.T) {
	_, shape, err := ValueFromShape(map[string]interface{}{"r": "max", "g": 0.0, "b": 0.0})
	assert.Equal(t, ShapeColor, shape)
	assert.Error(t, err)

	_, shape, err = ValueFromShape(map[string]interface{}{"x": 1.0, "y": nil, "z": 0.0})
	assert.Equal(t, ShapeVector, shape)
	assert.Error(t, err)

	_, shape, err = ValueFromShape("hot")
	assert.Equal(t, ShapeUnknown, shape)
	assert.Error(t, err)
}

func TestParameterValueString(t *testing.T) {
	assert.Equal(t, "1.5", ScalarValue(1.5).String())
	assert.Equal(t, "true", BooleanValue(true).String())
	assert.Equal(t, "RGBA(1, 0, 0, 1)", ColorValue(Color{R: 1, A: 1}).String())
	assert.Equal(t, "(1, 2, 3)", VectorValue(Vector3{X: 1, Y: 2, Z: 3}).String())
	assert.Equal(t, "<unknown>", ParameterValue{Kind: KindUnknown}.String())
}
