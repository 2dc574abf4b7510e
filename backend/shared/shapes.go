package shared

import (
	"encoding/json"
	"fmt"
)

// Shape is the structural class of a decoded JSON or YAML value
type Shape int

// Shape constants, in classification order
const (
	ShapeUnknown Shape = iota
	ShapeBoolean
	ShapeColor
	ShapeVector
	ShapeScalar
	// ShapeUnmatchedObject is an object carrying neither color nor vector keys.
	ShapeUnmatchedObject
)

func (s Shape) String() string {
	switch s {
	case ShapeBoolean:
		return "boolean"
	case ShapeColor:
		return "color"
	case ShapeVector:
		return "vector"
	case ShapeScalar:
		return "scalar"
	case ShapeUnmatchedObject:
		return "unmatched object"
	default:
		return "unknown"
	}
}

// ClassifyShape inspects v, as produced by encoding/json or yaml.v3 decoding
// into interface{}. Booleans are matched before numbers. An object carrying any
// of r, g, b is a color; otherwise any of x, y, z makes it a vector.
func ClassifyShape(v interface{}) Shape {
	if _, ok := v.(bool); ok {
		return ShapeBoolean
	}
	if obj, ok := asObject(v); ok {
		switch {
		case hasAnyKey(obj, "r", "g", "b"):
			return ShapeColor
		case hasAnyKey(obj, "x", "y", "z"):
			return ShapeVector
		default:
			return ShapeUnmatchedObject
		}
	}
	if _, ok := toFloat(v); ok {
		return ShapeScalar
	}
	return ShapeUnknown
}

// ValueFromShape converts v into a parameter value according to its shape.
// Missing color components default to 1.0 and missing vector components to 0.0.
// An error is returned for unknown shapes, unmatched objects and non-numeric components.
func ValueFromShape(v interface{}) (ParameterValue, Shape, error) {
	shape := ClassifyShape(v)
	switch shape {
	case ShapeBoolean:
		return BooleanValue(v.(bool)), shape, nil
	case ShapeScalar:
		f, _ := toFloat(v)
		return ScalarValue(f), shape, nil
	case ShapeColor:
		obj, _ := asObject(v)
		var c Color
		var err error
		if c.R, err = component(obj, "r", 1.0); err != nil {
			return ParameterValue{}, shape, err
		}
		if c.G, err = component(obj, "g", 1.0); err != nil {
			return ParameterValue{}, shape, err
		}
		if c.B, err = component(obj, "b", 1.0); err != nil {
			return ParameterValue{}, shape, err
		}
		if c.A, err = component(obj, "a", 1.0); err != nil {
			return ParameterValue{}, shape, err
		}
		return ColorValue(c), shape, nil
	case ShapeVector:
		obj, _ := asObject(v)
		var vec Vector3
		var err error
		if vec.X, err = component(obj, "x", 0.0); err != nil {
			return ParameterValue{}, shape, err
		}
		if vec.Y, err = component(obj, "y", 0.0); err != nil {
			return ParameterValue{}, shape, err
		}
		if vec.Z, err = component(obj, "z", 0.0); err != nil {
			return ParameterValue{}, shape, err
		}
		return VectorValue(vec), shape, nil
	}
	return ParameterValue{}, shape, fmt.Errorf("unsupported value %v (%s)", v, shape)
}

func asObject(v interface{}) (map[string]interface{}, bool) {
	switch obj := v.(type) {
	case map[string]interface{}:
		return obj, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(obj))
		for k, val := range obj {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func hasAnyKey(obj map[string]interface{}, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

func component(obj map[string]interface{}, key string, def float64) (float64, error) {
	raw, ok := obj[key]
	if !ok {
		return def, nil
	}
	f, ok := toFloat(raw)
	if !ok {
		return 0, fmt.Errorf("component %q is not a number: %v", key, raw)
	}
	return f, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
