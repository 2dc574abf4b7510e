package shared

import (
	"fmt"
	"strings"
	"time"
)

// Namespace scopes a parameter name inside an effect instance
type Namespace string

// Namespace constants
const (
	NamespaceUser    Namespace = "User"
	NamespaceEngine  Namespace = "Engine"
	NamespaceSystem  Namespace = "System"
	NamespaceEmitter Namespace = "Emitter"
)

// Namespaces lists every recognized namespace
var Namespaces = []Namespace{NamespaceUser, NamespaceEngine, NamespaceSystem, NamespaceEmitter}

// ParseNamespace resolves a namespace name, ignoring case
func ParseNamespace(s string) (Namespace, error) {
	for _, ns := range Namespaces {
		if strings.EqualFold(strings.TrimSpace(s), string(ns)) {
			return ns, nil
		}
	}
	return "", fmt.Errorf("unknown namespace %q", s)
}

// Kind is the value shape a parameter carries
type Kind string

// Kind constants
const (
	KindScalar  Kind = "scalar"
	KindBoolean Kind = "boolean"
	KindColor   Kind = "color"
	KindVector3 Kind = "vector3"
	KindUnknown Kind = "unknown"
)

// Color is a linear RGBA color. Components are conventionally 0-1 but never clamped.
type Color struct {
	R float64 `json:"r" yaml:"r" dynamodbav:"r"`
	G float64 `json:"g" yaml:"g" dynamodbav:"g"`
	B float64 `json:"b" yaml:"b" dynamodbav:"b"`
	A float64 `json:"a" yaml:"a" dynamodbav:"a"`
}

func (c Color) String() string {
	return fmt.Sprintf("RGBA(%g, %g, %g, %g)", c.R, c.G, c.B, c.A)
}

// Vector3 is a three component vector
type Vector3 struct {
	X float64 `json:"x" yaml:"x" dynamodbav:"x"`
	Y float64 `json:"y" yaml:"y" dynamodbav:"y"`
	Z float64 `json:"z" yaml:"z" dynamodbav:"z"`
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// ParameterValue is a tagged union over the supported parameter kinds.
// Only the payload matching Kind is meaningful.
type ParameterValue struct {
	Kind    Kind     `json:"kind" dynamodbav:"kind"`
	Scalar  float64  `json:"scalar,omitempty" dynamodbav:"scalar,omitempty"`
	Boolean bool     `json:"boolean,omitempty" dynamodbav:"boolean,omitempty"`
	Color   *Color   `json:"color,omitempty" dynamodbav:"color,omitempty"`
	Vector  *Vector3 `json:"vector,omitempty" dynamodbav:"vector,omitempty"`
}

// ScalarValue wraps a float parameter value
func ScalarValue(f float64) ParameterValue {
	return ParameterValue{Kind: KindScalar, Scalar: f}
}

// BooleanValue wraps a bool parameter value
func BooleanValue(b bool) ParameterValue {
	return ParameterValue{Kind: KindBoolean, Boolean: b}
}

// ColorValue wraps a color parameter value
func ColorValue(c Color) ParameterValue {
	return ParameterValue{Kind: KindColor, Color: &c}
}

// VectorValue wraps a vector parameter value
func VectorValue(v Vector3) ParameterValue {
	return ParameterValue{Kind: KindVector3, Vector: &v}
}

func (v ParameterValue) String() string {
	switch v.Kind {
	case KindScalar:
		return fmt.Sprintf("%g", v.Scalar)
	case KindBoolean:
		return fmt.Sprintf("%t", v.Boolean)
	case KindColor:
		if v.Color != nil {
			return v.Color.String()
		}
	case KindVector3:
		if v.Vector != nil {
			return v.Vector.String()
		}
	}
	return "<unknown>"
}

// Target is an opaque handle to one live effect instance owned by the host
type Target struct {
	ID    string `json:"id" yaml:"id" dynamodbav:"targetId"`
	Actor string `json:"actor,omitempty" yaml:"actor" dynamodbav:"actor"`
	Asset string `json:"asset,omitempty" yaml:"asset" dynamodbav:"asset"`
}

// Label renders the target the way the selection shells list it
func (t Target) Label() string {
	actor := t.Actor
	if actor == "" {
		actor = "Unknown"
	}
	asset := t.Asset
	if asset == "" {
		asset = "No Asset"
	}
	return actor + " - " + asset
}

// ParameterSnapshot is one entry of a bulk parameter read
type ParameterSnapshot struct {
	Name  string          `json:"name"`
	Kind  Kind            `json:"kind"`
	Value *ParameterValue `json:"value"`
}

// AdjustmentOutcome is the result of one adjustment request. It is never persisted.
type AdjustmentOutcome struct {
	Success     bool   `json:"success"`
	Succeeded   int    `json:"succeeded"`
	Attempted   int    `json:"attempted"`
	Explanation string `json:"explanation,omitempty"`
	RequestID   string `json:"requestId,omitempty"`
}

// EffectRecord is the persisted form of an effect instance and its parameters
type EffectRecord struct {
	Target
	Parameters []StoredParameter `json:"parameters" dynamodbav:"parameters"`
	CreatedAt  time.Time         `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt" dynamodbav:"updatedAt"`
}

// StoredParameter is one namespaced parameter of an effect record
type StoredParameter struct {
	Namespace Namespace      `json:"namespace" dynamodbav:"namespace"`
	Name      string         `json:"name" dynamodbav:"name"`
	Value     ParameterValue `json:"value" dynamodbav:"value"`
}

// APIResponse is a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AdjustRequest is the body of an adjust call
type AdjustRequest struct {
	Request string `json:"request"`
}

// TargetSummary is a target as listed by the shells
type TargetSummary struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Setting is one row of the settings table
type Setting struct {
	Key   string `json:"settingKey" dynamodbav:"settingKey"`
	Value string `json:"value" dynamodbav:"value"`
}
