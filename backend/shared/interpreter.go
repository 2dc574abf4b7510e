package shared

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

// Interpreter errors
var (
	ErrParse             = errors.New("completion is not a valid adjustment object")
	ErrNothingActionable = errors.New("completion contains no parameter adjustments")
)

// DefaultExplanation is used when the completion carries no explanation
const DefaultExplanation = "no explanation"

const envelopeSchema = `{
	"type": "object",
	"properties": {
		"parameters": {"type": ["object", "null"]}
	}
}`

var envelope = jsonschema.MustCompileString("adjustment-envelope.json", envelopeSchema)

// Adjustment is one named value change classified by its JSON shape
type Adjustment struct {
	Name  string
	Shape Shape
	// Value is set for boolean, color, vector and scalar shapes.
	Value ParameterValue
	// Err is set when a color or vector component is not a number.
	Err error
	Raw interface{}
}

// AdjustmentRequest is the parsed completion, in response key order
type AdjustmentRequest struct {
	Adjustments []Adjustment
	Explanation string
}

// ParseAdjustmentRequest parses completion text. Any failure rejects the whole request.
func ParseAdjustmentRequest(text string) (*AdjustmentRequest, error) {
	var doc interface{}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := envelope.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var env struct {
		Parameters  json.RawMessage `json:"parameters"`
		Explanation json.RawMessage `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	req := &AdjustmentRequest{Explanation: explanationText(env.Explanation)}

	fields, err := decodeOrdered(env.Parameters)
	if err != nil {
		return nil, fmt.Errorf("%w: parameters: %v", ErrParse, err)
	}
	for _, f := range fields {
		adj := Adjustment{Name: f.name, Raw: f.value}
		adj.Value, adj.Shape, adj.Err = ValueFromShape(f.value)
		if adj.Shape == ShapeUnknown || adj.Shape == ShapeUnmatchedObject {
			adj.Err = nil
		}
		req.Adjustments = append(req.Adjustments, adj)
	}
	return req, nil
}

func explanationText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return DefaultExplanation
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

type orderedField struct {
	name  string
	value interface{}
}

// decodeOrdered decodes a JSON object keeping key order. Empty or null input yields no fields.
// A repeated key keeps its first position and takes its last value.
func decodeOrdered(raw json.RawMessage) ([]orderedField, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var fields []orderedField
	seen := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", keyTok)
		}
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		if i, ok := seen[key]; ok {
			fields[i].value = value
			continue
		}
		seen[key] = len(fields)
		fields = append(fields, orderedField{name: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

// Interpreter applies parsed adjustments through a parameter manager
type Interpreter struct {
	manager *ParameterManager
	logger  *zap.Logger
}

// NewInterpreter creates an interpreter writing through manager
func NewInterpreter(manager *ParameterManager, logger *zap.Logger) *Interpreter {
	return &Interpreter{
		manager: manager,
		logger:  componentLogger(logger, "interpreter"),
	}
}

// Apply writes every classified adjustment independently. Attempted counts
// boolean, color, vector and scalar adjustments; unmatched objects and unknown
// shapes are not counted. The outcome succeeds when at least one write lands.
// An empty request returns ErrNothingActionable alongside a failed outcome.
func (i *Interpreter) Apply(ctx context.Context, target Target, req *AdjustmentRequest) (AdjustmentOutcome, error) {
	outcome := AdjustmentOutcome{Explanation: req.Explanation}

	if len(req.Adjustments) == 0 {
		i.logger.Warn("AI returned no parameter adjustments")
		return outcome, ErrNothingActionable
	}

	for _, adj := range req.Adjustments {
		log := i.logger.With(zap.String("name", adj.Name), zap.Stringer("shape", adj.Shape))

		var err error
		switch adj.Shape {
		case ShapeUnmatchedObject:
			log.Debug("Skipping object without color or vector keys", zap.Any("value", adj.Raw))
			continue
		case ShapeUnknown:
			log.Warn("Unknown parameter value type", zap.Any("value", adj.Raw))
			continue
		case ShapeBoolean:
			outcome.Attempted++
			err = i.manager.SetBoolean(ctx, target, adj.Name, adj.Value.Boolean)
		case ShapeColor:
			outcome.Attempted++
			if err = adj.Err; err == nil {
				err = i.manager.SetColor(ctx, target, adj.Name, *adj.Value.Color)
			}
		case ShapeVector:
			outcome.Attempted++
			if err = adj.Err; err == nil {
				err = i.manager.SetVector(ctx, target, adj.Name, *adj.Value.Vector)
			}
		case ShapeScalar:
			outcome.Attempted++
			err = i.manager.SetScalar(ctx, target, adj.Name, adj.Value.Scalar)
		}

		if err != nil {
			log.Warn("Adjustment rejected", zap.Error(err))
			continue
		}
		outcome.Succeeded++
	}

	outcome.Success = outcome.Succeeded > 0
	i.logger.Info("Adjustment result",
		zap.Int("succeeded", outcome.Succeeded),
		zap.Int("attempted", outcome.Attempted))
	return outcome, nil
}
