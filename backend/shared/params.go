package shared

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Store errors
var (
	ErrInvalidTarget    = errors.New("invalid target")
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrTypeMismatch     = errors.New("parameter type mismatch")
)

// ParameterStore is the host capability that owns effect instances and their parameters
type ParameterStore interface {
	ListTargets(ctx context.Context) ([]Target, error)
	ListNames(ctx context.Context, target Target, ns Namespace) ([]string, error)
	// KindOf reports the declared kind of a parameter.
	KindOf(ctx context.Context, target Target, name string, ns Namespace) (Kind, error)
	Get(ctx context.Context, target Target, name string, ns Namespace) (ParameterValue, error)
	// Set rejects values whose kind differs from the parameter's kind with ErrTypeMismatch.
	Set(ctx context.Context, target Target, name string, ns Namespace, value ParameterValue) error
}

// ParameterManager provides typed access to one namespace of a parameter store
type ParameterManager struct {
	store     ParameterStore
	namespace Namespace
	logger    *zap.Logger
}

// NewParameterManager binds a manager to ns for its lifetime
func NewParameterManager(store ParameterStore, ns Namespace, logger *zap.Logger) *ParameterManager {
	if ns == "" {
		ns = DefaultNamespace
	}
	return &ParameterManager{
		store:     store,
		namespace: ns,
		logger:    componentLogger(logger, "params").With(zap.String("namespace", string(ns))),
	}
}

// Namespace returns the bound namespace
func (m *ParameterManager) Namespace() Namespace {
	return m.namespace
}

// Targets lists every effect instance in the host scene
func (m *ParameterManager) Targets(ctx context.Context) ([]Target, error) {
	targets, err := m.store.ListTargets(ctx)
	if err != nil {
		m.logger.Error("Failed to list targets", zap.Error(err))
		return nil, err
	}
	m.logger.Info("Found targets", zap.Int("count", len(targets)))
	return targets, nil
}

// ParameterNames lists the parameter names of target in the bound namespace
func (m *ParameterManager) ParameterNames(ctx context.Context, target Target) ([]string, error) {
	names, err := m.store.ListNames(ctx, target, m.namespace)
	if err != nil {
		m.logger.Error("Failed to list parameter names", zap.String("target", target.ID), zap.Error(err))
		return nil, err
	}
	return names, nil
}

func (m *ParameterManager) get(ctx context.Context, target Target, name string, kind Kind) (ParameterValue, error) {
	value, err := m.store.Get(ctx, target, name, m.namespace)
	if err != nil {
		m.logger.Warn("Failed to read parameter",
			zap.String("target", target.ID),
			zap.String("name", name),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return ParameterValue{}, err
	}
	if value.Kind != kind {
		err := fmt.Errorf("%w: %s is %s, not %s", ErrTypeMismatch, name, value.Kind, kind)
		m.logger.Warn("Failed to read parameter", zap.String("target", target.ID), zap.Error(err))
		return ParameterValue{}, err
	}
	return value, nil
}

// GetScalar reads a float parameter. On failure it returns 0 and the error.
func (m *ParameterManager) GetScalar(ctx context.Context, target Target, name string) (float64, error) {
	v, err := m.get(ctx, target, name, KindScalar)
	if err != nil {
		return 0, err
	}
	return v.Scalar, nil
}

// GetBoolean reads a bool parameter. On failure it returns false and the error.
func (m *ParameterManager) GetBoolean(ctx context.Context, target Target, name string) (bool, error) {
	v, err := m.get(ctx, target, name, KindBoolean)
	if err != nil {
		return false, err
	}
	return v.Boolean, nil
}

// GetColor reads a color parameter. On failure it returns opaque white and the error.
func (m *ParameterManager) GetColor(ctx context.Context, target Target, name string) (Color, error) {
	v, err := m.get(ctx, target, name, KindColor)
	if err != nil || v.Color == nil {
		return Color{R: 1, G: 1, B: 1, A: 1}, err
	}
	return *v.Color, nil
}

// GetVector reads a vector parameter. On failure it returns the zero vector and the error.
func (m *ParameterManager) GetVector(ctx context.Context, target Target, name string) (Vector3, error) {
	v, err := m.get(ctx, target, name, KindVector3)
	if err != nil || v.Vector == nil {
		return Vector3{}, err
	}
	return *v.Vector, nil
}

// set writes one value and logs the old and new value on success
func (m *ParameterManager) set(ctx context.Context, target Target, name string, value ParameterValue) error {
	old, oldErr := m.store.Get(ctx, target, name, m.namespace)

	if err := m.store.Set(ctx, target, name, m.namespace, value); err != nil {
		m.logger.Error("Failed to write parameter",
			zap.String("target", target.ID),
			zap.String("name", name),
			zap.String("kind", string(value.Kind)),
			zap.Stringer("value", value),
			zap.Error(err))
		return fmt.Errorf("set %s parameter %s: %w", value.Kind, name, err)
	}

	fields := []zap.Field{
		zap.String("target", target.ID),
		zap.String("name", name),
		zap.String("kind", string(value.Kind)),
		zap.Stringer("new", value),
	}
	if oldErr == nil {
		fields = append(fields, zap.Stringer("old", old))
	}
	m.logger.Info("parameter written", fields...)
	return nil
}

// SetScalar writes a float parameter
func (m *ParameterManager) SetScalar(ctx context.Context, target Target, name string, value float64) error {
	return m.set(ctx, target, name, ScalarValue(value))
}

// SetBoolean writes a bool parameter
func (m *ParameterManager) SetBoolean(ctx context.Context, target Target, name string, value bool) error {
	return m.set(ctx, target, name, BooleanValue(value))
}

// SetColor writes a color parameter
func (m *ParameterManager) SetColor(ctx context.Context, target Target, name string, value Color) error {
	return m.set(ctx, target, name, ColorValue(value))
}

// SetVector writes a vector parameter
func (m *ParameterManager) SetVector(ctx context.Context, target Target, name string, value Vector3) error {
	return m.set(ctx, target, name, VectorValue(value))
}

// GetAllParameters reads every parameter of target using the store's declared kinds.
// A parameter whose kind or value cannot be read is reported as unknown with a nil value.
func (m *ParameterManager) GetAllParameters(ctx context.Context, target Target) ([]ParameterSnapshot, error) {
	names, err := m.ParameterNames(ctx, target)
	if err != nil {
		return nil, err
	}

	snapshots := make([]ParameterSnapshot, 0, len(names))
	for _, name := range names {
		snapshot := ParameterSnapshot{Name: name, Kind: KindUnknown}

		kind, err := m.store.KindOf(ctx, target, name, m.namespace)
		if err != nil {
			m.logger.Warn("Failed to resolve parameter kind", zap.String("name", name), zap.Error(err))
			snapshots = append(snapshots, snapshot)
			continue
		}

		if kind != KindUnknown {
			if value, err := m.get(ctx, target, name, kind); err == nil {
				snapshot.Kind = kind
				snapshot.Value = &value
			}
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}
