package shared

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DynamoStore keeps one item per effect instance in a DynamoDB table keyed by targetId.
// Writes are read-modify-write on the whole item; concurrent writers race and the last write wins.
type DynamoStore struct {
	table  *Table
	logger *zap.Logger
}

// NewDynamoStore creates a store over the effects table
func NewDynamoStore(table *Table, logger *zap.Logger) *DynamoStore {
	return &DynamoStore{
		table:  table,
		logger: componentLogger(logger, "dynamo-store"),
	}
}

func (s *DynamoStore) load(ctx context.Context, target Target) (*EffectRecord, error) {
	var record EffectRecord
	found, err := s.table.GetItem(ctx, StringKey("targetId", target.ID), &record)
	if err != nil {
		return nil, fmt.Errorf("load effect %s: %w", target.ID, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, target.ID)
	}
	return &record, nil
}

// ListTargets scans the table for every effect instance
func (s *DynamoStore) ListTargets(ctx context.Context) ([]Target, error) {
	var records []EffectRecord
	if err := s.table.Scan(ctx, &records); err != nil {
		return nil, fmt.Errorf("list effects: %w", err)
	}

	targets := make([]Target, 0, len(records))
	for _, r := range records {
		targets = append(targets, r.Target)
	}
	return targets, nil
}

// ListNames returns the parameter names of target in ns
func (s *DynamoStore) ListNames(ctx context.Context, target Target, ns Namespace) ([]string, error) {
	record, err := s.load(ctx, target)
	if err != nil {
		return nil, err
	}
	return record.names(ns), nil
}

// KindOf returns the declared kind of a parameter
func (s *DynamoStore) KindOf(ctx context.Context, target Target, name string, ns Namespace) (Kind, error) {
	v, err := s.Get(ctx, target, name, ns)
	if err != nil {
		return KindUnknown, err
	}
	return v.Kind, nil
}

// Get reads a parameter value
func (s *DynamoStore) Get(ctx context.Context, target Target, name string, ns Namespace) (ParameterValue, error) {
	record, err := s.load(ctx, target)
	if err != nil {
		return ParameterValue{}, err
	}
	return record.lookup(ns, name)
}

// Set writes a parameter value of the parameter's existing kind
func (s *DynamoStore) Set(ctx context.Context, target Target, name string, ns Namespace, value ParameterValue) error {
	record, err := s.load(ctx, target)
	if err != nil {
		return err
	}
	if err := record.assign(ns, name, value); err != nil {
		return err
	}
	record.UpdatedAt = time.Now()

	if err := s.table.PutItem(ctx, record); err != nil {
		return fmt.Errorf("save effect %s: %w", target.ID, err)
	}
	s.logger.Debug("Saved effect", zap.String("target", target.ID), zap.String("name", name))
	return nil
}

// PutEffect creates or replaces an effect instance
func (s *DynamoStore) PutEffect(ctx context.Context, record EffectRecord) error {
	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	return s.table.PutItem(ctx, record)
}
