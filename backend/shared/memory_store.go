package shared

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process parameter store standing in for a host scene
type MemoryStore struct {
	mu      sync.RWMutex
	records []*EffectRecord
}

// NewMemoryStore copies records into a new store, preserving their order
func NewMemoryStore(records []EffectRecord) *MemoryStore {
	s := &MemoryStore{}
	now := time.Now()
	for i := range records {
		r := records[i]
		r.Parameters = append([]StoredParameter(nil), r.Parameters...)
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		r.UpdatedAt = now
		s.records = append(s.records, &r)
	}
	return s
}

func (s *MemoryStore) record(target Target) (*EffectRecord, error) {
	for _, r := range s.records {
		if r.ID == target.ID {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, target.ID)
}

// ListTargets returns every effect instance in load order
func (s *MemoryStore) ListTargets(ctx context.Context) ([]Target, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	targets := make([]Target, 0, len(s.records))
	for _, r := range s.records {
		targets = append(targets, r.Target)
	}
	return targets, nil
}

// ListNames returns the parameter names of target in ns
func (s *MemoryStore) ListNames(ctx context.Context, target Target, ns Namespace) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := s.record(target)
	if err != nil {
		return nil, err
	}
	return r.names(ns), nil
}

// KindOf returns the declared kind of a parameter
func (s *MemoryStore) KindOf(ctx context.Context, target Target, name string, ns Namespace) (Kind, error) {
	v, err := s.Get(ctx, target, name, ns)
	if err != nil {
		return KindUnknown, err
	}
	return v.Kind, nil
}

// Get reads a parameter value
func (s *MemoryStore) Get(ctx context.Context, target Target, name string, ns Namespace) (ParameterValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := s.record(target)
	if err != nil {
		return ParameterValue{}, err
	}
	return r.lookup(ns, name)
}

// Set writes a parameter value of the parameter's existing kind
func (s *MemoryStore) Set(ctx context.Context, target Target, name string, ns Namespace, value ParameterValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.record(target)
	if err != nil {
		return err
	}
	if err := r.assign(ns, name, value); err != nil {
		return err
	}
	r.UpdatedAt = time.Now()
	return nil
}
