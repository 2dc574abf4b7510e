package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const testScene = `
effects:
  - id: campfire-01
    actor: Campfire
    asset: NS_Fire
    parameters:
      User:
        SpawnRate: 50
        Lifetime: 1.5
        Enabled: true
        Tint: {r: 1, g: 0.5, b: 0.1, a: 1}
        Offset: {x: 0, y: 0, z: 10}
      Emitter:
        Gravity: -980
  - id: sparks-02
    asset: NS_Sparks
    parameters:
      User:
        SpawnRate: 200
`

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	records, err := ParseScene([]byte(testScene))
	require.NoError(t, err)
	return NewMemoryStore(records)
}

var campfire = Target{ID: "campfire-01", Actor: "Campfire", Asset: "NS_Fire"}

type setCall struct {
	Name  string
	Value ParameterValue
}

// recordingStore wraps a store and records every call made to it
type recordingStore struct {
	ParameterStore
	calls int
	sets  []setCall
	fail  map[string]bool
}

func newRecordingStore(inner ParameterStore) *recordingStore {
	return &recordingStore{ParameterStore: inner, fail: map[string]bool{}}
}

func (r *recordingStore) ListTargets(ctx context.Context) ([]Target, error) {
	r.calls++
	return r.ParameterStore.ListTargets(ctx)
}

func (r *recordingStore) ListNames(ctx context.Context, target Target, ns Namespace) ([]string, error) {
	r.calls++
	return r.ParameterStore.ListNames(ctx, target, ns)
}

func (r *recordingStore) Get(ctx context.Context, target Target, name string, ns Namespace) (ParameterValue, error) {
	r.calls++
	return r.ParameterStore.Get(ctx, target, name, ns)
}

func (r *recordingStore) Set(ctx context.Context, target Target, name string, ns Namespace, value ParameterValue) error {
	r.calls++
	r.sets = append(r.sets, setCall{Name: name, Value: value})
	if r.fail[name] {
		return ErrUnknownParameter
	}
	return r.ParameterStore.Set(ctx, target, name, ns, value)
}

// stubCompleter returns a canned completion and counts calls
type stubCompleter struct {
	response string
	err      error
	calls    int
	system   string
	user     string
	model    string
	temp     float64
}

func (s *stubCompleter) Complete(ctx context.Context, systemPrompt, userPrompt, model string, temperature float64) (string, error) {
	s.calls++
	s.system, s.user, s.model, s.temp = systemPrompt, userPrompt, model, temperature
	return s.response, s.err
}
