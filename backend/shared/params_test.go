package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScene(t *testing.T) {
	records, err := ParseScene([]byte(testScene))
	require.NoError(t, err)
	require.Len(t, records, 2)

	fire := records[0]
	assert.Equal(t, "Campfire - NS_Fire", fire.Label())
	assert.Equal(t, []string{"SpawnRate", "Lifetime", "Enabled", "Tint", "Offset"}, fire.names(NamespaceUser))
	assert.Equal(t, []string{"Gravity"}, fire.names(NamespaceEmitter))

	tint, err := fire.lookup(NamespaceUser, "Tint")
	require.NoError(t, err)
	assert.Equal(t, ColorValue(Color{R: 1, G: 0.5, B: 0.1, A: 1}), tint)

	enabled, err := fire.lookup(NamespaceUser, "Enabled")
	require.NoError(t, err)
	assert.Equal(t, BooleanValue(true), enabled)

	assert.Equal(t, "Unknown - NS_Sparks", records[1].Label())
}

func TestParseSceneRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		scene string
	}{
		{"missing id", "effects:\n  - actor: A\n"},
		{"unknown namespace", "effects:\n  - id: a\n    parameters:\n      Particle:\n        X: 1\n"},
		{"unsupported value", "effects:\n  - id: a\n    parameters:\n      User:\n        Name: hello\n"},
		{"namespace not a mapping", "effects:\n  - id: a\n    parameters:\n      User: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScene([]byte(tt.scene))
			assert.Error(t, err)
		})
	}
}

func TestParameterManagerTypedAccess(t *testing.T) {
	ctx := context.Background()
	m := NewParameterManager(newTestStore(t), NamespaceUser, nil)

	require.NoError(t, m.SetScalar(ctx, campfire, "SpawnRate", 120))
	rate, err := m.GetScalar(ctx, campfire, "SpawnRate")
	require.NoError(t, err)
	assert.Equal(t, 120.0, rate)

	require.NoError(t, m.SetBoolean(ctx, campfire, "Enabled", false))
	enabled, err := m.GetBoolean(ctx, campfire, "Enabled")
	require.NoError(t, err)
	assert.False(t, enabled)

	red := Color{R: 1, G: 0, B: 0, A: 1}
	require.NoError(t, m.SetColor(ctx, campfire, "Tint", red))
	tint, err := m.GetColor(ctx, campfire, "Tint")
	require.NoError(t, err)
	assert.Equal(t, red, tint)

	up := Vector3{X: 0, Y: 0, Z: 50}
	require.NoError(t, m.SetVector(ctx, campfire, "Offset", up))
	offset, err := m.GetVector(ctx, campfire, "Offset")
	require.NoError(t, err)
	assert.Equal(t, up, offset)
}

func TestParameterManagerWriteErrors(t *testing.T) {
	ctx := context.Background()
	m := NewParameterManager(newTestStore(t), NamespaceUser, nil)

	assert.ErrorIs(t, m.SetScalar(ctx, campfire, "Missing", 1), ErrUnknownParameter)
	assert.ErrorIs(t, m.SetScalar(ctx, campfire, "Tint", 1), ErrTypeMismatch)
	assert.ErrorIs(t, m.SetScalar(ctx, Target{ID: "gone"}, "SpawnRate", 1), ErrInvalidTarget)
	assert.ErrorIs(t, m.SetScalar(ctx, campfire, "Gravity", 1), ErrUnknownParameter, "Gravity lives in Emitter")
}

func TestParameterManagerReadDefaults(t *testing.T) {
	ctx := context.Background()
	m := NewParameterManager(newTestStore(t), NamespaceUser, nil)

	color, err := m.GetColor(ctx, campfire, "SpawnRate")
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Equal(t, Color{R: 1, G: 1, B: 1, A: 1}, color)

	vec, err := m.GetVector(ctx, campfire, "Missing")
	assert.ErrorIs(t, err, ErrUnknownParameter)
	assert.Equal(t, Vector3{}, vec)
}

func TestParameterManagerNamespaceBinding(t *testing.T) {
	ctx := context.Background()
	m := NewParameterManager(newTestStore(t), NamespaceEmitter, nil)

	names, err := m.ParameterNames(ctx, campfire)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gravity"}, names)
	assert.Equal(t, NamespaceEmitter, m.Namespace())

	assert.Equal(t, NamespaceUser, NewParameterManager(newTestStore(t), "", nil).Namespace())
}

func TestGetAllParameters(t *testing.T) {
	ctx := context.Background()
	m := NewParameterManager(newTestStore(t), NamespaceUser, nil)

	snapshots, err := m.GetAllParameters(ctx, campfire)
	require.NoError(t, err)
	require.Len(t, snapshots, 5)

	kinds := map[string]Kind{}
	for _, s := range snapshots {
		kinds[s.Name] = s.Kind
		require.NotNil(t, s.Value, s.Name)
	}
	assert.Equal(t, map[string]Kind{
		"SpawnRate": KindScalar,
		"Lifetime":  KindScalar,
		"Enabled":   KindBoolean,
		"Tint":      KindColor,
		"Offset":    KindVector3,
	}, kinds)
}

// kindlessStore reports every kind as unreadable
type kindlessStore struct {
	ParameterStore
}

func (kindlessStore) KindOf(ctx context.Context, target Target, name string, ns Namespace) (Kind, error) {
	return KindUnknown, ErrUnknownParameter
}

func TestGetAllParametersUnknownKind(t *testing.T) {
	m := NewParameterManager(kindlessStore{newTestStore(t)}, NamespaceUser, nil)

	snapshots, err := m.GetAllParameters(context.Background(), campfire)
	require.NoError(t, err)
	for _, s := range snapshots {
		assert.Equal(t, KindUnknown, s.Kind)
		assert.Nil(t, s.Value)
	}
}

func TestGetAllParametersInvalidTarget(t *testing.T) {
	m := NewParameterManager(newTestStore(t), NamespaceUser, nil)

	_, err := m.GetAllParameters(context.Background(), Target{ID: "gone"})
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestMemoryStoreTargetsInOrder(t *testing.T) {
	targets, err := newTestStore(t).ListTargets(context.Background())
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "campfire-01", targets[0].ID)
	assert.Equal(t, "sparks-02", targets[1].ID)
}
