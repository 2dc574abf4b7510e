package shared

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, settings MapSettings) *Config {
	t.Helper()
	clearConfigEnv(t)
	return LoadConfig(settings, nil)
}

func TestAssistantUnavailableWithoutAPIKey(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	cfg := testConfig(t, MapSettings{"openai_base_url": server.URL})
	store := newRecordingStore(newTestStore(t))
	manager := NewParameterManager(store, NamespaceUser, nil)
	assistant := NewAssistant(manager, NewOpenAIClient(cfg), cfg, nil)

	assert.False(t, assistant.IsAvailable())

	outcome := assistant.AdjustParameters(context.Background(), campfire, "make it bigger")
	assert.False(t, outcome.Success)
	assert.Zero(t, outcome.Attempted)
	assert.NotEmpty(t, outcome.RequestID)
	assert.Zero(t, calls)
	assert.Zero(t, store.calls)
}

func TestAssistantNilCompleter(t *testing.T) {
	cfg := testConfig(t, MapSettings{"openai_api_key": "sk-test"})
	assistant := NewAssistant(NewParameterManager(newTestStore(t), NamespaceUser, nil), nil, cfg, nil)

	assert.False(t, assistant.IsAvailable())
	assert.False(t, assistant.AdjustParameters(context.Background(), campfire, "x").Success)
}

func TestAssistantAdjustParameters(t *testing.T) {
	cfg := testConfig(t, MapSettings{"openai_api_key": "sk-test", "openai_model": "gpt-4o", "openai_temperature": "0.2"})
	store := newRecordingStore(newTestStore(t))
	completer := &stubCompleter{response: `{"parameters": {"SpawnRate": 150, "Tint": {"r": 1, "g": 0.2, "b": 0.1}}, "explanation": "bigger and redder"}`}
	assistant := NewAssistant(NewParameterManager(store, NamespaceUser, nil), completer, cfg, nil)

	outcome := assistant.AdjustParameters(context.Background(), campfire, "make the fire bigger and redder")

	assert.True(t, outcome.Success)
	assert.Equal(t, 2, outcome.Succeeded)
	assert.Equal(t, 2, outcome.Attempted)
	assert.Equal(t, "bigger and redder", outcome.Explanation)
	assert.NotEmpty(t, outcome.RequestID)

	assert.Equal(t, 1, completer.calls)
	assert.Equal(t, SystemPrompt, completer.system)
	assert.Equal(t, BuildUserPrompt([]string{"SpawnRate", "Lifetime", "Enabled", "Tint", "Offset"}, "make the fire bigger and redder"), completer.user)
	assert.Equal(t, "gpt-4o", completer.model)
	assert.Equal(t, 0.2, completer.temp)
}

func TestAssistantFailures(t *testing.T) {
	tests := []struct {
		name      string
		completer *stubCompleter
	}{
		{"provider error", &stubCompleter{err: errors.New("connection refused")}},
		{"malformed json", &stubCompleter{response: `Sure! Here is {"parameters"`}},
		{"parameters not object", &stubCompleter{response: `{"parameters": ["SpawnRate"]}`}},
		{"nothing actionable", &stubCompleter{response: `{"parameters": {}, "explanation": "no change"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, MapSettings{"openai_api_key": "sk-test"})
			store := newRecordingStore(newTestStore(t))
			assistant := NewAssistant(NewParameterManager(store, NamespaceUser, nil), tt.completer, cfg, nil)

			outcome := assistant.AdjustParameters(context.Background(), campfire, "do something")

			assert.False(t, outcome.Success)
			assert.Zero(t, outcome.Attempted)
			assert.Empty(t, store.sets)
		})
	}
}

func TestAssistantInvalidTarget(t *testing.T) {
	cfg := testConfig(t, MapSettings{"openai_api_key": "sk-test"})
	completer := &stubCompleter{response: `{"parameters": {"SpawnRate": 1}}`}
	assistant := NewAssistant(NewParameterManager(newTestStore(t), NamespaceUser, nil), completer, cfg, nil)

	outcome := assistant.AdjustParameters(context.Background(), Target{ID: "gone"}, "bigger")

	assert.False(t, outcome.Success)
	assert.Zero(t, completer.calls)
}

func TestAssistantEndToEndOverHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"parameters\":{\"Offset\":{\"x\":5.0}},\"explanation\":\"moved\"}"}}]}`))
	}))
	defer server.Close()

	cfg := testConfig(t, MapSettings{"openai_api_key": "sk-test", "openai_base_url": server.URL + "/"})
	store := newTestStore(t)
	manager := NewParameterManager(store, NamespaceUser, nil)
	assistant := NewAssistant(manager, NewOpenAIClient(cfg), cfg, nil)
	require.True(t, assistant.IsAvailable())

	outcome := assistant.AdjustParameters(context.Background(), campfire, "move it along x")
	require.True(t, outcome.Success)
	assert.Equal(t, "moved", outcome.Explanation)

	offset, err := manager.GetVector(context.Background(), campfire, "Offset")
	require.NoError(t, err)
	assert.Equal(t, Vector3{X: 5}, offset)
}
