package shared

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUserPrompt(t *testing.T) {
	prompt := BuildUserPrompt([]string{"SpawnRate", "Color", "Size"}, "make the fire bigger and redder")

	assert.Contains(t, prompt, "SpawnRate, Color, Size\n")
	assert.Contains(t, prompt, "User request: make the fire bigger and redder\n")
	assert.True(t, strings.Index(prompt, "SpawnRate") < strings.Index(prompt, "User request"),
		"names come before the request")
}

func TestBuildUserPromptNoNames(t *testing.T) {
	prompt := BuildUserPrompt(nil, "more sparks")

	assert.Contains(t, prompt, "User request: more sparks")
}

func TestSystemPromptContract(t *testing.T) {
	for _, want := range []string{`"parameters"`, `"explanation"`, `"r"`, `"x"`, "JSON only"} {
		assert.Contains(t, SystemPrompt, want)
	}
}

func TestSystemPromptExampleIsActionable(t *testing.T) {
	start := strings.Index(SystemPrompt, "Output:\n")
	require.NotEqual(t, -1, start)
	rest := SystemPrompt[start+len("Output:\n"):]
	end := strings.Index(rest, "\n}\n")
	require.NotEqual(t, -1, end)

	example := rest[:end+2]
	require.True(t, json.Valid([]byte(example)), "worked example must be valid JSON: %s", example)

	req, err := ParseAdjustmentRequest(example)
	require.NoError(t, err)
	require.Len(t, req.Adjustments, 2)
	assert.Equal(t, ShapeColor, req.Adjustments[0].Shape)
	assert.Equal(t, ShapeVector, req.Adjustments[1].Shape)
}
