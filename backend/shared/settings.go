package shared

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SettingsSource is the host-settings fallback consulted after the environment.
// Keys are the lower-cased environment variable names (openai_model, ...).
type SettingsSource interface {
	Lookup(key string) (string, bool)
}

// NoSettings has no values
type NoSettings struct{}

// Lookup always reports absent
func (NoSettings) Lookup(string) (string, bool) {
	return "", false
}

// MapSettings serves settings from memory
type MapSettings map[string]string

// Lookup returns the value for key when it is non-empty
func (m MapSettings) Lookup(key string) (string, bool) {
	v, ok := m[strings.ToLower(key)]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// LoadFileSettings reads a flat YAML settings file
func LoadFileSettings(path string) (MapSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	raw := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse settings file %s: %w", path, err)
	}

	settings := MapSettings{}
	for k, v := range raw {
		if v == nil {
			continue
		}
		settings[strings.ToLower(k)] = fmt.Sprint(v)
	}
	return settings, nil
}

// LoadDynamoSettings reads every row of the settings table once
func LoadDynamoSettings(ctx context.Context, table *Table) (MapSettings, error) {
	var rows []Setting
	if err := table.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("scan settings table: %w", err)
	}

	settings := MapSettings{}
	for _, row := range rows {
		settings[strings.ToLower(row.Key)] = row.Value
	}
	return settings, nil
}
