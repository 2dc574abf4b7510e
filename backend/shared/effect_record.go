package shared

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

func (r *EffectRecord) find(ns Namespace, name string) int {
	for i, p := range r.Parameters {
		if p.Namespace == ns && p.Name == name {
			return i
		}
	}
	return -1
}

func (r *EffectRecord) names(ns Namespace) []string {
	names := []string{}
	for _, p := range r.Parameters {
		if p.Namespace == ns {
			names = append(names, p.Name)
		}
	}
	return names
}

func (r *EffectRecord) lookup(ns Namespace, name string) (ParameterValue, error) {
	i := r.find(ns, name)
	if i < 0 {
		return ParameterValue{}, fmt.Errorf("%w: %s.%s on %s", ErrUnknownParameter, ns, name, r.ID)
	}
	return r.Parameters[i].Value, nil
}

// assign replaces the value of an existing parameter of the same kind
func (r *EffectRecord) assign(ns Namespace, name string, value ParameterValue) error {
	i := r.find(ns, name)
	if i < 0 {
		return fmt.Errorf("%w: %s.%s on %s", ErrUnknownParameter, ns, name, r.ID)
	}
	if current := r.Parameters[i].Value.Kind; current != value.Kind {
		return fmt.Errorf("%w: %s.%s is %s, got %s", ErrTypeMismatch, ns, name, current, value.Kind)
	}
	r.Parameters[i].Value = value
	return nil
}

// sceneFile is the YAML layout of a scene:
//
//	effects:
//	  - id: campfire-01
//	    actor: Campfire
//	    asset: NS_Fire
//	    parameters:
//	      User:
//	        SpawnRate: 50
//	        Tint: {r: 1, g: 0.4, b: 0.1, a: 1}
type sceneFile struct {
	Effects []struct {
		ID         string               `yaml:"id"`
		Actor      string               `yaml:"actor"`
		Asset      string               `yaml:"asset"`
		Parameters map[string]yaml.Node `yaml:"parameters"`
	} `yaml:"effects"`
}

// LoadScene reads effect instances and their parameters from a YAML scene file
func LoadScene(path string) ([]EffectRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return ParseScene(data)
}

// ParseScene decodes a YAML scene. Parameter order within a namespace is preserved.
func ParseScene(data []byte) ([]EffectRecord, error) {
	var scene sceneFile
	if err := yaml.Unmarshal(data, &scene); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}

	records := make([]EffectRecord, 0, len(scene.Effects))
	for _, effect := range scene.Effects {
		if effect.ID == "" {
			return nil, fmt.Errorf("scene effect without id (actor %q)", effect.Actor)
		}
		for key := range effect.Parameters {
			if !isNamespace(key) {
				return nil, fmt.Errorf("effect %s: unknown namespace %q", effect.ID, key)
			}
		}

		record := EffectRecord{Target: Target{ID: effect.ID, Actor: effect.Actor, Asset: effect.Asset}}

		for _, ns := range Namespaces {
			node, ok := effect.Parameters[string(ns)]
			if !ok {
				continue
			}
			if node.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("effect %s: namespace %s must be a mapping", effect.ID, ns)
			}
			for i := 0; i+1 < len(node.Content); i += 2 {
				name := node.Content[i].Value
				var raw interface{}
				if err := node.Content[i+1].Decode(&raw); err != nil {
					return nil, fmt.Errorf("effect %s: parameter %s: %w", effect.ID, name, err)
				}
				value, _, err := ValueFromShape(raw)
				if err != nil {
					return nil, fmt.Errorf("effect %s: parameter %s: %w", effect.ID, name, err)
				}
				record.Parameters = append(record.Parameters, StoredParameter{Namespace: ns, Name: name, Value: value})
			}
		}

		records = append(records, record)
	}
	return records, nil
}

func isNamespace(s string) bool {
	for _, ns := range Namespaces {
		if string(ns) == s {
			return true
		}
	}
	return false
}
