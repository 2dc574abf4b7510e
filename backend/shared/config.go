package shared

import (
	"math"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Environment variables and defaults
const (
	EnvAPIKey      = "OPENAI_API_KEY"
	EnvModel       = "OPENAI_MODEL"
	EnvTemperature = "OPENAI_TEMPERATURE"
	EnvBaseURL     = "OPENAI_BASE_URL"
	EnvNamespace   = "FXTUNE_NAMESPACE"

	DefaultModel       = "gpt-4"
	DefaultTemperature = 0.7
	DefaultNamespace   = NamespaceUser
	MaxTemperature     = 2.0
	DefaultBaseURL     = "https://api.openai.com/v1"
)

// Config holds the resolved credentials and tunables
type Config struct {
	apiKey      string
	model       string
	temperature float64
	namespace   Namespace
	baseURL     string
	issues      []string
}

// LoadConfig resolves every setting: environment first, then settings, then the default.
// Missing or invalid values are logged and never fatal.
func LoadConfig(settings SettingsSource, logger *zap.Logger) *Config {
	if settings == nil {
		settings = NoSettings{}
	}
	log := componentLogger(logger, "config")
	c := &Config{}

	if key, source, ok := lookup(settings, EnvAPIKey); ok {
		log.Info("Loaded OpenAI API key", zap.String("source", source))
		c.apiKey = key
	} else {
		log.Warn("No OpenAI API key found, set " + EnvAPIKey)
		c.issues = append(c.issues, "missing OpenAI API key")
	}

	c.model = DefaultModel
	if model, _, ok := lookup(settings, EnvModel); ok {
		c.model = model
	}

	c.temperature = DefaultTemperature
	if raw, source, ok := lookup(settings, EnvTemperature); ok {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(t) || t < 0 || t > MaxTemperature {
			log.Error("Invalid temperature, using default",
				zap.String("source", source),
				zap.String("value", raw),
				zap.Float64("default", DefaultTemperature))
			c.issues = append(c.issues, "invalid temperature "+strconv.Quote(raw))
		} else {
			c.temperature = t
		}
	}

	c.namespace = DefaultNamespace
	if raw, source, ok := lookup(settings, EnvNamespace); ok {
		ns, err := ParseNamespace(raw)
		if err != nil {
			log.Error("Invalid namespace, using default",
				zap.String("source", source),
				zap.String("value", raw),
				zap.String("default", string(DefaultNamespace)))
			c.issues = append(c.issues, "invalid namespace "+strconv.Quote(raw))
		} else {
			c.namespace = ns
		}
	}

	c.baseURL = DefaultBaseURL
	if base, _, ok := lookup(settings, EnvBaseURL); ok {
		c.baseURL = strings.TrimRight(base, "/")
	}

	return c
}

// lookup reads key from the environment, falling back to settings
func lookup(settings SettingsSource, key string) (value, source string, ok bool) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v, "environment", true
	}
	if v, ok := settings.Lookup(strings.ToLower(key)); ok {
		return strings.TrimSpace(v), "settings", true
	}
	return "", "", false
}

// APIKey returns the API key, if one is configured
func (c *Config) APIKey() (string, bool) {
	return c.apiKey, c.apiKey != ""
}

// Model returns the completion model identifier
func (c *Config) Model() string {
	return c.model
}

// Temperature returns the sampling temperature, always within [0, MaxTemperature]
func (c *Config) Temperature() float64 {
	return c.temperature
}

// DefaultNamespace returns the namespace new parameter managers bind to
func (c *Config) DefaultNamespace() Namespace {
	return c.namespace
}

// BaseURL returns the completion provider base URL
func (c *Config) BaseURL() string {
	return c.baseURL
}

// Validate reports every configuration problem found while loading
func (c *Config) Validate() []string {
	return append([]string(nil), c.issues...)
}
