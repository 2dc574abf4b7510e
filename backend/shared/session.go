package shared

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Session is one tool session: a snapshot of the scene's targets plus the
// assistant used to adjust them. Callers create it, use it and discard it.
type Session struct {
	manager   *ParameterManager
	assistant *Assistant
	targets   []Target
	logger    *zap.Logger
}

// NewSession creates a session over manager and assistant. Call Refresh before selecting.
func NewSession(manager *ParameterManager, assistant *Assistant, logger *zap.Logger) *Session {
	return &Session{
		manager:   manager,
		assistant: assistant,
		logger:    componentLogger(logger, "session"),
	}
}

// NewSessionFromConfig builds the manager, completion client and assistant for store
func NewSessionFromConfig(store ParameterStore, cfg *Config, logger *zap.Logger) *Session {
	manager := NewParameterManager(store, cfg.DefaultNamespace(), logger)
	assistant := NewAssistant(manager, NewOpenAIClient(cfg), cfg, logger)
	return NewSession(manager, assistant, logger)
}

// Manager returns the session's parameter manager
func (s *Session) Manager() *ParameterManager {
	return s.manager
}

// Assistant returns the session's assistant
func (s *Session) Assistant() *Assistant {
	return s.assistant
}

// Refresh re-reads the targets present in the scene
func (s *Session) Refresh(ctx context.Context) error {
	targets, err := s.manager.Targets(ctx)
	if err != nil {
		return err
	}
	s.targets = targets
	return nil
}

// Targets returns the targets captured by the last Refresh
func (s *Session) Targets() []Target {
	return s.targets
}

// Summaries lists the targets with their selection index and label
func (s *Session) Summaries() []TargetSummary {
	summaries := make([]TargetSummary, 0, len(s.targets))
	for i, t := range s.targets {
		summaries = append(summaries, TargetSummary{Index: i, ID: t.ID, Label: t.Label()})
	}
	return summaries
}

// Select returns the target at index
func (s *Session) Select(index int) (Target, error) {
	if index < 0 || index >= len(s.targets) {
		return Target{}, fmt.Errorf("invalid target index %d (have %d targets)", index, len(s.targets))
	}
	return s.targets[index], nil
}

// Adjust selects the target at index and applies the natural language request to it
func (s *Session) Adjust(ctx context.Context, index int, request string) AdjustmentOutcome {
	target, err := s.Select(index)
	if err != nil {
		s.logger.Error("Invalid target index", zap.Int("index", index), zap.Error(err))
		return AdjustmentOutcome{}
	}

	s.logger.Info("Selected target",
		zap.String("target", target.ID),
		zap.String("label", target.Label()),
		zap.String("input", request))

	if !s.assistant.IsAvailable() {
		s.logger.Error("AI service unavailable, configure " + EnvAPIKey)
		return AdjustmentOutcome{}
	}
	return s.assistant.AdjustParameters(ctx, target, request)
}

// Parameters reads every parameter of the target at index
func (s *Session) Parameters(ctx context.Context, index int) ([]ParameterSnapshot, error) {
	target, err := s.Select(index)
	if err != nil {
		return nil, err
	}
	return s.manager.GetAllParameters(ctx, target)
}
