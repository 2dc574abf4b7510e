package shared

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Assistant translates natural language requests into parameter writes
type Assistant struct {
	manager     *ParameterManager
	interpreter *Interpreter
	completer   Completer
	config      *Config
	logger      *zap.Logger
}

// NewAssistant wires the pipeline. A nil completer leaves the assistant unavailable.
func NewAssistant(manager *ParameterManager, completer Completer, cfg *Config, logger *zap.Logger) *Assistant {
	a := &Assistant{
		manager:     manager,
		interpreter: NewInterpreter(manager, logger),
		completer:   completer,
		config:      cfg,
		logger:      componentLogger(logger, "assistant"),
	}

	switch {
	case completer == nil:
		a.logger.Error("Completion client unavailable")
	case !a.hasAPIKey():
		a.logger.Error("OpenAI API key not configured")
	default:
		a.logger.Info("Completion client ready", zap.String("model", cfg.Model()))
	}
	return a
}

func (a *Assistant) hasAPIKey() bool {
	if a.config == nil {
		return false
	}
	_, ok := a.config.APIKey()
	return ok
}

// IsAvailable reports whether a completion client and an API key are configured
func (a *Assistant) IsAvailable() bool {
	return a.completer != nil && a.hasAPIKey()
}

// AdjustParameters runs one request end to end: prompt, completion, parse, apply.
// Failures are logged and reported as an unsuccessful outcome.
func (a *Assistant) AdjustParameters(ctx context.Context, target Target, userInput string) AdjustmentOutcome {
	requestID := uuid.New().String()
	log := a.logger.With(zap.String("requestId", requestID), zap.String("target", target.ID))
	failed := AdjustmentOutcome{RequestID: requestID}

	if !a.IsAvailable() {
		log.Error("AI service unavailable")
		return failed
	}

	log.Info("Processing request", zap.String("input", userInput))

	names, err := a.manager.ParameterNames(ctx, target)
	if err != nil {
		log.Error("AI adjustment failed", zap.Error(err))
		return failed
	}

	text, err := a.completer.Complete(ctx, SystemPrompt, BuildUserPrompt(names, userInput), a.config.Model(), a.config.Temperature())
	if err != nil {
		log.Error("AI adjustment failed", zap.Error(err))
		return failed
	}
	log.Info("AI response", zap.String("response", text))

	req, err := ParseAdjustmentRequest(text)
	if err != nil {
		log.Error("AI adjustment failed", zap.Error(err), zap.String("raw", text))
		return failed
	}

	// Apply logs the empty-request case itself; the outcome already reports it.
	outcome, _ := a.interpreter.Apply(ctx, target, req)
	outcome.RequestID = requestID

	if outcome.Success {
		log.Info("AI parameter adjustment complete", zap.String("explanation", outcome.Explanation))
	} else {
		log.Warn("AI parameter adjustment failed", zap.String("explanation", outcome.Explanation))
	}
	return outcome
}
