package engine

import (
	"context"
	"fmt"

	"github.com/wagiedev/agentbridge/internal/config"
)

// Outbound control request subtypes.
const (
	subtypeInterrupt         = "interrupt"
	subtypeSetPermissionMode = "set_permission_mode"
	subtypeSetModel          = "set_model"
)

// Interrupt asks the assistant process to stop its current turn.
func (e *Engine) Interrupt(ctx context.Context) error {
	e.log.Info("Sending interrupt")

	if _, err := e.Request(ctx, subtypeInterrupt, nil); err != nil {
		return fmt.Errorf("interrupt: %w", err)
	}

	return nil
}

// SetPermissionMode changes the permission mode mid-session. Legacy mode
// names are normalized first.
func (e *Engine) SetPermissionMode(ctx context.Context, mode string) error {
	normalized := config.NormalizePermissionMode(mode)

	e.log.Info("Setting permission mode", "mode", normalized)

	if _, err := e.Request(ctx, subtypeSetPermissionMode, map[string]any{"mode": normalized}); err != nil {
		return fmt.Errorf("set permission mode to %q: %w", normalized, err)
	}

	return nil
}

// SetModel switches the model mid-session. Nil selects the default model.
func (e *Engine) SetModel(ctx context.Context, model *string) error {
	e.log.Info("Setting model", "model", model)

	if _, err := e.Request(ctx, subtypeSetModel, map[string]any{"model": model}); err != nil {
		return fmt.Errorf("set model: %w", err)
	}

	return nil
}
