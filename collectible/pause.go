package collectible

import (
	"context"
	"fmt"

	"github.com/MixinNetwork/mixin/logger"
)

func (eng *Engine) Paused() (bool, error) {
	return eng.store.ReadPaused()
}

func (eng *Engine) requireUnpaused() error {
	paused, err := eng.store.ReadPaused()
	if err != nil {
		return err
	}
	if paused {
		return ErrPaused
	}
	return nil
}

// Pause fails with ErrPaused when already paused.
func (eng *Engine) Pause(ctx context.Context, call *Call) error {
	return eng.setPaused(call, true)
}

// Unpause fails with ErrNotPaused when not paused.
func (eng *Engine) Unpause(ctx context.Context, call *Call) error {
	return eng.setPaused(call, false)
}

func (eng *Engine) setPaused(call *Call, paused bool) error {
	if err := eng.checkCall(call); err != nil {
		return err
	}
	if err := eng.requireRole(RoleAdmin, call.Sender); err != nil {
		return err
	}
	old, err := eng.store.ReadPaused()
	if err != nil {
		return err
	}
	switch {
	case old && paused:
		return ErrPaused
	case !old && !paused:
		return ErrNotPaused
	}
	logger.Printf("Engine.setPaused(%t) by %s\n", paused, call.Sender)
	err = eng.store.WritePaused(paused)
	if err != nil {
		return fmt.Errorf("collectible: write pause %w", err)
	}
	return nil
}
