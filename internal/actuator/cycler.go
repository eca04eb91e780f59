package actuator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrUnconfirmed marks a power cycle whose effect could not be verified.
// The recovery attempt stays recorded against the window regardless.
var ErrUnconfirmed = errors.New("power cycle unconfirmed")

// Cycler performs the bounded recovery action: power off, wait for the
// modem's capacitors to drain, power on. It holds no state and takes no
// decisions — the governor already authorized the attempt.
type Cycler struct {
	Logger   *zap.Logger
	Actuator Actuator
	Settle   time.Duration
}

func NewCycler(logger *zap.Logger, act Actuator, settle time.Duration) *Cycler {
	if settle <= 0 {
		settle = 30 * time.Second
	}
	return &Cycler{Logger: logger, Actuator: act, Settle: settle}
}

// Cycle runs off → settle → on. A command error or an end state other than
// powered-on returns ErrUnconfirmed (wrapped); the caller logs and moves on.
// Power is always commanded back on, even when the off command failed.
func (c *Cycler) Cycle(ctx context.Context) error {
	if c.Actuator == nil {
		return fmt.Errorf("%w: no actuator configured", ErrUnconfirmed)
	}

	offErr := c.Actuator.SetPower(ctx, false)
	if offErr != nil {
		c.Logger.Error("power_off_failed", zap.Error(offErr))
	} else {
		c.Logger.Info("power_off", zap.Duration("settle", c.Settle))
	}

	select {
	case <-ctx.Done():
		// never leave the modem dark on shutdown
		_ = c.Actuator.SetPower(context.Background(), true)
		return ctx.Err()
	case <-time.After(c.Settle):
	}

	onErr := c.Actuator.SetPower(ctx, true)
	if onErr != nil {
		c.Logger.Error("power_on_failed", zap.Error(onErr))
		return fmt.Errorf("%w: power on: %v", ErrUnconfirmed, onErr)
	}
	c.Logger.Info("power_on")

	if offErr != nil {
		return fmt.Errorf("%w: power off: %v", ErrUnconfirmed, offErr)
	}

	state, err := c.Actuator.GetPower(ctx)
	if err != nil || state != PowerOn {
		c.Logger.Warn("power_state_unverified",
			zap.String("state", string(state)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: end state %s", ErrUnconfirmed, state)
	}
	return nil
}
