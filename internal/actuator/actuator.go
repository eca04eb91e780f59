package actuator

import "context"

// PowerState is the actuator's reported relay position.
type PowerState string

const (
	PowerOn      PowerState = "on"
	PowerOff     PowerState = "off"
	PowerUnknown PowerState = "unknown"
)

// Actuator is the external on/off power control for the monitored modem.
// Errors are surfaced but never fatal: a failed command leaves the recovery
// attempt recorded as unconfirmed.
type Actuator interface {
	SetPower(ctx context.Context, on bool) error
	GetPower(ctx context.Context) (PowerState, error)
}
