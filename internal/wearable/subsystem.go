package wearable

import (
	"context"
	"errors"
)

// RegistrationState mirrors the glasses SDK registration lifecycle
type RegistrationState int

const (
	RegistrationUnavailable RegistrationState = iota
	RegistrationAvailable
	RegistrationRegistering
	RegistrationRegistered
)

func (r RegistrationState) String() string {
	switch r {
	case RegistrationUnavailable:
		return "unavailable"
	case RegistrationAvailable:
		return "available"
	case RegistrationRegistering:
		return "registering"
	case RegistrationRegistered:
		return "registered"
	default:
		return "unknown"
	}
}

// Device is one pair of glasses visible to the subsystem
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Subsystem is the glasses SDK boundary. Updates are pushed on the two
// channels; RegistrationState and ConnectedDevices return current values.
type Subsystem interface {
	RegistrationUpdates() <-chan RegistrationState
	DeviceUpdates() <-chan []Device

	RegistrationState() RegistrationState
	ConnectedDevices() []Device
	BatteryLevel() (int, bool)

	StartRegistration(ctx context.Context) error
	StartUnregistration(ctx context.Context) error
	Speak(text string) error
}

// ErrSubsystemUnavailable is reported when no glasses SDK is present
var ErrSubsystemUnavailable = errors.New("glasses SDK unavailable on this host")

// Unavailable is the Subsystem used when no glasses backend is configured.
// Registration always fails, so pairing ends in failed and only
// ContinueWithoutPairing enables speech.
type Unavailable struct{}

func (Unavailable) RegistrationUpdates() <-chan RegistrationState { return nil }
func (Unavailable) DeviceUpdates() <-chan []Device                { return nil }
func (Unavailable) RegistrationState() RegistrationState          { return RegistrationUnavailable }
func (Unavailable) ConnectedDevices() []Device                    { return nil }
func (Unavailable) BatteryLevel() (int, bool)                     { return 0, false }

func (Unavailable) StartRegistration(context.Context) error   { return ErrSubsystemUnavailable }
func (Unavailable) StartUnregistration(context.Context) error { return nil }
func (Unavailable) Speak(string) error                        { return ErrSubsystemUnavailable }
