package wearable

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	simulatedBattery = 85
	updateBuffer     = 32
	spokenHistory    = 50
)

// SimulatedGlasses stands in for the glasses SDK. Registration succeeds
// after a fixed delay with one device, and speech is written to the log.
type SimulatedGlasses struct {
	delay  time.Duration
	logger *slog.Logger

	mu           sync.Mutex
	registration RegistrationState
	devices      []Device
	spoken       []string

	registrations chan RegistrationState
	deviceUpdates chan []Device
}

// NewSimulatedGlasses creates a simulated subsystem in the available state
func NewSimulatedGlasses(delay time.Duration, logger *slog.Logger) *SimulatedGlasses {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimulatedGlasses{
		delay:         delay,
		logger:        logger.With(slog.String("component", "simulated_glasses")),
		registration:  RegistrationAvailable,
		registrations: make(chan RegistrationState, updateBuffer),
		deviceUpdates: make(chan []Device, updateBuffer),
	}
}

func (s *SimulatedGlasses) RegistrationUpdates() <-chan RegistrationState { return s.registrations }
func (s *SimulatedGlasses) DeviceUpdates() <-chan []Device                { return s.deviceUpdates }

func (s *SimulatedGlasses) RegistrationState() RegistrationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registration
}

func (s *SimulatedGlasses) ConnectedDevices() []Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Device(nil), s.devices...)
}

func (s *SimulatedGlasses) BatteryLevel() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return simulatedBattery, len(s.devices) > 0
}

// StartRegistration reports registering, waits out the delay and then
// registers one device. Cancelling ctx during the wait aborts it.
func (s *SimulatedGlasses) StartRegistration(ctx context.Context) error {
	s.setRegistration(RegistrationRegistering)

	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		s.setRegistration(RegistrationAvailable)
		return ctx.Err()
	case <-timer.C:
	}

	device := Device{ID: uuid.NewString(), Name: "Simulated glasses"}

	s.mu.Lock()
	s.registration = RegistrationRegistered
	s.devices = []Device{device}
	s.mu.Unlock()

	s.emitRegistration(RegistrationRegistered)
	s.emitDevices([]Device{device})
	s.logger.Info("simulated glasses registered", slog.String("device_id", device.ID))
	return nil
}

// StartUnregistration drops the device and returns to available
func (s *SimulatedGlasses) StartUnregistration(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.devices = nil
	s.registration = RegistrationAvailable
	s.mu.Unlock()

	s.emitDevices(nil)
	s.emitRegistration(RegistrationAvailable)
	return nil
}

// Speak records and logs the text
func (s *SimulatedGlasses) Speak(text string) error {
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	if len(s.spoken) > spokenHistory {
		s.spoken = s.spoken[len(s.spoken)-spokenHistory:]
	}
	s.mu.Unlock()

	s.logger.Info("speaking to glasses", slog.String("text", text))
	return nil
}

// Spoken returns the most recent texts handed to Speak
func (s *SimulatedGlasses) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

func (s *SimulatedGlasses) setRegistration(rs RegistrationState) {
	s.mu.Lock()
	s.registration = rs
	s.mu.Unlock()
	s.emitRegistration(rs)
}

// Updates are dropped when nobody drains the channel; readers fall back to
// the current-value accessors
func (s *SimulatedGlasses) emitRegistration(rs RegistrationState) {
	select {
	case s.registrations <- rs:
	default:
		s.logger.Warn("registration update dropped", slog.String("registration", rs.String()))
	}
}

func (s *SimulatedGlasses) emitDevices(devices []Device) {
	select {
	case s.deviceUpdates <- devices:
	default:
		s.logger.Warn("device update dropped", slog.Int("devices", len(devices)))
	}
}
