// Package wearable tracks the pairing and connection state of the glasses
// and hands text to them for speech.
package wearable

import (
	"errors"
	"fmt"
)

var (
	// ErrPairingInProgress is returned by StartPairing outside idle or failed
	ErrPairingInProgress = errors.New("pairing already in progress")
	// ErrPairingTimeout is the failure reason recorded when a handshake stalls
	ErrPairingTimeout = errors.New("pairing timed out, make sure your glasses are nearby and try again")
	// ErrClosed is returned once the controller has stopped
	ErrClosed = errors.New("wearable controller stopped")
)

// Phase is the pairing state without its payload
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseScanning
	PhaseConnecting
	PhaseConnected
	PhaseFailed
)

var phaseNames = [...]string{"idle", "scanning", "connecting", "connected", "failed"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown pairing phase %q", text)
}

// State is the pairing state. Reason is only set in PhaseFailed.
type State struct {
	Phase  Phase  `json:"phase"`
	Reason string `json:"reason,omitempty"`
}

func Idle() State       { return State{Phase: PhaseIdle} }
func Scanning() State   { return State{Phase: PhaseScanning} }
func Connecting() State { return State{Phase: PhaseConnecting} }
func Connected() State  { return State{Phase: PhaseConnected} }

// Failed carries the human-readable reason shown next to the pair action
func Failed(reason string) State {
	return State{Phase: PhaseFailed, Reason: reason}
}

func (s State) String() string {
	if s.Phase == PhaseFailed {
		return "failed(" + s.Reason + ")"
	}
	return s.Phase.String()
}

// canStartPairing reports whether StartPairing is legal from s
func (s State) canStartPairing() bool {
	return s.Phase == PhaseIdle || s.Phase == PhaseFailed
}

// Status is a read-only snapshot of the link
type Status struct {
	State        State  `json:"state"`
	Paired       bool   `json:"paired"`
	BatteryLevel int    `json:"battery_level,omitempty"` // 0 when unknown
	LastError    string `json:"last_error,omitempty"`
}
