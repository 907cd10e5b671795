package wearable

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/randytsao24/ctaglass/internal/logging"
)

const (
	// DefaultPairingTimeout bounds one registration handshake
	DefaultPairingTimeout = 30 * time.Second

	unregisterTimeout = 10 * time.Second
)

// attempt is one in-flight pairing handshake
type attempt struct {
	id     uint64
	cancel context.CancelFunc
	timer  *time.Timer
}

// Controller owns the pairing state. All writes happen on the goroutine
// running Run; readers see published snapshots.
type Controller struct {
	sub            Subsystem
	pairingTimeout time.Duration
	logger         *slog.Logger

	cmds    chan func()
	done    chan struct{}
	running sync.Once

	// owned by the Run goroutine
	state     State
	paired    bool
	battery   int
	lastError string
	pending   *attempt
	attempts  uint64

	mu       sync.RWMutex
	snapshot Status
	subs     map[uint64]chan Status
	nextSub  uint64
	stopped  bool
}

// NewController creates a controller for sub. Call Run to start it.
func NewController(sub Subsystem, pairingTimeout time.Duration, logger *slog.Logger) *Controller {
	if pairingTimeout <= 0 {
		pairingTimeout = DefaultPairingTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		sub:            sub,
		pairingTimeout: pairingTimeout,
		logger:         logger.With(slog.String("component", "wearable")),
		cmds:           make(chan func()),
		done:           make(chan struct{}),
		state:          Idle(),
		snapshot:       Status{State: Idle()},
		subs:           make(map[uint64]chan Status),
	}
}

// Run applies commands and subsystem updates until ctx is cancelled. Only
// the first call does anything.
func (c *Controller) Run(ctx context.Context) {
	c.running.Do(func() { c.run(ctx) })
}

func (c *Controller) run(ctx context.Context) {
	defer c.shutdown()

	registrations := c.sub.RegistrationUpdates()
	devices := c.sub.DeviceUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.cmds:
			cmd()
		case rs, ok := <-registrations:
			if !ok {
				registrations = nil
				continue
			}
			c.onRegistration(rs)
		case devs, ok := <-devices:
			if !ok {
				devices = nil
				continue
			}
			c.onDevices(devs)
		}
		c.publish()
	}
}

func (c *Controller) shutdown() {
	if c.pending != nil {
		c.finishAttempt()
	}
	close(c.done)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
}

// do runs fn on the controller goroutine and waits for its result
func (c *Controller) do(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	cmd := func() {
		err := fn()
		c.publish()
		reply <- err
	}

	select {
	case c.cmds <- cmd:
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post queues fn from a background goroutine without waiting
func (c *Controller) post(fn func()) {
	select {
	case c.cmds <- fn:
	case <-c.done:
	}
}

// StartPairing begins a registration handshake. It returns once the
// controller is scanning; the outcome arrives through Status.
func (c *Controller) StartPairing(ctx context.Context) error {
	return c.do(ctx, func() error {
		if !c.state.canStartPairing() {
			return ErrPairingInProgress
		}

		c.lastError = ""
		c.state = Scanning()
		id, regCtx := c.beginAttempt()

		c.logger.Info("pairing started", slog.Uint64("attempt", id))
		go func() {
			err := c.sub.StartRegistration(regCtx)
			c.post(func() { c.onRegistrationResult(id, err) })
		}()
		return nil
	})
}

// beginAttempt arms the pairing deadline. The returned context expires
// with it.
func (c *Controller) beginAttempt() (uint64, context.Context) {
	c.attempts++
	id := c.attempts
	ctx, cancel := context.WithTimeout(context.Background(), c.pairingTimeout)
	c.pending = &attempt{
		id:     id,
		cancel: cancel,
		timer:  time.AfterFunc(c.pairingTimeout, func() { c.post(func() { c.onTimeout(id) }) }),
	}
	return id, ctx
}

// Disconnect resets to idle and tears down the registration in the
// background. Teardown failures are logged only.
func (c *Controller) Disconnect(ctx context.Context) error {
	return c.do(ctx, func() error {
		if c.pending != nil {
			c.finishAttempt()
		}
		c.reset()

		go func() {
			unregCtx, cancel := context.WithTimeout(context.Background(), unregisterTimeout)
			defer cancel()
			if err := c.sub.StartUnregistration(unregCtx); err != nil {
				logging.LogError(c.logger, "unregistration failed", err)
			}
		}()
		return nil
	})
}

// ContinueWithoutPairing marks the link connected without a handshake
func (c *Controller) ContinueWithoutPairing(ctx context.Context) error {
	return c.do(ctx, func() error {
		if c.pending != nil {
			c.finishAttempt()
		}
		c.state = Connected()
		c.paired = true
		c.lastError = ""
		c.logger.Info("continuing without pairing")
		return nil
	})
}

// Status returns the latest published snapshot
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// IsConnected reports whether speech may be sent
func (c *Controller) IsConnected() bool {
	return c.Status().Paired
}

// Speak hands text to the glasses when connected and drops it otherwise
func (c *Controller) Speak(text string) {
	if !c.IsConnected() {
		c.logger.Debug("speech dropped, glasses not connected", slog.String("text", text))
		return
	}
	if err := c.sub.Speak(text); err != nil {
		logging.LogError(c.logger, "speech hand-off failed", err)
	}
}

// Subscribe returns a channel carrying the current status and every change
// after it. Slow readers only see the latest value. The channel is closed
// by cancel or when the controller stops.
func (c *Controller) Subscribe() (<-chan Status, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Status, 1)
	if c.stopped {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.snapshot

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

func (c *Controller) onRegistration(rs RegistrationState) {
	c.logger.Debug("registration update", slog.String("registration", rs.String()))

	switch rs {
	case RegistrationUnavailable:
		c.reset()
	case RegistrationAvailable:
		// Still scanning: the handshake result or the timeout decides
		if c.state.Phase == PhaseConnected || c.state.Phase == PhaseConnecting {
			c.reset()
		}
	case RegistrationRegistering:
		if c.state.Phase == PhaseConnected {
			return
		}
		// Registration started outside StartPairing still gets a deadline
		if c.pending == nil {
			c.lastError = ""
			id, _ := c.beginAttempt()
			c.logger.Info("pairing started by glasses", slog.Uint64("attempt", id))
		}
		c.state = Scanning()
	case RegistrationRegistered:
		c.lastError = ""
		c.settleRegistered()
	}
}

// settleRegistered moves a registered link to connected when a device is
// present and to connecting otherwise
func (c *Controller) settleRegistered() {
	if len(c.sub.ConnectedDevices()) > 0 {
		c.connect()
		return
	}
	c.state = Connecting()
	if c.pending == nil {
		c.beginAttempt()
	}
}

func (c *Controller) onDevices(devices []Device) {
	c.logger.Debug("device update", slog.Int("devices", len(devices)))

	if len(devices) > 0 {
		if c.sub.RegistrationState() == RegistrationRegistered {
			c.connect()
		}
		return
	}

	c.paired = false
	c.battery = 0
	if c.state.Phase == PhaseConnected {
		c.state = Idle()
	}
}

// onRegistrationResult handles the handshake's return. A nil error is
// checked against the current registration in case the pushed update was
// lost.
func (c *Controller) onRegistrationResult(id uint64, err error) {
	if c.pending == nil || c.pending.id != id {
		c.logger.Debug("stale registration result", slog.Uint64("attempt", id), slog.Any("error", err))
		return
	}
	if err == nil {
		if c.sub.RegistrationState() == RegistrationRegistered {
			c.settleRegistered()
		}
		return
	}

	reason := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		reason = ErrPairingTimeout.Error()
	}
	c.fail(reason)
}

func (c *Controller) onTimeout(id uint64) {
	if c.pending == nil || c.pending.id != id {
		return
	}
	if c.state.Phase == PhaseScanning || c.state.Phase == PhaseConnecting {
		c.fail(ErrPairingTimeout.Error())
	}
}

func (c *Controller) connect() {
	if c.pending != nil {
		c.finishAttempt()
	}
	c.state = Connected()
	c.paired = true
	c.lastError = ""
	if level, ok := c.sub.BatteryLevel(); ok {
		c.battery = level
	}
}

func (c *Controller) fail(reason string) {
	if c.pending != nil {
		c.finishAttempt()
	}
	c.state = Failed(reason)
	c.lastError = reason
	logging.LogError(c.logger, "pairing failed", errors.New(reason))
}

func (c *Controller) reset() {
	c.state = Idle()
	c.paired = false
	c.battery = 0
}

// finishAttempt stops the timer and releases the handshake context. The
// handshake goroutine still posts its result, which is then ignored.
func (c *Controller) finishAttempt() {
	c.pending.timer.Stop()
	c.pending.cancel()
	c.pending = nil
}

func (c *Controller) publish() {
	status := Status{
		State:        c.state,
		Paired:       c.paired,
		BatteryLevel: c.battery,
		LastError:    c.lastError,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if status == c.snapshot {
		return
	}
	c.snapshot = status

	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- status
	}
}
