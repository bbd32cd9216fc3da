// Package integrity watches client signals during an in-progress quiz and
// restarts the attempt when the student leaves the page or tries to copy.
package integrity

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
	"github.com/aliskhannn/quizzer/internal/metrics"
	"github.com/aliskhannn/quizzer/internal/session"
)

// Signal is a client event reported to the monitor.
type Signal string

const (
	SignalVisibilityHidden Signal = "visibility_hidden"
	SignalCopy             Signal = "copy"
	SignalContextMenu      Signal = "context_menu"
	SignalCopyShortcut     Signal = "copy_shortcut"
	SignalRefreshShortcut  Signal = "refresh_shortcut"
	SignalBeforeUnload     Signal = "before_unload"
)

// DefaultWarningSeconds is the length of the warning countdown.
const DefaultWarningSeconds = 3

// ParseSignal validates a signal name.
func ParseSignal(s string) (Signal, error) {
	switch sig := Signal(s); sig {
	case SignalVisibilityHidden, SignalCopy, SignalContextMenu, SignalCopyShortcut,
		SignalRefreshShortcut, SignalBeforeUnload:
		return sig, nil
	default:
		return "", fmt.Errorf("unknown integrity signal %q", s)
	}
}

// Reaction tells the client how to handle the event it reported.
type Reaction struct {
	PreventDefault    bool `json:"prevent_default"`
	ConfirmNavigation bool `json:"confirm_navigation"`
	PromptLeave       bool `json:"prompt_leave"`
	// WarningSeconds is the remaining time of the active warning, 0 if none.
	WarningSeconds int `json:"warning_seconds"`
}

// Guarded exposes the progress of the session being watched.
type Guarded interface {
	Progress() *entities.Progress
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock sets the clock driving the warning countdown.
func WithClock(c session.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

// WithWarningSeconds sets the warning countdown length.
func WithWarningSeconds(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.warningSeconds = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Monitor) { m.log = l }
}

// Monitor reacts to integrity signals of one session. At most one warning
// countdown runs at a time; when it reaches zero the violation handler runs.
type Monitor struct {
	mu sync.Mutex

	guarded     Guarded
	onViolation func()
	clock       session.Clock
	log         *zap.Logger

	warningSeconds int
	remaining      int
	timer          session.Timer
	token          uint64
	closed         bool
}

// NewMonitor creates a monitor for guarded. onViolation is called without
// any monitor lock held.
func NewMonitor(guarded Guarded, onViolation func(), opts ...Option) *Monitor {
	m := &Monitor{
		guarded:        guarded,
		onViolation:    onViolation,
		clock:          session.RealClock(),
		log:            zap.NewNop(),
		warningSeconds: DefaultWarningSeconds,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Observe handles one signal. Signals are ignored unless the guarded session
// has at least one answer and is not completed.
func (m *Monitor) Observe(sig Signal) Reaction {
	if !m.guarded.Progress().InProgress() {
		return Reaction{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Reaction{}
	}

	switch sig {
	case SignalRefreshShortcut:
		return Reaction{ConfirmNavigation: true, PreventDefault: true, WarningSeconds: m.remaining}
	case SignalBeforeUnload:
		return Reaction{PromptLeave: true, WarningSeconds: m.remaining}
	}

	metrics.IntegritySignals.WithLabelValues(string(sig)).Inc()

	if m.timer == nil {
		m.log.Info("integrity warning started", zap.String("signal", string(sig)))
		m.remaining = m.warningSeconds
		m.token++
		m.scheduleLocked(m.token)
	}

	return Reaction{
		PreventDefault: sig != SignalVisibilityHidden,
		WarningSeconds: m.remaining,
	}
}

// Warning returns the seconds left on the active warning, 0 when none runs.
func (m *Monitor) Warning() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remaining
}

// Reset cancels the active warning without closing the monitor. A countdown
// started in a replaced attempt never fires into the next one.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token++
	m.stopLocked()
}

// Close stops the active warning and ignores further signals.
func (m *Monitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.stopLocked()
}

func (m *Monitor) scheduleLocked(token uint64) {
	m.timer = m.clock.AfterFunc(time.Second, func() { m.tick(token) })
}

func (m *Monitor) tick(token uint64) {
	m.mu.Lock()
	if m.closed || token != m.token || m.timer == nil {
		m.mu.Unlock()
		return
	}

	m.remaining--
	if m.remaining > 0 {
		m.scheduleLocked(token)
		m.mu.Unlock()
		return
	}

	m.stopLocked()
	m.mu.Unlock()

	// The attempt may have finished while the warning was shown.
	if !m.guarded.Progress().InProgress() {
		return
	}

	metrics.IntegrityResets.Inc()
	m.log.Warn("integrity violation, restarting attempt")
	m.onViolation()
}

func (m *Monitor) stopLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.remaining = 0
	m.token++
}
