package core

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Default screen and config-id values (spec.md §4.8).
const (
	DefaultInitialScreenNumber = "001"
	DefaultConfigID            = "0000"
	DefaultLUNO                = "009"
)

// TerminalConfig groups the collaborator dependencies a Terminal requires,
// following the teacher's NewXConfig-struct constructor convention.
type TerminalConfig struct {
	Screens  Screens
	States   States
	FITs     FITs
	Crypto   Crypto
	Display  Display
	Hardware Hardware
	Settings Settings
	Log      Log
	Metrics  *Metrics // optional; nil disables metrics recording
}

// Terminal is the ATM terminal core: the single-threaded state-driven
// transaction engine (spec.md §1-§5). It owns all mutable state; there is
// no module-level state anywhere in this package (spec.md §9).
type Terminal struct {
	mu sync.Mutex

	status               TerminalStatus
	configID             string
	initialScreenNumber  string
	hostConfig           HostConfig
	counters             SupplyCounters

	buffers *BufferSet
	fdks    *FDKSet
	mcn     *MCN
	card    *Card

	currentState           string
	buttonsPressed         []string
	transactionRequest     map[string]any
	interactiveTransaction bool

	screens  Screens
	states   States
	fits     FITs
	crypto   Crypto
	display  Display
	hardware Hardware
	settings Settings
	log      Log
	metrics  *Metrics
}

// NewTerminal constructs a Terminal from its collaborator set. All fields
// of cfg except Metrics are required.
func NewTerminal(cfg TerminalConfig) (*Terminal, error) {
	if cfg.Screens == nil || cfg.States == nil || cfg.FITs == nil || cfg.Crypto == nil ||
		cfg.Display == nil || cfg.Hardware == nil || cfg.Settings == nil || cfg.Log == nil {
		return nil, fmt.Errorf("terminal: all collaborators are required")
	}
	t := &Terminal{
		status:              StatusOffline,
		initialScreenNumber: DefaultInitialScreenNumber,
		hostConfig:          NewHostConfig(),
		buffers:             NewBufferSet(DefaultMaxPINLength),
		fdks:                NewFDKSet(),
		screens:             cfg.Screens,
		states:              cfg.States,
		fits:                cfg.FITs,
		crypto:              cfg.Crypto,
		display:             cfg.Display,
		hardware:            cfg.Hardware,
		settings:            cfg.Settings,
		log:                 cfg.Log,
		metrics:             cfg.Metrics,
	}
	t.initCounters()
	t.mcn = NewMCN(t.loadSeedMCN())
	return t, nil
}

func (t *Terminal) loadSeedMCN() byte {
	if v, ok := t.settings.Get("message_coordination_number"); ok && len(v) == 1 {
		return v[0]
	}
	return mcnUnset
}

// initCounters loads config_id from settings (default DefaultConfigID)
// and installs the static default supply counters (spec.md §4.8).
func (t *Terminal) initCounters() {
	if v, ok := t.settings.Get("config_id"); ok && v != "" {
		t.configID = v
	} else {
		t.configID = DefaultConfigID
	}
	t.counters = DefaultSupplyCounters()
}

// Status returns the terminal's current status.
func (t *Terminal) Status() TerminalStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// ConfigID returns the terminal's current config id.
func (t *Terminal) ConfigID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.configID
}

// Card returns the currently-read card, or nil if none is present.
func (t *Terminal) Card() *Card {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.card
}

// Buffers exposes the terminal's buffer set for inspection (used by
// tests and the CLI's simulate command).
func (t *Terminal) Buffers() *BufferSet {
	return t.buffers
}

// TransactionRequest returns the last assembled outbound transaction
// request, or nil if none is pending (spec.md §3: "set by state I and
// consumed by the outer transport").
func (t *Terminal) TransactionRequest() map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transactionRequest
}

// ClearTransactionRequest clears the pending transaction request once the
// outer transport has sent it to the host.
func (t *Terminal) ClearTransactionRequest() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transactionRequest = nil
}

// CurrentState returns the interpreter's current state number.
func (t *Terminal) CurrentState() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentState
}

// setStatus updates status and, for Offline/OutOfService, resets the
// displayed screen to initial_screen_number (spec.md §4.8). Caller must
// hold t.mu.
func (t *Terminal) setStatus(s TerminalStatus) {
	t.status = s
	if t.metrics != nil {
		t.metrics.Status.Set(float64(s))
	}
	if s == StatusOffline || s == StatusOutOfService {
		screen := t.initialScreenNumber
		if screen == "" {
			screen = DefaultInitialScreenNumber
		}
		t.display.SetScreenByNumber(screen)
	}
}

// setConfigID updates the config id and mirrors it to Settings (spec.md
// §4.8). Caller must hold t.mu.
func (t *Terminal) setConfigID(id string) {
	t.configID = id
	_ = t.settings.Set("config_id", id)
}

// nextMCN advances the message coordination number and mirrors the new
// value to Settings.
func (t *Terminal) nextMCN() byte {
	v := t.mcn.Next()
	_ = t.settings.Set("message_coordination_number", string(v))
	if t.metrics != nil {
		t.metrics.MCNEmitted.Inc()
	}
	return v
}

// newCorrelationID produces a log-correlation id for an assembled
// transaction request, additive to (never a replacement for) the wire
// message_coordination_number (see SPEC_FULL.md DOMAIN STACK).
func newCorrelationID() string {
	return uuid.NewString()
}

// logInfo/logWarn/logError are small helpers so call sites read like the
// teacher's logrus.WithFields(...).Info(...) chains without repeating the
// nil-Log guard everywhere internally (Log is always non-nil after
// NewTerminal's validation, but the helpers centralize field-building).
func (t *Terminal) logInfo(msg string, fields map[string]any) {
	t.log.Info(msg, fields)
}

func (t *Terminal) logWarn(msg string, fields map[string]any) {
	t.log.Warn(msg, fields)
}

func (t *Terminal) logError(msg string, fields map[string]any) {
	t.log.Error(msg, fields)
}

// --- operator-input queue (buttons_pressed, spec.md §3, §5) ---

// pushInput appends an operator input (digit, "enter", or FDK letter) to
// the back of the queue.
func (t *Terminal) pushInput(v string) {
	t.buttonsPressed = append(t.buttonsPressed, v)
}

// containsInput reports whether v is anywhere in the queue, without
// consuming it (used by state kind B's "queue contains enter" check).
func (t *Terminal) containsInput(v string) bool {
	for _, b := range t.buttonsPressed {
		if b == v {
			return true
		}
	}
	return false
}

// consumeInput pops and returns the front (oldest) queued input.
func (t *Terminal) consumeInput() (string, bool) {
	if len(t.buttonsPressed) == 0 {
		return "", false
	}
	v := t.buttonsPressed[0]
	t.buttonsPressed = t.buttonsPressed[1:]
	return v, true
}

// consumeFDKLetter pops the front queued input and returns it only if it
// is a single FDK letter A..I.
func (t *Terminal) consumeFDKLetter() (byte, bool) {
	v, ok := t.consumeInput()
	if !ok {
		return 0, false
	}
	return asFDKLetter(v)
}

// clearInputQueueLocked empties the queue. Called after every state
// transition that actually changes state (spec.md §4.5's closing rule);
// a handler that remains in its current state preserves the queue.
func (t *Terminal) clearInputQueueLocked() {
	t.buttonsPressed = nil
}
