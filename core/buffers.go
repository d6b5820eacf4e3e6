package core

import (
	"strings"
	"sync"
)

// Buffer length invariants (spec.md §4.1).
const (
	MaxGeneralBufferLength = 32
	AmountLength           = 12
	DefaultMaxPINLength    = 6
)

// BufferKind selects which buffer an operation targets.
type BufferKind int

const (
	BufferPIN BufferKind = iota
	BufferB
	BufferC
	BufferOpcode
	BufferAmount
)

// BufferSet holds the terminal's PIN, B, C, Amount, Opcode, and FDK-buffer
// state (C1). It is owned exclusively by a single terminal instance and
// guarded by its own mutex so concurrent collaborators (e.g. a metrics
// scrape) can read it safely even though the driver itself is
// single-threaded (spec.md §5).
type BufferSet struct {
	mu        sync.Mutex
	pin       string
	b         string
	c         string
	amount    string
	opcode    OpcodeBuffer
	fdkBuffer string
	maxPIN    int
}

// NewBufferSet returns an initialized BufferSet with the given maximum PIN
// length (0 selects the spec default of 6).
func NewBufferSet(maxPIN int) *BufferSet {
	if maxPIN <= 0 {
		maxPIN = DefaultMaxPINLength
	}
	bs := &BufferSet{maxPIN: maxPIN}
	bs.initLocked()
	return bs
}

// Get returns the current value of the named buffer.
func (s *BufferSet) Get(kind BufferKind) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case BufferPIN:
		return s.pin
	case BufferB:
		return s.b
	case BufferC:
		return s.c
	case BufferOpcode:
		return s.opcode.Get()
	case BufferAmount:
		return s.amount
	default:
		return ""
	}
}

// InitBuffers clears PIN, B, C, FDK_buffer, resets Amount to twelve ASCII
// zeros, and re-initializes Opcode (spec.md §4.1).
func (s *BufferSet) InitBuffers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initLocked()
}

func (s *BufferSet) initLocked() {
	s.pin = ""
	s.b = ""
	s.c = ""
	s.fdkBuffer = ""
	s.amount = strings.Repeat("0", AmountLength)
	s.opcode.Init()
}

// SetMaxPINLength updates the per-card PIN length cap (from the FIT
// lookup); it does not itself clear the current PIN.
func (s *BufferSet) SetMaxPINLength(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 {
		n = DefaultMaxPINLength
	}
	s.maxPIN = n
}

// AppendPIN appends a single digit to PIN; a no-op once the per-card cap
// is reached.
func (s *BufferSet) AppendPIN(digit string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pin)+len(digit) > s.maxPIN {
		return
	}
	s.pin += digit
}

// AppendB appends to B; a no-op once the 32-character cap would be
// exceeded.
func (s *BufferSet) AppendB(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.b)+len(v) > MaxGeneralBufferLength {
		return
	}
	s.b += v
}

// SetB replaces B outright, truncating silently if the cap would be
// exceeded rather than refusing the whole write; used when a state stores
// a whole extension-derived value into B (kind X).
func (s *BufferSet) SetB(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(v) > MaxGeneralBufferLength {
		v = v[len(v)-MaxGeneralBufferLength:]
	}
	s.b = v
}

// AppendC appends to C; a no-op once the 32-character cap would be
// exceeded.
func (s *BufferSet) AppendC(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.c)+len(v) > MaxGeneralBufferLength {
		return
	}
	s.c += v
}

// SetC replaces C outright; see SetB.
func (s *BufferSet) SetC(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(v) > MaxGeneralBufferLength {
		v = v[len(v)-MaxGeneralBufferLength:]
	}
	s.c = v
}

// ClearBuffer empties B or C, used by state kind H's masked/keyed clear
// rule (spec.md §4.5).
func (s *BufferSet) ClearBuffer(kind BufferKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case BufferB:
		s.b = ""
	case BufferC:
		s.c = ""
	}
}

// SetAmount implements the right-shift/append rule: new digits enter from
// the right, existing digits shift left, and the result is always
// re-normalized to exactly twelve characters (spec.md §4.1, §9).
func (s *BufferSet) SetAmount(digits string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	combined := s.amount + digits
	if len(combined) > AmountLength {
		combined = combined[len(combined)-AmountLength:]
	} else if len(combined) < AmountLength {
		combined = strings.Repeat("0", AmountLength-len(combined)) + combined
	}
	s.amount = combined
}

// FDKBuffer returns the last-selected FDK letter (used only by state kinds
// X, Y, W).
func (s *BufferSet) FDKBuffer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fdkBuffer
}

// SetFDKBuffer records the last-selected FDK letter.
func (s *BufferSet) SetFDKBuffer(letter string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fdkBuffer = letter
}

// OpcodeSetAt writes ch at opcode index i.
func (s *BufferSet) OpcodeSetAt(i int, ch byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opcode.SetAt(i, ch)
}

// OpcodeLoadTemplate installs a pre-shaped opcode template.
func (s *BufferSet) OpcodeLoadTemplate(template string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opcode.LoadTemplate(template)
}
