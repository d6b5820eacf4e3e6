package core

import "math/big"

// TerminalStatus is the terminal's coarse operating status; it drives
// default screen selection (spec.md §3).
type TerminalStatus int

const (
	StatusOffline TerminalStatus = iota
	StatusConnected
	StatusInService
	StatusOutOfService
	StatusProcessingCard
)

func (s TerminalStatus) String() string {
	switch s {
	case StatusOffline:
		return "Offline"
	case StatusConnected:
		return "Connected"
	case StatusInService:
		return "InService"
	case StatusOutOfService:
		return "OutOfService"
	case StatusProcessingCard:
		return "ProcessingCard"
	default:
		return "Unknown"
	}
}

// ScreenData is the wire-level payload for a Screen Data load.
type ScreenData struct {
	Number string
	Raw    []byte
}

// Screen is an opaque, already-parsed screen; rendering is entirely a
// Display-collaborator concern.
type Screen struct {
	Number string
	Text   string
}

// ScreenDisplayUpdate is a dynamic, in-flight change to what is on screen,
// carried by a Transaction Reply Command or Interactive Transaction
// Response.
type ScreenDisplayUpdate struct {
	Text string
}

// StateData is the wire-level payload for a State Tables load; the States
// collaborator is responsible for turning this into validated *State
// values, one per kind in spec.md §4.5.
type StateData struct {
	Number string
	Raw    []byte
}

// HostConfig holds the mutable configuration the host pushes down via an
// Enhanced Configuration Data Load (spec.md §3).
type HostConfig struct {
	InitialScreenNumber   string
	HardwareConfiguration string
	SensorStatus          string
	Extra                 map[string]string // other 3-digit parameter IDs, verbatim
}

// NewHostConfig returns a HostConfig with its Extra map initialized.
func NewHostConfig() HostConfig {
	return HostConfig{Extra: make(map[string]string)}
}

// SupplyCounters are the terminal's fixed-width decimal supply counters
// (spec.md §3). Widths never shrink; arithmetic is modulo-width with
// zero-pad left.
type SupplyCounters struct {
	TSN                    string // 4
	TransactionCount       string // 7
	NotesInCassettes       string // 20
	NotesRejected          string // 20
	NotesDispensed         string // 20
	LastTrxnNotesDispensed string // 20
	CardCaptured           string // 5
	EnvelopesDeposited     string // 5
	CameraFilmRemaining    string // 5
	LastEnvelopeSerial     string // 5
}

// DefaultSupplyCounters returns the static default counters installed by
// initCounters (spec.md §4.8): all-zero, at the widths spec.md §3 fixes.
func DefaultSupplyCounters() SupplyCounters {
	return SupplyCounters{
		TSN:                    zeroPad("", 4),
		TransactionCount:       zeroPad("", 7),
		NotesInCassettes:       zeroPad("", 20),
		NotesRejected:          zeroPad("", 20),
		NotesDispensed:         zeroPad("", 20),
		LastTrxnNotesDispensed: zeroPad("", 20),
		CardCaptured:           zeroPad("", 5),
		EnvelopesDeposited:     zeroPad("", 5),
		CameraFilmRemaining:    zeroPad("", 5),
		LastEnvelopeSerial:     zeroPad("", 5),
	}
}

func zeroPad(s string, width int) string {
	if len(s) >= width {
		return s[len(s)-width:]
	}
	out := make([]byte, width-len(s))
	for i := range out {
		out[i] = '0'
	}
	return string(out) + s
}

// incrementModulo adds delta to the decimal string value and re-pads to
// width, wrapping modulo 10^width. Used for notes_dispensed per spec.md
// §4.7's Transaction Reply Command handling. Uses math/big so the wrap
// stays correct at any width, including the 20-digit counters that would
// overflow a machine int.
func incrementModulo(value string, delta int, width int) string {
	digits := make([]byte, 0, len(value))
	for i := 0; i < len(value); i++ {
		if c := value[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	n := new(big.Int)
	if len(digits) > 0 {
		n.SetString(string(digits), 10)
	}
	n.Add(n, big.NewInt(int64(delta)))

	mod := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(width)), nil)
	n.Mod(n, mod) // Euclidean modulus: result is always in [0, mod)

	out := n.String()
	if len(out) < width {
		out = zeroPad(out, width)
	}
	return out
}
