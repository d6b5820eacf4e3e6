package core

import "fmt"

// OpcodeLength is the fixed number of slots in the operation-code buffer
// (spec.md §3, §4.2).
const OpcodeLength = 8

// OpcodeBuffer is the 8-position operation-code buffer. Each slot starts
// empty (a space) and is written at an explicit index.
type OpcodeBuffer struct {
	slots [OpcodeLength]byte
}

// Init clears all eight slots to space.
func (o *OpcodeBuffer) Init() {
	for i := range o.slots {
		o.slots[i] = ' '
	}
}

// SetAt writes ch at index i. An out-of-range index is an error event and
// leaves the buffer unchanged, per spec.md §4.2.
func (o *OpcodeBuffer) SetAt(i int, ch byte) error {
	if i < 0 || i >= OpcodeLength {
		return fmt.Errorf("opcode: index %d out of range [0,%d)", i, OpcodeLength)
	}
	o.slots[i] = ch
	return nil
}

// Get returns the eight-character buffer contents.
func (o *OpcodeBuffer) Get() string {
	return string(o.slots[:])
}

// LoadTemplate installs a pre-shaped template into the buffer. The
// state-table collaborator is responsible for shaping the template
// (including any extension-state merge); the buffer only installs it, per
// spec.md §4.2's loadFromState contract. A short template leaves the
// remaining trailing slots untouched; a long one is truncated.
func (o *OpcodeBuffer) LoadTemplate(template string) {
	for i := 0; i < OpcodeLength && i < len(template); i++ {
		o.slots[i] = template[i]
	}
}
