package core

import (
	"strconv"
	"strings"
)

// maxStateTransitions is the state-transition safety bound (spec.md §4.5,
// §7): a "configuration cycle", not an error propagated to callers.
const maxStateTransitions = 20

// fdkExtensionIndex maps an FDK letter to its extension-state entry index
// (spec.md §4.5, state kind X).
var fdkExtensionIndex = map[byte]int{
	'A': 2, 'B': 3, 'C': 4, 'D': 5, 'F': 6, 'G': 7, 'H': 8, 'I': 9,
}

// ReadCard parses a Track-2 string into a card and re-drives the
// interpreter from the current state. A parse failure transitions the
// terminal to OutOfService (spec.md §7).
func (t *Terminal) ReadCard(track2 string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	card, err := ParseCard(track2)
	if err != nil {
		t.logError("card parse failed", map[string]any{"error": err.Error()})
		t.setStatus(StatusOutOfService)
		return
	}
	t.card = card
	t.driveStateLocked(t.currentState)
}

// ProcessPinpadButtonPressed handles a keypad digit or the enter key.
// Digits are applied directly to the buffer the current state kind
// expects (PIN for kind B, Amount for kind F) before the input also joins
// the operator-input queue the interpreter consults.
func (t *Terminal) ProcessPinpadButtonPressed(button string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.states.Get(t.currentState); ok && st != nil {
		if isDigit(button) {
			switch st.Type {
			case KindPINEntry:
				t.buffers.AppendPIN(button)
				if t.metrics != nil {
					t.metrics.PINEntries.Inc()
				}
			case KindAmountEntry:
				t.buffers.SetAmount(button)
			}
		}
	}
	t.pushInput(button)
	t.driveStateLocked(t.currentState)
}

// ProcessFDKButtonPressed handles an FDK bezel-key press.
func (t *Terminal) ProcessFDKButtonPressed(letter string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.metrics != nil {
		t.metrics.FDKPresses.Inc()
	}
	t.pushInput(strings.ToUpper(letter))
	t.driveStateLocked(t.currentState)
}

// processState drives the interpreter from a given starting state number.
// It is a thin wrapper over driveStateLocked, which the host dispatcher
// (C7) calls directly.
func (t *Terminal) processState(start string) {
	t.driveStateLocked(start)
}

func (t *Terminal) driveStateLocked(start string) {
	current := start
	for i := 0; i < maxStateTransitions; i++ {
		st, ok := t.states.Get(current)
		if !ok || st == nil {
			t.logError("state not found", map[string]any{"state": current})
			t.currentState = current
			return
		}
		t.currentState = current
		next, hasNext := t.dispatchState(st)
		if t.metrics != nil {
			t.metrics.StateTransitions.Inc()
		}
		if !hasNext {
			return
		}
		t.clearInputQueueLocked()
		current = next
	}
	if t.metrics != nil {
		t.metrics.CycleGuardAborts.Inc()
	}
	t.logError("configuration cycle: exceeded transition bound", map[string]any{"state": current})
}

func (t *Terminal) dispatchState(s *State) (string, bool) {
	switch s.Type {
	case KindCardRead:
		return withState(s.CardRead, t.enterCardRead)
	case KindPINEntry:
		return withState(s.PINEntry, t.enterPINEntry)
	case KindOpcodeFromState:
		return withState(s.OpcodeFromState, t.enterOpcodeFromState)
	case KindFourFDKSelection:
		return withState(s.FourFDKSelection, t.enterFourFDKSelection)
	case KindAmountEntry:
		return withState(s.AmountEntry, t.enterAmountEntry)
	case KindInformationEntry:
		return withState(s.InformationEntry, t.enterInformationEntry)
	case KindTransactionRequest:
		return withState(s.TransactionRequest, t.enterTransactionRequest)
	case KindClose:
		return withState(s.Close, t.enterClose)
	case KindFITExitSelection:
		return withState(s.FITExitSelection, t.enterFITExitSelection)
	case KindFDKBufferLookup:
		return withState(s.FDKBufferLookup, t.enterFDKBufferLookup)
	case KindStoreAndActivate:
		return withState(s.StoreAndActivate, t.enterStoreAndActivate)
	case KindStoreFDKToOpcode:
		return withState(s.StoreFDKToOpcode, t.enterStoreFDKToOpcode)
	case KindICCBeginInit:
		return withState(s.ICCBeginInit, t.enterICCBeginInit)
	case KindICCCompleteAppInit:
		return withState(s.ICCCompleteAppInit, t.enterICCCompleteAppInit)
	case KindICCReinit:
		return withState(s.ICCReinit, t.enterICCReinit)
	case KindICCSetData:
		return withState(s.ICCSetData, t.enterICCSetData)
	default:
		t.logError("unknown state type", map[string]any{"type": string(s.Type), "state": s.Number})
		return "", false
	}
}

// withState guards against a state whose kind-specific field was left nil
// by a misbehaving States collaborator (spec.md §9 delegates validation to
// load time; this is a defensive backstop, not a replacement for it).
func withState[K any](field *K, fn func(*K) (string, bool)) (string, bool) {
	if field == nil {
		return "", false
	}
	return fn(field)
}

// --- state kind A: Card Read ---

func (t *Terminal) enterCardRead(s *CardReadState) (string, bool) {
	t.buffers.InitBuffers()
	t.display.SetScreenByNumber(s.ScreenNumber)
	if t.card != nil {
		return s.GoodReadNextState, true
	}
	return "", false
}

// --- state kind B: PIN Entry ---

func (t *Terminal) enterPINEntry(s *PINEntryState) (string, bool) {
	t.display.SetScreenByNumber(s.ScreenNumber)
	if err := t.fdks.SetMask("001"); err != nil {
		t.logWarn("fdk mask error", map[string]any{"error": err.Error()})
	}
	max := DefaultMaxPINLength
	if t.card != nil {
		if m, ok := t.fits.GetMaxPINLength(t.card.Number); ok && m > 0 {
			max = m
		}
	}
	t.buffers.SetMaxPINLength(max)
	pin := t.buffers.Get(BufferPIN)
	if len(pin) >= max || (len(pin) >= 4 && t.containsInput("enter")) {
		return s.RemotePINCheckNextState, true
	}
	return "", false
}

// --- state kind D: Opcode from state ---

func (t *Terminal) enterOpcodeFromState(s *OpcodeFromStateState) (string, bool) {
	if s.HasExtension() {
		t.buffers.OpcodeLoadTemplate(s.ExtensionTemplate)
	} else {
		t.buffers.OpcodeLoadTemplate(s.Template)
	}
	return s.NextState, true
}

// --- state kind E: Four-FDK Selection ---

func (t *Terminal) enterFourFDKSelection(s *FourFDKSelectionState) (string, bool) {
	t.display.SetScreenByNumber(s.ScreenNumber)
	t.fdks.SetActiveLetters(activeABCDLetters(s.FDKNextState))
	letter, ok := t.consumeFDKLetter()
	if !ok {
		return "", false
	}
	next, active := activeNext(s.FDKNextState, letter)
	if !active {
		return "", false
	}
	if err := t.buffers.OpcodeSetAt(7-s.BufferLocation, letter); err != nil {
		t.logError("opcode write failed", map[string]any{"error": err.Error(), "buffer_location": s.BufferLocation})
	}
	return next, true
}

// --- state kind F: Amount Entry ---

func (t *Terminal) enterAmountEntry(s *AmountEntryState) (string, bool) {
	t.display.SetScreenByNumber(s.ScreenNumber)
	if err := t.fdks.SetMask("015"); err != nil {
		t.logWarn("fdk mask error", map[string]any{"error": err.Error()})
	}
	v, ok := t.consumeInput()
	if ok {
		if letter, isLetter := asFDKLetter(v); isLetter {
			if next, active := activeNext(s.FDKNextState, letter); active {
				return next, true
			}
		}
	}
	return "", false
}

// --- state kind H: Information Entry ---

func (t *Terminal) enterInformationEntry(s *InformationEntryState) (string, bool) {
	mask := buildBinaryMask(s.FDKNextState)
	if err := t.fdks.SetMask(mask); err != nil {
		t.logWarn("fdk mask error", map[string]any{"error": err.Error()})
	}
	v, ok := t.consumeInput()
	if ok {
		if letter, isLetter := asFDKLetter(v); isLetter {
			if next, active := activeNext(s.FDKNextState, letter); active {
				return next, true
			}
		}
	}
	if len(s.BufferAndDisplayParams) >= 3 {
		switch s.BufferAndDisplayParams[2] {
		case '0', '1':
			t.buffers.ClearBuffer(BufferC)
		case '2', '3':
			t.buffers.ClearBuffer(BufferB)
		}
	}
	return "", false
}

// --- state kind I: Transaction Request ---

func (t *Terminal) enterTransactionRequest(s *TransactionRequestState) (string, bool) {
	t.display.SetScreenByNumber(s.ScreenNumber)
	if !t.interactiveTransaction {
		t.transactionRequest = t.assembleTransactionRequest(s)
		return "", false
	}
	v, _ := t.consumeInput()
	t.buffers.SetB(v)
	t.transactionRequest = t.assembleInteractiveRequest(v)
	return "", false
}

// --- state kind J: Close ---

func (t *Terminal) enterClose(s *CloseState) (string, bool) {
	t.display.SetScreenByNumber(s.ReceiptDeliveredScreen)
	if err := t.fdks.SetMask("000"); err != nil {
		t.logWarn("fdk mask error", map[string]any{"error": err.Error()})
	}
	t.card = nil
	return "", false
}

// --- state kind K: FIT Exit Selection ---

func (t *Terminal) enterFITExitSelection(s *FITExitSelectionState) (string, bool) {
	if t.card == nil {
		return "", false
	}
	idStr, ok := t.fits.GetInstitutionByCardNumber(t.card.Number)
	if !ok {
		return "", false
	}
	idx, err := strconv.Atoi(idStr)
	if err != nil || idx < 0 || idx >= len(s.StateExits) {
		t.logError("fit exit selection: institution id out of range", map[string]any{"id": idStr})
		return "", false
	}
	return s.StateExits[idx], true
}

// --- state kind W: FDK Buffer Lookup ---

func (t *Terminal) enterFDKBufferLookup(s *FDKBufferLookupState) (string, bool) {
	next, ok := s.Targets[t.buffers.FDKBuffer()]
	if !ok {
		return "", false
	}
	return next, true
}

// --- state kind X: Store and Activate ---

func (t *Terminal) enterStoreAndActivate(s *StoreAndActivateState) (string, bool) {
	t.display.SetScreenByNumber(s.ScreenNumber)
	if err := t.fdks.SetMask(s.FDKActiveMask); err != nil {
		t.logWarn("fdk mask error", map[string]any{"error": err.Error()})
	}
	v, ok := t.consumeInput()
	if !ok {
		return "", false
	}
	letter, isLetter := asFDKLetter(v)
	if !isLetter || !t.fdks.IsActive(letter) {
		return "", false
	}
	t.buffers.SetFDKBuffer(string(letter))
	if s.ExtensionEntries != nil {
		t.applyStoreAndActivateExtension(s, letter)
	}
	return s.FDKNextState, true
}

func (t *Terminal) applyStoreAndActivateExtension(s *StoreAndActivateState, letter byte) {
	idx, ok := fdkExtensionIndex[letter]
	if !ok {
		t.logWarn("store-and-activate: fdk has no extension entry", map[string]any{"fdk": string(letter)})
		return
	}
	entry := s.ExtensionEntries[idx]
	if len(s.BufferID) >= 3 {
		if n := int(s.BufferID[2] - '0'); n > 0 {
			entry += strings.Repeat("0", n)
		}
	}
	if len(s.BufferID) < 2 {
		return
	}
	switch s.BufferID[1] {
	case '1':
		t.buffers.SetB(entry)
	case '2':
		t.buffers.SetC(entry)
	case '3':
		t.buffers.SetAmount(entry)
	}
}

// --- state kind Y: Store FDK to Opcode ---

func (t *Terminal) enterStoreFDKToOpcode(s *StoreFDKToOpcodeState) (string, bool) {
	t.display.SetScreenByNumber(s.ScreenNumber)
	if err := t.fdks.SetMask(s.FDKActiveMask); err != nil {
		t.logWarn("fdk mask error", map[string]any{"error": err.Error()})
	}
	if s.HasExtension {
		t.logWarn("state Y extension path not implemented", map[string]any{"state": s.ScreenNumber})
		return "", false
	}
	v, ok := t.consumeInput()
	if !ok {
		return "", false
	}
	letter, isLetter := asFDKLetter(v)
	if !isLetter || !t.fdks.IsActive(letter) {
		return "", false
	}
	t.buffers.SetFDKBuffer(string(letter))
	if err := t.buffers.OpcodeSetAt(s.BufferPosition, letter); err != nil {
		t.logError("opcode write failed", map[string]any{"error": err.Error()})
	}
	return s.FDKNextState, true
}

// --- state kind '+': Begin ICC Init ---

func (t *Terminal) enterICCBeginInit(s *ICCBeginInitState) (string, bool) {
	return s.ICCInitNotStartedNextState, true
}

// --- state kind '/': Complete ICC App Init ---

func (t *Terminal) enterICCCompleteAppInit(s *ICCCompleteAppInitState) (string, bool) {
	t.display.SetScreenByNumber(s.PleaseWaitScreenNumber)
	next, ok := s.ExtensionEntries[8]
	if !ok {
		return "", false
	}
	return next, true
}

// --- state kind ';': ICC Re-init ---

func (t *Terminal) enterICCReinit(s *ICCReinitState) (string, bool) {
	return s.ProcessingNotPerformedNextState, true
}

// --- state kind '?': Set ICC Data ---

func (t *Terminal) enterICCSetData(s *ICCSetDataState) (string, bool) {
	return s.NextState, true
}

// --- shared helpers ---

func activeABCDLetters(next map[byte]string) []byte {
	var out []byte
	for _, letter := range []byte{'A', 'B', 'C', 'D'} {
		if v, ok := next[letter]; ok && v != "" && v != "255" {
			out = append(out, letter)
		}
	}
	return out
}

func activeNext(next map[byte]string, letter byte) (string, bool) {
	v, ok := next[letter]
	if !ok || v == "" || v == "255" {
		return "", false
	}
	return v, true
}

func buildBinaryMask(next map[byte]string) string {
	var b strings.Builder
	b.WriteByte('0')
	for _, letter := range []byte{'A', 'B', 'C', 'D'} {
		if v, ok := next[letter]; ok && v != "" && v != "255" {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func isDigit(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}

func asFDKLetter(s string) (byte, bool) {
	if len(s) != 1 {
		return 0, false
	}
	c := toUpperASCII(s[0])
	if c < 'A' || c > 'I' {
		return 0, false
	}
	return c, true
}
