package core

// State kind tags (spec.md §4.5). Each matches the single-character type
// code carried on the wire state table.
const (
	KindCardRead            = 'A'
	KindPINEntry            = 'B'
	KindOpcodeFromState     = 'D'
	KindFourFDKSelection    = 'E'
	KindAmountEntry         = 'F'
	KindInformationEntry    = 'H'
	KindTransactionRequest  = 'I'
	KindClose               = 'J'
	KindFITExitSelection    = 'K'
	KindFDKBufferLookup     = 'W'
	KindStoreAndActivate    = 'X'
	KindStoreFDKToOpcode    = 'Y'
	KindICCBeginInit        = '+'
	KindICCCompleteAppInit  = '/'
	KindICCReinit           = ';'
	KindICCSetData          = '?'
)

// State is a tagged variant over the state kinds in spec.md §4.5: Type
// selects which of the kind-specific pointers is populated. The States
// collaborator validates on load (Add) that exactly the field matching
// Type is set; the interpreter trusts that invariant and never probes the
// others (spec.md §9's "runtime field lookup" note).
type State struct {
	Number      string
	Type        byte
	Description string

	CardRead           *CardReadState
	PINEntry           *PINEntryState
	OpcodeFromState    *OpcodeFromStateState
	FourFDKSelection   *FourFDKSelectionState
	AmountEntry        *AmountEntryState
	InformationEntry   *InformationEntryState
	TransactionRequest *TransactionRequestState
	Close              *CloseState
	FITExitSelection   *FITExitSelectionState
	FDKBufferLookup    *FDKBufferLookupState
	StoreAndActivate   *StoreAndActivateState
	StoreFDKToOpcode   *StoreFDKToOpcodeState
	ICCBeginInit       *ICCBeginInitState
	ICCCompleteAppInit *ICCCompleteAppInitState
	ICCReinit          *ICCReinitState
	ICCSetData         *ICCSetDataState
}

// CardReadState is kind A.
type CardReadState struct {
	ScreenNumber     string
	GoodReadNextState string
}

// PINEntryState is kind B.
type PINEntryState struct {
	ScreenNumber              string
	RemotePINCheckNextState   string
}

// OpcodeFromStateState is kind D. ExtensionState is the raw 3-digit field;
// per spec.md §4.5 it is consulted ('255'/'000' means "no extension").
// ExtensionTemplate is installed instead of Template when an extension is
// present.
type OpcodeFromStateState struct {
	Template          string
	ExtensionState    string
	ExtensionTemplate string
	NextState         string
}

// HasExtension reports whether this D-state specifies an extension state.
func (s *OpcodeFromStateState) HasExtension() bool {
	return s.ExtensionState != "" && s.ExtensionState != "255" && s.ExtensionState != "000"
}

// FourFDKSelectionState is kind E. FDKNextState is indexed by FDK letter
// A..D; BufferLocation selects the opcode slot written on any active
// press (spec.md §4.5: position 7-BufferLocation).
type FourFDKSelectionState struct {
	ScreenNumber   string
	FDKNextState   map[byte]string // keys 'A'..'D'
	BufferLocation int
}

// AmountEntryState is kind F.
type AmountEntryState struct {
	ScreenNumber string
	FDKNextState map[byte]string // keys 'A'..'D'
}

// InformationEntryState is kind H. BufferAndDisplayParams is the raw
// 3-character field; index 2 selects the buffer/display mode per the
// table in spec.md §4.5.
type InformationEntryState struct {
	FDKNextState           map[byte]string // keys 'A'..'D'
	BufferAndDisplayParams string
}

// TransactionRequestState is kind I. The five Send* fields gate optional
// Transaction Request Assembler fields (spec.md §4.6); each is a 3-digit
// value compared against a specific literal.
type TransactionRequestState struct {
	ScreenNumber      string
	SendTrack2        string
	SendOperationCode string
	SendAmountData    string
	SendPINBuffer     string
	SendBufferBC      string
}

// CloseState is kind J.
type CloseState struct {
	ReceiptDeliveredScreen string
}

// FITExitSelectionState is kind K. StateExits is indexed by institution id.
type FITExitSelectionState struct {
	StateExits []string
}

// FDKBufferLookupState is kind W. Targets maps an FDK letter to a next
// state number.
type FDKBufferLookupState struct {
	Targets map[string]string
}

// StoreAndActivateState is kind X. ExtensionEntries, when non-nil, is
// indexed by the FDK->extension-entry table in spec.md §4.5
// ({A:2,B:3,C:4,D:5,F:6,G:7,H:8,I:9}). BufferID[1] selects the
// destination (B/C/Amount); BufferID[2] is the zero-pad count.
type StoreAndActivateState struct {
	ScreenNumber     string
	FDKActiveMask    string
	ExtensionEntries map[int]string
	BufferID         string
	FDKNextState     string
}

// StoreFDKToOpcodeState is kind Y. HasExtension marks the deferred
// extension-state path (spec.md §9: left unimplemented by design).
// BufferPosition is the opcode index written on an active press.
type StoreFDKToOpcodeState struct {
	ScreenNumber   string
	FDKActiveMask  string
	HasExtension   bool
	BufferPosition int
	FDKNextState   string
}

// ICCBeginInitState is kind '+'.
type ICCBeginInitState struct {
	ICCInitNotStartedNextState string
}

// ICCCompleteAppInitState is kind '/'. ExtensionEntries[8] is the next
// state, per spec.md §4.5.
type ICCCompleteAppInitState struct {
	PleaseWaitScreenNumber string
	ExtensionEntries       map[int]string
}

// ICCReinitState is kind ';'.
type ICCReinitState struct {
	ProcessingNotPerformedNextState string
}

// ICCSetDataState is kind '?'.
type ICCSetDataState struct {
	NextState string
}
