package memcollab

import (
	"encoding/json"
	"fmt"
	"sync"

	"atmterm/core"
)

// stateDoc is the JSON shape a State Tables load carries in this
// reference implementation: one document per state, keyed by kind-specific
// fields matching core.State's kind structs. A real terminal would decode
// this from the legacy wire state-table format instead (spec.md §6).
type stateDoc struct {
	Number      string `json:"number"`
	Type        string `json:"type"`
	Description string `json:"description"`

	CardRead           *core.CardReadState           `json:"card_read,omitempty"`
	PINEntry           *core.PINEntryState           `json:"pin_entry,omitempty"`
	OpcodeFromState    *core.OpcodeFromStateState     `json:"opcode_from_state,omitempty"`
	FourFDKSelection   *fourFDKSelectionDoc           `json:"four_fdk_selection,omitempty"`
	AmountEntry        *amountEntryDoc                `json:"amount_entry,omitempty"`
	InformationEntry   *informationEntryDoc           `json:"information_entry,omitempty"`
	TransactionRequest *core.TransactionRequestState `json:"transaction_request,omitempty"`
	Close              *core.CloseState               `json:"close,omitempty"`
	FITExitSelection   *core.FITExitSelectionState    `json:"fit_exit_selection,omitempty"`
	FDKBufferLookup    *core.FDKBufferLookupState     `json:"fdk_buffer_lookup,omitempty"`
	StoreAndActivate   *storeAndActivateDoc           `json:"store_and_activate,omitempty"`
	StoreFDKToOpcode   *core.StoreFDKToOpcodeState    `json:"store_fdk_to_opcode,omitempty"`
	ICCBeginInit       *core.ICCBeginInitState        `json:"icc_begin_init,omitempty"`
	ICCCompleteAppInit *iccCompleteAppInitDoc         `json:"icc_complete_app_init,omitempty"`
	ICCReinit          *core.ICCReinitState           `json:"icc_reinit,omitempty"`
	ICCSetData         *core.ICCSetDataState          `json:"icc_set_data,omitempty"`
}

// fourFDKSelectionDoc carries FDKNextState as a JSON object (string keys)
// since JSON has no byte-keyed maps; it is converted to core's byte-keyed
// map on load.
type fourFDKSelectionDoc struct {
	ScreenNumber   string            `json:"screen_number"`
	FDKNextState   map[string]string `json:"fdk_next_state"`
	BufferLocation int               `json:"buffer_location"`
}

type amountEntryDoc struct {
	ScreenNumber string            `json:"screen_number"`
	FDKNextState map[string]string `json:"fdk_next_state"`
}

type informationEntryDoc struct {
	FDKNextState           map[string]string `json:"fdk_next_state"`
	BufferAndDisplayParams string            `json:"buffer_and_display_params"`
}

type storeAndActivateDoc struct {
	ScreenNumber     string         `json:"screen_number"`
	FDKActiveMask    string         `json:"fdk_active_mask"`
	ExtensionEntries map[int]string `json:"extension_entries"`
	BufferID         string         `json:"buffer_id"`
	FDKNextState     string         `json:"fdk_next_state"`
}

type iccCompleteAppInitDoc struct {
	PleaseWaitScreenNumber string         `json:"please_wait_screen_number"`
	ExtensionEntries       map[int]string `json:"extension_entries"`
}

func toByteKeyedMap(m map[string]string) map[byte]string {
	if m == nil {
		return nil
	}
	out := make(map[byte]string, len(m))
	for k, v := range m {
		if len(k) != 1 {
			continue
		}
		out[k[0]] = v
	}
	return out
}

// MemoryStates is an in-memory core.States backed by JSON-decoded state
// documents, grounded on the teacher's map+mutex cache style
// (core/access_control.go).
type MemoryStates struct {
	mu       sync.Mutex
	byNumber map[string]*core.State
}

// NewMemoryStates returns an empty MemoryStates.
func NewMemoryStates() *MemoryStates {
	return &MemoryStates{byNumber: make(map[string]*core.State)}
}

// Add decodes one or more stateDoc entries from raw (a JSON array or a
// single JSON object) and installs them, validating that the kind-specific
// field matching Type is present -- the validation spec.md §9 assigns to
// the States collaborator rather than the interpreter.
func (s *MemoryStates) Add(data core.StateData) (bool, error) {
	docs, err := decodeStateDocs(data.Raw)
	if err != nil {
		return false, err
	}
	parsed := make([]*core.State, 0, len(docs))
	for _, d := range docs {
		st, err := docToState(d)
		if err != nil {
			return false, err
		}
		parsed = append(parsed, st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range parsed {
		s.byNumber[st.Number] = st
	}
	return true, nil
}

func (s *MemoryStates) Get(number string) (*core.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.byNumber[number]
	return st, ok
}

func decodeStateDocs(raw []byte) ([]stateDoc, error) {
	var arr []stateDoc
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, nil
	}
	var one stateDoc
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("memcollab: invalid state table payload: %w", err)
	}
	return []stateDoc{one}, nil
}

func docToState(d stateDoc) (*core.State, error) {
	if d.Number == "" || len(d.Type) != 1 {
		return nil, fmt.Errorf("memcollab: state missing number or type: %+v", d)
	}
	st := &core.State{Number: d.Number, Type: d.Type[0], Description: d.Description}
	switch st.Type {
	case core.KindCardRead:
		if d.CardRead == nil {
			return nil, fmt.Errorf("memcollab: state %s type A missing card_read fields", d.Number)
		}
		st.CardRead = d.CardRead
	case core.KindPINEntry:
		if d.PINEntry == nil {
			return nil, fmt.Errorf("memcollab: state %s type B missing pin_entry fields", d.Number)
		}
		st.PINEntry = d.PINEntry
	case core.KindOpcodeFromState:
		if d.OpcodeFromState == nil {
			return nil, fmt.Errorf("memcollab: state %s type D missing opcode_from_state fields", d.Number)
		}
		st.OpcodeFromState = d.OpcodeFromState
	case core.KindFourFDKSelection:
		if d.FourFDKSelection == nil {
			return nil, fmt.Errorf("memcollab: state %s type E missing four_fdk_selection fields", d.Number)
		}
		st.FourFDKSelection = &core.FourFDKSelectionState{
			ScreenNumber:   d.FourFDKSelection.ScreenNumber,
			FDKNextState:   toByteKeyedMap(d.FourFDKSelection.FDKNextState),
			BufferLocation: d.FourFDKSelection.BufferLocation,
		}
	case core.KindAmountEntry:
		if d.AmountEntry == nil {
			return nil, fmt.Errorf("memcollab: state %s type F missing amount_entry fields", d.Number)
		}
		st.AmountEntry = &core.AmountEntryState{
			ScreenNumber: d.AmountEntry.ScreenNumber,
			FDKNextState: toByteKeyedMap(d.AmountEntry.FDKNextState),
		}
	case core.KindInformationEntry:
		if d.InformationEntry == nil {
			return nil, fmt.Errorf("memcollab: state %s type H missing information_entry fields", d.Number)
		}
		st.InformationEntry = &core.InformationEntryState{
			FDKNextState:           toByteKeyedMap(d.InformationEntry.FDKNextState),
			BufferAndDisplayParams: d.InformationEntry.BufferAndDisplayParams,
		}
	case core.KindTransactionRequest:
		if d.TransactionRequest == nil {
			return nil, fmt.Errorf("memcollab: state %s type I missing transaction_request fields", d.Number)
		}
		st.TransactionRequest = d.TransactionRequest
	case core.KindClose:
		if d.Close == nil {
			return nil, fmt.Errorf("memcollab: state %s type J missing close fields", d.Number)
		}
		st.Close = d.Close
	case core.KindFITExitSelection:
		if d.FITExitSelection == nil {
			return nil, fmt.Errorf("memcollab: state %s type K missing fit_exit_selection fields", d.Number)
		}
		st.FITExitSelection = d.FITExitSelection
	case core.KindFDKBufferLookup:
		if d.FDKBufferLookup == nil {
			return nil, fmt.Errorf("memcollab: state %s type W missing fdk_buffer_lookup fields", d.Number)
		}
		st.FDKBufferLookup = d.FDKBufferLookup
	case core.KindStoreAndActivate:
		if d.StoreAndActivate == nil {
			return nil, fmt.Errorf("memcollab: state %s type X missing store_and_activate fields", d.Number)
		}
		st.StoreAndActivate = &core.StoreAndActivateState{
			ScreenNumber:     d.StoreAndActivate.ScreenNumber,
			FDKActiveMask:    d.StoreAndActivate.FDKActiveMask,
			ExtensionEntries: d.StoreAndActivate.ExtensionEntries,
			BufferID:         d.StoreAndActivate.BufferID,
			FDKNextState:     d.StoreAndActivate.FDKNextState,
		}
	case core.KindStoreFDKToOpcode:
		if d.StoreFDKToOpcode == nil {
			return nil, fmt.Errorf("memcollab: state %s type Y missing store_fdk_to_opcode fields", d.Number)
		}
		st.StoreFDKToOpcode = d.StoreFDKToOpcode
	case core.KindICCBeginInit:
		if d.ICCBeginInit == nil {
			return nil, fmt.Errorf("memcollab: state %s type + missing icc_begin_init fields", d.Number)
		}
		st.ICCBeginInit = d.ICCBeginInit
	case core.KindICCCompleteAppInit:
		if d.ICCCompleteAppInit == nil {
			return nil, fmt.Errorf("memcollab: state %s type / missing icc_complete_app_init fields", d.Number)
		}
		st.ICCCompleteAppInit = &core.ICCCompleteAppInitState{
			PleaseWaitScreenNumber: d.ICCCompleteAppInit.PleaseWaitScreenNumber,
			ExtensionEntries:       d.ICCCompleteAppInit.ExtensionEntries,
		}
	case core.KindICCReinit:
		if d.ICCReinit == nil {
			return nil, fmt.Errorf("memcollab: state %s type ; missing icc_reinit fields", d.Number)
		}
		st.ICCReinit = d.ICCReinit
	case core.KindICCSetData:
		if d.ICCSetData == nil {
			return nil, fmt.Errorf("memcollab: state %s type ? missing icc_set_data fields", d.Number)
		}
		st.ICCSetData = d.ICCSetData
	default:
		return nil, fmt.Errorf("memcollab: state %s has unknown type %q", d.Number, st.Type)
	}
	return st, nil
}
