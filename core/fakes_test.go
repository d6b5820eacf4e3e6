package core

// Hand-rolled fakes for the terminal's collaborators, following the
// teacher's in-file fake pattern (core/access_control_test.go).

type fakeScreens struct {
	added []ScreenData
}

func (f *fakeScreens) Add(data ScreenData) (bool, error) {
	f.added = append(f.added, data)
	return true, nil
}

func (f *fakeScreens) ParseDynamicScreenData(raw []byte) (Screen, error) {
	return Screen{Text: string(raw)}, nil
}

func (f *fakeScreens) ParseScreenDisplayUpdate(raw []byte) (ScreenDisplayUpdate, error) {
	return ScreenDisplayUpdate{Text: string(raw)}, nil
}

type fakeStates struct {
	byNumber map[string]*State
}

func newFakeStates() *fakeStates {
	return &fakeStates{byNumber: make(map[string]*State)}
}

func (f *fakeStates) Add(data StateData) (bool, error) {
	return true, nil
}

func (f *fakeStates) Get(number string) (*State, bool) {
	s, ok := f.byNumber[number]
	return s, ok
}

func (f *fakeStates) put(s *State) {
	f.byNumber[s.Number] = s
}

type fakeFITs struct {
	institutions map[string]string
	maxPIN       map[string]int
}

func newFakeFITs() *fakeFITs {
	return &fakeFITs{institutions: make(map[string]string), maxPIN: make(map[string]int)}
}

func (f *fakeFITs) Add(data []byte) (bool, error) { return true, nil }

func (f *fakeFITs) GetInstitutionByCardNumber(pan string) (string, bool) {
	v, ok := f.institutions[pan]
	return v, ok
}

func (f *fakeFITs) GetMaxPINLength(pan string) (int, bool) {
	v, ok := f.maxPIN[pan]
	return v, ok
}

type fakeCrypto struct {
	keySet    bool
	failEnc   bool
	lastPIN   string
	lastPAN   string
}

func (f *fakeCrypto) GetEncryptedPIN(clearPIN, pan string) ([]byte, error) {
	f.lastPIN, f.lastPAN = clearPIN, pan
	if f.failEnc {
		return nil, errFakeCrypto
	}
	return []byte("encrypted:" + clearPIN + ":" + pan), nil
}

func (f *fakeCrypto) SetCommsKey(data []byte, length int) (bool, error) {
	f.keySet = true
	return true, nil
}

type fakeDisplay struct {
	screens     []Screen
	screenNums  []string
	inserted    []string
}

func (f *fakeDisplay) SetScreen(s Screen)             { f.screens = append(f.screens, s) }
func (f *fakeDisplay) SetScreenByNumber(number string) { f.screenNums = append(f.screenNums, number) }
func (f *fakeDisplay) InsertText(s string, maskChar rune) {
	f.inserted = append(f.inserted, s)
}

type fakeHardware struct{}

func (fakeHardware) GetHardwareFitness() string { return "OK" }
func (fakeHardware) GetSuppliesStatus() string  { return "OK" }
func (fakeHardware) GetReleaseNumber() string   { return "1.0" }
func (fakeHardware) GetHardwareID() string      { return "HW-0001" }

type fakeSettings struct {
	values map[string]string
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{values: make(map[string]string)}
}

func (f *fakeSettings) Get(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

func (f *fakeSettings) Set(key, value string) error {
	f.values[key] = value
	return nil
}

type fakeLog struct {
	infos, warns, errors []string
}

func (f *fakeLog) Info(msg string, fields map[string]any)  { f.infos = append(f.infos, msg) }
func (f *fakeLog) Warn(msg string, fields map[string]any)  { f.warns = append(f.warns, msg) }
func (f *fakeLog) Error(msg string, fields map[string]any) { f.errors = append(f.errors, msg) }

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

const errFakeCrypto = fakeErr("fake crypto failure")

func newTestTerminal() (*Terminal, *fakeStates, *fakeDisplay, *fakeFITs, *fakeCrypto) {
	states := newFakeStates()
	display := &fakeDisplay{}
	fits := newFakeFITs()
	crypto := &fakeCrypto{}
	term, err := NewTerminal(TerminalConfig{
		Screens:  &fakeScreens{},
		States:   states,
		FITs:     fits,
		Crypto:   crypto,
		Display:  display,
		Hardware: fakeHardware{},
		Settings: newFakeSettings(),
		Log:      &fakeLog{},
	})
	if err != nil {
		panic(err)
	}
	return term, states, display, fits, crypto
}
