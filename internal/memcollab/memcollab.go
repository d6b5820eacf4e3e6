// Package memcollab provides in-memory reference implementations of the
// terminal core's external collaborators (core.Screens, core.States,
// core.FITs, core.Hardware, core.Display, core.Settings). These are the
// collaborators spec.md §6 calls out as external to the core: screen
// rendering, state-table/FIT parsing, and hardware status are all
// genuinely out of the core's scope. This package exists only to give the
// CLI simulator (cmd/atmsim) something concrete to wire the core against;
// a production terminal would back these interfaces with real wire-format
// parsers and hardware drivers instead.
package memcollab

import (
	"fmt"
	"sync"

	"atmterm/core"
)

// MemorySettings is a mutex-guarded map backing core.Settings, grounded on
// the teacher's AccessController cache-map style (core/access_control.go).
type MemorySettings struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemorySettings returns an empty MemorySettings, optionally seeded.
func NewMemorySettings(seed map[string]string) *MemorySettings {
	data := make(map[string]string, len(seed))
	for k, v := range seed {
		data[k] = v
	}
	return &MemorySettings{data: data}
}

func (m *MemorySettings) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemorySettings) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// StaticHardware reports fixed hardware-status strings; a real terminal
// would poll actual sensors and firmware (spec.md §6, out of scope here).
type StaticHardware struct {
	Fitness       string
	Supplies      string
	Release       string
	HardwareIDVal string
}

// NewStaticHardware returns a StaticHardware with plausible defaults.
func NewStaticHardware() *StaticHardware {
	return &StaticHardware{
		Fitness:       "0000",
		Supplies:      "0000",
		Release:       "01.00",
		HardwareIDVal: "NDC-SIM-0001",
	}
}

func (h *StaticHardware) GetHardwareFitness() string { return h.Fitness }
func (h *StaticHardware) GetSuppliesStatus() string  { return h.Supplies }
func (h *StaticHardware) GetReleaseNumber() string   { return h.Release }
func (h *StaticHardware) GetHardwareID() string      { return h.HardwareIDVal }

// ConsoleDisplay renders screen changes as log lines through a core.Log,
// standing in for the real display collaborator (spec.md §6).
type ConsoleDisplay struct {
	mu  sync.Mutex
	log core.Log
	cur core.Screen
}

// NewConsoleDisplay returns a ConsoleDisplay that reports through log.
func NewConsoleDisplay(log core.Log) *ConsoleDisplay {
	return &ConsoleDisplay{log: log}
}

func (d *ConsoleDisplay) SetScreen(s core.Screen) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cur = s
	d.log.Info("display: screen set", map[string]any{"number": s.Number, "text": s.Text})
}

func (d *ConsoleDisplay) SetScreenByNumber(number string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cur = core.Screen{Number: number}
	d.log.Info("display: screen set by number", map[string]any{"number": number})
}

func (d *ConsoleDisplay) InsertText(s string, maskChar rune) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if maskChar != 0 {
		masked := make([]rune, len(s))
		for i := range masked {
			masked[i] = maskChar
		}
		d.log.Info("display: insert text", map[string]any{"text": string(masked)})
		return
	}
	d.log.Info("display: insert text", map[string]any{"text": s})
}

// Current returns the last screen set, for CLI status reporting.
func (d *ConsoleDisplay) Current() core.Screen {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cur
}

// MemoryScreens is a trivial core.Screens that stores whatever raw bytes
// it is given; real screen-data parsing is an external collaborator
// concern (spec.md §6).
type MemoryScreens struct {
	mu    sync.Mutex
	added []core.ScreenData
}

func NewMemoryScreens() *MemoryScreens { return &MemoryScreens{} }

func (s *MemoryScreens) Add(data core.ScreenData) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data.Number == "" {
		return false, fmt.Errorf("memcollab: screen data missing number")
	}
	s.added = append(s.added, data)
	return true, nil
}

// Len reports how many screens have been added so far.
func (s *MemoryScreens) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.added)
}

func (s *MemoryScreens) ParseDynamicScreenData(raw []byte) (core.Screen, error) {
	return core.Screen{Text: string(raw)}, nil
}

func (s *MemoryScreens) ParseScreenDisplayUpdate(raw []byte) (core.ScreenDisplayUpdate, error) {
	return core.ScreenDisplayUpdate{Text: string(raw)}, nil
}
