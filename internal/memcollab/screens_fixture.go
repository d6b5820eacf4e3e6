package memcollab

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"atmterm/core"
)

// screenFixture is one hand-authored screen entry in a YAML screens
// fixture. Unlike state tables and FIT rows, screen text is commonly
// hand-edited, so this reference loader favors YAML's readability over
// JSON (the teacher's own pkg/config loader makes the same choice for
// terminal configuration).
type screenFixture struct {
	Number string `yaml:"number"`
	Text   string `yaml:"text"`
}

// LoadScreensYAML decodes a YAML document (an array of screenFixture
// entries) from raw and adds each to screens.
func LoadScreensYAML(screens *MemoryScreens, raw []byte) error {
	var entries []screenFixture
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("memcollab: invalid screens yaml: %w", err)
	}
	for _, e := range entries {
		if e.Number == "" {
			return fmt.Errorf("memcollab: screen fixture missing number")
		}
		if _, err := screens.Add(core.ScreenData{Number: e.Number, Raw: []byte(e.Text)}); err != nil {
			return fmt.Errorf("memcollab: add screen %s: %w", e.Number, err)
		}
	}
	return nil
}
