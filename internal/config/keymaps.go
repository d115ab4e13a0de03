package config

// KeyMappings defines all configurable key bindings
type KeyMappings struct {
	// Pointer
	PointerLeft  string `yaml:"pointer_left"`
	PointerRight string `yaml:"pointer_right"`
	PointerUp    string `yaml:"pointer_up"`
	PointerDown  string `yaml:"pointer_down"`

	// Drag
	Grab   string `yaml:"grab"`
	Drop   string `yaml:"drop"`
	Cancel string `yaml:"cancel"`

	// Explicit moves of the item under the pointer
	MoveItemLeft  string `yaml:"move_item_left"`
	MoveItemRight string `yaml:"move_item_right"`

	// Filters
	CycleFilter string `yaml:"cycle_filter"`
	ClearFilter string `yaml:"clear_filter"`

	// Other
	Refresh  string `yaml:"refresh"`
	ShowHelp string `yaml:"show_help"`
	Quit     string `yaml:"quit"`
}

// DefaultKeyMappings returns the default key mappings
func DefaultKeyMappings() KeyMappings {
	return KeyMappings{
		PointerLeft:  "h",
		PointerRight: "l",
		PointerUp:    "k",
		PointerDown:  "j",

		Grab:   "space",
		Drop:   "enter",
		Cancel: "esc",

		MoveItemLeft:  "H",
		MoveItemRight: "L",

		CycleFilter: "f",
		ClearFilter: "F",

		Refresh:  "r",
		ShowHelp: "?",
		Quit:     "q",
	}
}

// applyDefaults fills in missing key mappings with defaults
func (k *KeyMappings) applyDefaults() {
	d := DefaultKeyMappings()
	pairs := []struct {
		field *string
		def   string
	}{
		{&k.PointerLeft, d.PointerLeft},
		{&k.PointerRight, d.PointerRight},
		{&k.PointerUp, d.PointerUp},
		{&k.PointerDown, d.PointerDown},
		{&k.Grab, d.Grab},
		{&k.Drop, d.Drop},
		{&k.Cancel, d.Cancel},
		{&k.MoveItemLeft, d.MoveItemLeft},
		{&k.MoveItemRight, d.MoveItemRight},
		{&k.CycleFilter, d.CycleFilter},
		{&k.ClearFilter, d.ClearFilter},
		{&k.Refresh, d.Refresh},
		{&k.ShowHelp, d.ShowHelp},
		{&k.Quit, d.Quit},
	}
	for _, p := range pairs {
		if *p.field == "" {
			*p.field = p.def
		}
	}
}
