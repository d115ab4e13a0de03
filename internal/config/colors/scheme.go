package colors

// ColorScheme defines all configurable color values
type ColorScheme struct {
	// Preset name ("default" or "monochrome")
	Preset string `yaml:"preset"`

	// Primary accent color (titles, pointer, highlights)
	Accent string `yaml:"accent"`

	// Board elements
	ColumnBorder   string `yaml:"column_border"`
	CardBorder     string `yaml:"card_border"`
	DraggingBorder string `yaml:"dragging_border"` // Card being dragged
	DropTarget     string `yaml:"drop_target"`     // Insertion marker

	// Item kinds
	Deal string `yaml:"deal"`
	Task string `yaml:"task"`

	// Text colors
	Title   string `yaml:"title"`
	Subtle  string `yaml:"subtle"` // Muted/placeholder text
	Normal  string `yaml:"normal"`
	Overdue string `yaml:"overdue"`

	// Notification foregrounds
	Info    string `yaml:"info"`
	Warning string `yaml:"warning"`
	Error   string `yaml:"error"`
}

// GetPreset returns a preset color scheme by name, falling back to Default
func GetPreset(name string) *ColorScheme {
	if name == "monochrome" {
		return Monochrome()
	}
	return Default()
}

// ApplyDefaults fills in missing color values from the selected preset
func (c *ColorScheme) ApplyDefaults() {
	preset := GetPreset(c.Preset)
	if c.Preset == "" {
		c.Preset = preset.Preset
	}

	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&c.Accent, preset.Accent)
	fill(&c.ColumnBorder, preset.ColumnBorder)
	fill(&c.CardBorder, preset.CardBorder)
	fill(&c.DraggingBorder, preset.DraggingBorder)
	fill(&c.DropTarget, preset.DropTarget)
	fill(&c.Deal, preset.Deal)
	fill(&c.Task, preset.Task)
	fill(&c.Title, preset.Title)
	fill(&c.Subtle, preset.Subtle)
	fill(&c.Normal, preset.Normal)
	fill(&c.Overdue, preset.Overdue)
	fill(&c.Info, preset.Info)
	fill(&c.Warning, preset.Warning)
	fill(&c.Error, preset.Error)
}
