package colors

// Monochrome returns a black and white color scheme
func Monochrome() *ColorScheme {
	return &ColorScheme{
		Preset: "monochrome",
		Accent: "#FFFFFF",

		ColumnBorder:   "#808080",
		CardBorder:     "#4E4E4E",
		DraggingBorder: "#FFFFFF",
		DropTarget:     "#FFFFFF",

		Deal: "#D0D0D0",
		Task: "#D0D0D0",

		Title:   "#FFFFFF",
		Subtle:  "#6C6C6C",
		Normal:  "#D0D0D0",
		Overdue: "#FFFFFF",

		Info:    "#D0D0D0",
		Warning: "#FFFFFF",
		Error:   "#FFFFFF",
	}
}
