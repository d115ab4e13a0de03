package colors

// Default returns the default color scheme (purple theme)
func Default() *ColorScheme {
	return &ColorScheme{
		Preset: "default",
		Accent: "#874BFD",

		ColumnBorder:   "#5F87D7",
		CardBorder:     "#585858",
		DraggingBorder: "#D75FD7",
		DropTarget:     "#5FD75F",

		Deal: "#FFD700",
		Task: "#00AFFF",

		Title:   "#D75FD7",
		Subtle:  "#585858",
		Normal:  "#D0D0D0",
		Overdue: "#FF5F5F",

		Info:    "#00AFFF",
		Warning: "#FFD700",
		Error:   "#FF0000",
	}
}
