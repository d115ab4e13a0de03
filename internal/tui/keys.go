package tui

import (
	"charm.land/bubbles/v2/key"

	"github.com/thenoetrevino/crmboard/internal/config"
)

// KeyMap is the set of board key bindings, built from the configured mappings
type KeyMap struct {
	Left  key.Binding
	Right key.Binding
	Up    key.Binding
	Down  key.Binding

	Grab   key.Binding
	Drop   key.Binding
	Cancel key.Binding

	MoveItemLeft  key.Binding
	MoveItemRight key.Binding

	CycleFilter key.Binding
	ClearFilter key.Binding

	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// NewKeyMap builds bindings from km. Arrow keys always work for the pointer
// and ctrl+c always quits.
func NewKeyMap(km config.KeyMappings) KeyMap {
	return KeyMap{
		Left:  key.NewBinding(key.WithKeys(km.PointerLeft, "left"), key.WithHelp(km.PointerLeft+"/←", "left")),
		Right: key.NewBinding(key.WithKeys(km.PointerRight, "right"), key.WithHelp(km.PointerRight+"/→", "right")),
		Up:    key.NewBinding(key.WithKeys(km.PointerUp, "up"), key.WithHelp(km.PointerUp+"/↑", "up")),
		Down:  key.NewBinding(key.WithKeys(km.PointerDown, "down"), key.WithHelp(km.PointerDown+"/↓", "down")),

		Grab:   key.NewBinding(key.WithKeys(km.Grab), key.WithHelp(km.Grab, "grab card")),
		Drop:   key.NewBinding(key.WithKeys(km.Drop), key.WithHelp(km.Drop, "drop card")),
		Cancel: key.NewBinding(key.WithKeys(km.Cancel), key.WithHelp(km.Cancel, "cancel drag")),

		MoveItemLeft:  key.NewBinding(key.WithKeys(km.MoveItemLeft), key.WithHelp(km.MoveItemLeft, "move to previous column")),
		MoveItemRight: key.NewBinding(key.WithKeys(km.MoveItemRight), key.WithHelp(km.MoveItemRight, "move to next column")),

		CycleFilter: key.NewBinding(key.WithKeys(km.CycleFilter), key.WithHelp(km.CycleFilter, "next filter")),
		ClearFilter: key.NewBinding(key.WithKeys(km.ClearFilter), key.WithHelp(km.ClearFilter, "clear filter")),

		Refresh: key.NewBinding(key.WithKeys(km.Refresh), key.WithHelp(km.Refresh, "refresh")),
		Help:    key.NewBinding(key.WithKeys(km.ShowHelp), key.WithHelp(km.ShowHelp, "help")),
		Quit:    key.NewBinding(key.WithKeys(km.Quit, "ctrl+c"), key.WithHelp(km.Quit, "quit")),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Grab, k.Drop, k.Cancel, k.CycleFilter, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.Grab, k.Drop, k.Cancel},
		{k.MoveItemLeft, k.MoveItemRight},
		{k.CycleFilter, k.ClearFilter, k.Refresh},
		{k.Help, k.Quit},
	}
}
