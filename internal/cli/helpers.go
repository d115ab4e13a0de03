package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/thenoetrevino/crmboard/internal/config"
	"github.com/thenoetrevino/crmboard/internal/kanban"
	"github.com/thenoetrevino/crmboard/internal/models"
	"github.com/thenoetrevino/crmboard/internal/types"
)

var taskTypes = map[string]types.TypeID{
	"task":    types.TaskTypeTask,
	"feature": types.TaskTypeFeature,
	"bug":     types.TaskTypeBug,
}

var priorities = map[string]types.PriorityID{
	"trivial":  types.PriorityTrivial,
	"low":      types.PriorityLow,
	"medium":   types.PriorityMedium,
	"high":     types.PriorityHigh,
	"critical": types.PriorityCritical,
}

// ParseTaskType maps a type string to its ID
func ParseTaskType(typeStr string) (types.TypeID, error) {
	id, ok := taskTypes[strings.ToLower(strings.TrimSpace(typeStr))]
	if !ok {
		return 0, fmt.Errorf("invalid type '%s' (must be: task, feature, bug)", typeStr)
	}
	return id, nil
}

// ParsePriority maps a priority string to its ID
func ParsePriority(priority string) (types.PriorityID, error) {
	id, ok := priorities[strings.ToLower(strings.TrimSpace(priority))]
	if !ok {
		return 0, fmt.Errorf("invalid priority '%s' (must be: trivial, low, medium, high, critical)", priority)
	}
	return id, nil
}

// PriorityName is the inverse of ParsePriority
func PriorityName(id types.PriorityID) string {
	for name, p := range priorities {
		if p == id {
			return name
		}
	}
	return ""
}

// FilterFlags are the raw filter flag values of a command
type FilterFlags struct {
	Priorities []string
	Types      []string
	Status     string
	DueFrom    string // YYYY-MM-DD
	DueTo      string // YYYY-MM-DD, inclusive
}

// ParseFilter turns filter flags into a board filter evaluated at now
func ParseFilter(flags FilterFlags, now time.Time) (kanban.Filter, error) {
	f := kanban.Filter{Now: now}

	for _, p := range flags.Priorities {
		id, err := ParsePriority(p)
		if err != nil {
			return kanban.Filter{}, err
		}
		f.Priorities = append(f.Priorities, id)
	}
	for _, typ := range flags.Types {
		id, err := ParseTaskType(typ)
		if err != nil {
			return kanban.Filter{}, err
		}
		f.Types = append(f.Types, id)
	}

	switch status := strings.ToLower(flags.Status); status {
	case "", models.StatusOpen, models.StatusOverdue, models.StatusDone:
		f.Status = status
	default:
		return kanban.Filter{}, fmt.Errorf("invalid status '%s' (must be: open, overdue, done)", flags.Status)
	}

	if flags.DueFrom != "" {
		from, err := time.ParseInLocation(time.DateOnly, flags.DueFrom, now.Location())
		if err != nil {
			return kanban.Filter{}, fmt.Errorf("invalid --due-from '%s': %w", flags.DueFrom, err)
		}
		f.From = &from
	}
	if flags.DueTo != "" {
		to, err := time.ParseInLocation(time.DateOnly, flags.DueTo, now.Location())
		if err != nil {
			return kanban.Filter{}, fmt.Errorf("invalid --due-to '%s': %w", flags.DueTo, err)
		}
		// The whole day is included
		end := to.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return kanban.Filter{}, fmt.Errorf("--due-to is before --due-from")
	}
	return f, nil
}

// FindColumnByName finds a column by id or case-insensitive name
func FindColumnByName(columns []models.Column, name string) (*models.Column, error) {
	for i := range columns {
		if string(columns[i].ID) == name {
			return &columns[i], nil
		}
	}
	for i := range columns {
		if strings.EqualFold(columns[i].Name, name) {
			return &columns[i], nil
		}
	}
	return nil, fmt.Errorf("column '%s' not found", name)
}

// GetCurrentColumnName returns the name of the column an item is in
func GetCurrentColumnName(columns []models.Column, columnID types.ColumnID) string {
	for _, col := range columns {
		if col.ID == columnID {
			return col.Name
		}
	}
	return "Unknown"
}

// FormatAvailableColumns returns a comma-separated list of column names
func FormatAvailableColumns(columns []models.Column) string {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}
	return strings.Join(names, ", ")
}

// BoardEnvVar names the board used when --board is not given
const BoardEnvVar = "CRMBOARD_BOARD"

// ResolveBoardID picks the board a command works on: the flag, then the
// CRMBOARD_BOARD environment variable, then the configured default
func ResolveBoardID(flag string, cfg *config.Config) (types.BoardID, error) {
	if flag != "" {
		return types.BoardID(flag), nil
	}
	if env := strings.TrimSpace(os.Getenv(BoardEnvVar)); env != "" {
		return types.BoardID(env), nil
	}
	if cfg != nil && cfg.Board.Default != "" {
		return types.BoardID(cfg.Board.Default), nil
	}
	return "", fmt.Errorf("no board given: pass --board, set %s or configure board.default", BoardEnvVar)
}
