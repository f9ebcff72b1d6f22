package jira

import "github.com/workweave/workweave/internal/types"

// statusColors maps Jira status-category color names onto the internal
// palette. Anything unrecognized falls back to gray.
var statusColors = map[string]types.StatusColor{
	"blue-gray":   types.ColorBlue,
	"medium-gray": types.ColorGray,
	"green":       types.ColorGreen,
	"yellow":      types.ColorYellow,
	"brown":       types.ColorOrange,
	"warm-red":    types.ColorRed,
	"red":         types.ColorRed,
	"purple":      types.ColorPurple,
	"pink":        types.ColorPink,
	"orange":      types.ColorOrange,
	"indigo":      types.ColorIndigo,
	"teal":        types.ColorTeal,
}

// TranslateStatusColor maps a Jira color name to the internal palette.
// Total: unknown input returns gray.
func TranslateStatusColor(vendorColor string) types.StatusColor {
	if c, ok := statusColors[vendorColor]; ok {
		return c
	}
	return types.ColorGray
}

// priorities is the case-sensitive Jira priority vocabulary.
var priorities = map[string]types.Priority{
	"Highest": types.PriorityCritical,
	"High":    types.PriorityHigh,
	"Medium":  types.PriorityMedium,
	"Low":     types.PriorityLow,
	"Lowest":  types.PriorityLow,
}

// TranslatePriority maps a Jira priority name to the internal enumeration.
// Total: unknown or empty input returns medium.
func TranslatePriority(vendorPriority string) types.Priority {
	if p, ok := priorities[vendorPriority]; ok {
		return p
	}
	return types.PriorityMedium
}

// PriorityToJira is the reverse mapping used on export.
func PriorityToJira(p types.Priority) string {
	switch p {
	case types.PriorityCritical:
		return "Highest"
	case types.PriorityHigh:
		return "High"
	case types.PriorityLow:
		return "Low"
	default:
		return "Medium"
	}
}
