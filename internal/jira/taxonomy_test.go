package jira

import (
	"testing"

	"github.com/workweave/workweave/internal/types"
)

func TestTranslateStatusColor(t *testing.T) {
	tests := []struct {
		vendor string
		want   types.StatusColor
	}{
		{"blue-gray", types.ColorBlue},
		{"medium-gray", types.ColorGray},
		{"green", types.ColorGreen},
		{"yellow", types.ColorYellow},
		{"brown", types.ColorOrange},
		{"warm-red", types.ColorRed},
		{"red", types.ColorRed},
		{"purple", types.ColorPurple},
		{"pink", types.ColorPink},
		{"orange", types.ColorOrange},
		{"indigo", types.ColorIndigo},
		{"teal", types.ColorTeal},
		{"chartreuse", types.ColorGray},
		{"", types.ColorGray},
	}
	for _, tt := range tests {
		if got := TranslateStatusColor(tt.vendor); got != tt.want {
			t.Errorf("TranslateStatusColor(%q) = %v, want %v", tt.vendor, got, tt.want)
		}
	}
}

func TestTranslatePriority(t *testing.T) {
	tests := []struct {
		vendor string
		want   types.Priority
	}{
		{"Highest", types.PriorityCritical},
		{"High", types.PriorityHigh},
		{"Medium", types.PriorityMedium},
		{"Low", types.PriorityLow},
		{"Lowest", types.PriorityLow},
		{"highest", types.PriorityMedium}, // case sensitive
		{"Blocker", types.PriorityMedium},
		{"", types.PriorityMedium},
	}
	for _, tt := range tests {
		if got := TranslatePriority(tt.vendor); got != tt.want {
			t.Errorf("TranslatePriority(%q) = %v, want %v", tt.vendor, got, tt.want)
		}
	}
}

func TestPriorityToJira(t *testing.T) {
	tests := []struct {
		p    types.Priority
		want string
	}{
		{types.PriorityCritical, "Highest"},
		{types.PriorityHigh, "High"},
		{types.PriorityMedium, "Medium"},
		{types.PriorityLow, "Low"},
		{types.Priority("bogus"), "Medium"},
	}
	for _, tt := range tests {
		if got := PriorityToJira(tt.p); got != tt.want {
			t.Errorf("PriorityToJira(%v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}
