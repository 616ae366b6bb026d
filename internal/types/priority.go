// Package types provides common type definitions used throughout jopilink.
// This package contains shared types to avoid circular dependencies between packages.
package types

import (
	"strings"
)

// PriorityLevel ranks conflicting declarations of the same logical item.
// Greater values win.
type PriorityLevel int

const (
	PriorityVeryLow  PriorityLevel = -200
	PriorityLow      PriorityLevel = -100
	PriorityDefault  PriorityLevel = 0
	PriorityHigh     PriorityLevel = 100
	PriorityVeryHigh PriorityLevel = 200
)

// PriorityBuckets lists every level from the strongest to the weakest, the order
// used when lists are emitted.
var PriorityBuckets = []PriorityLevel{
	PriorityVeryHigh,
	PriorityHigh,
	PriorityDefault,
	PriorityLow,
	PriorityVeryLow,
}

// String returns the canonical sentinel name of the level
func (p PriorityLevel) String() string {
	switch p {
	case PriorityVeryLow:
		return "veryLow"
	case PriorityLow:
		return "low"
	case PriorityDefault:
		return "default"
	case PriorityHigh:
		return "high"
	case PriorityVeryHigh:
		return "veryHigh"
	default:
		return "unknown"
	}
}

// ParsePriority converts a sentinel name ("high", "very_high", "VeryHigh", ...)
// into a level. Case, '-' and '_' are ignored.
func ParsePriority(name string) (PriorityLevel, bool) {
	normalized := strings.ToLower(name)
	normalized = strings.ReplaceAll(normalized, "_", "")
	normalized = strings.ReplaceAll(normalized, "-", "")

	switch normalized {
	case "veryhigh":
		return PriorityVeryHigh, true
	case "high":
		return PriorityHigh, true
	case "default":
		return PriorityDefault, true
	case "low":
		return PriorityLow, true
	case "verylow":
		return PriorityVeryLow, true
	default:
		return PriorityDefault, false
	}
}

// DirItem is one entry of a directory listing.
type DirItem struct {
	// Name is the base name of the entry
	Name string
	// FullPath is the project-relative, slash separated path of the entry
	FullPath string
	IsDir    bool
	IsFile   bool
}
