package arobase

import (
	"context"
	"strings"

	"github.com/conneroisu/jopilink/internal/events"
)

// Exclusions vetoes chunks and list items named in configuration. An entry is
// either a registry key ("uiComponents!button") or a project relative
// declaration directory.
type Exclusions struct {
	entries map[string]struct{}
}

// NewExclusions creates the exclusion policy. Empty entries are ignored.
func NewExclusions(entries []string) *Exclusions {
	e := &Exclusions{entries: make(map[string]struct{}, len(entries))}
	for _, entry := range entries {
		entry = strings.TrimSuffix(strings.TrimSpace(entry), "/")
		if entry != "" {
			e.entries[entry] = struct{}{}
		}
	}
	return e
}

// Len returns the number of entries.
func (e *Exclusions) Len() int {
	return len(e.entries)
}

// Excludes reports whether key or itemPath is excluded.
func (e *Exclusions) Excludes(key, itemPath string) bool {
	if _, ok := e.entries[key]; ok && key != "" {
		return true
	}
	_, ok := e.entries[itemPath]
	return ok && itemPath != ""
}

// Listener returns the event bus listener applying the policy.
func (e *Exclusions) Listener() events.Listener {
	return func(_ context.Context, payload any) error {
		switch event := payload.(type) {
		case *events.ChunkEvent:
			if e.Excludes(event.Key, event.ItemPath) {
				event.Skip()
			}
		case *events.ListItemEvent:
			if e.Excludes("", event.ItemPath) {
				event.Skip()
			}
		}
		return nil
	}
}

// Subscribe registers the listener on the chunk and list item topics of
// every type.
func (e *Exclusions) Subscribe(bus *events.Bus, typeNames []string) {
	if e.Len() == 0 {
		return
	}

	listener := e.Listener()
	for _, typeName := range typeNames {
		bus.Subscribe(events.ChunkTopic(typeName), listener)
		bus.Subscribe(events.ListItemTopic(typeName), listener)
	}
}
