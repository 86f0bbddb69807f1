// Package section models canvas sections: positioned, URL-addressable
// pieces of rendered content registered with the canvas service.
package section

import (
	"fmt"
	"sort"
)

// Key identifies one rendered output within a configuration session.
// It is the idempotency key for remote registration: rebinding a key
// replaces the previous remote section, never merges with it.
type Key struct {
	Cell   int
	Output int
}

// String formats the key the way asset names and registries use it.
func (k Key) String() string {
	return fmt.Sprintf("%d-%d", k.Cell, k.Output)
}

// Label is the human-facing cell label used on controller pages:
// "3" for the first output of cell 3, "3.1" for its second.
func (k Key) Label() string {
	if k.Output > 0 {
		return fmt.Sprintf("%d.%d", k.Cell, k.Output)
	}
	return fmt.Sprintf("%d", k.Cell)
}

// LoadState is the URL a render app loads its content from.
type LoadState struct {
	URL string `json:"url"`
}

// AppStates holds the render app's initial state.
type AppStates struct {
	Load LoadState `json:"load"`
}

// AppRef points a section at a canvas render application and its
// content.
type AppRef struct {
	States AppStates `json:"states"`
	URL    string    `json:"url"`
}

// Section is the canvas service's section payload: a render app plus
// absolute pixel geometry within a space.
type Section struct {
	App   AppRef `json:"app"`
	H     int    `json:"h"`
	W     int    `json:"w"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Space string `json:"space"`
}

// Registered pairs a section with the id the canvas service assigned.
// The id is owned by the remote service; the session only caches the
// last-known value per key.
type Registered struct {
	ID   int     `json:"id"`
	Data Section `json:"data"`
}

// ControlURL is the render app's per-section control page.
func (r Registered) ControlURL() string {
	return fmt.Sprintf("%s/control.html?oveSectionId=%d", r.Data.App.URL, r.ID)
}

// SortedKeys returns the registry's keys in (cell, output) order, so
// emitted artifacts are deterministic.
func SortedKeys(sections map[Key]Registered) []Key {
	keys := make([]Key, 0, len(sections))
	for k := range sections {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Cell != keys[j].Cell {
			return keys[i].Cell < keys[j].Cell
		}
		return keys[i].Output < keys[j].Output
	})
	return keys
}
