package tui

import "time"

var (
	BuildTree   = buildTree
	FlattenTree = flattenTree
	ExpandTo    = expandTo
)

// SetClock replaces the model's time source.
func (m *Model) SetClock(now func() time.Time) {
	m.now = now
}
