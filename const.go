package match

import "time"

const (
	// DefaultPruneHour and DefaultPruneMinute set the daily boundary at which
	// GoodForDay orders are cancelled, in the book's location.
	DefaultPruneHour   = 16
	DefaultPruneMinute = 0

	// pruneGrace is added to the wait so the worker wakes after the boundary.
	pruneGrace = 120 * time.Millisecond

	defaultOrderCapacity = 1024
)
