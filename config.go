package world

import "github.com/TheBitDrifter/bark"

// Config holds package-level configuration shared by every World.
var Config config = config{}

// WorldEvents are hooks invoked around entity lifecycle and structural
// mutation, for callers that want to observe migrations (e.g. for
// diagnostics or a dependent cache) without threading a callback through
// every call site.
type WorldEvents struct {
	OnEntityCreated   func(EntityID)
	OnEntityDestroyed func(EntityID)
	OnMigrate         func(id EntityID, from, to Definition)
}

type config struct {
	worldEvents  WorldEvents
	debugAsserts bool
}

// SetWorldEvents configures the World event callbacks.
func (c *config) SetWorldEvents(e WorldEvents) {
	c.worldEvents = e
}

// SetDebugAsserts toggles whether invariant violations panic (debug, with
// a bark-wrapped stack trace) instead of returning a typed error
// (release). Off by default.
func (c *config) SetDebugAsserts(on bool) {
	c.debugAsserts = on
}

// DebugAsserts reports the current assertion mode.
func (c *config) DebugAsserts() bool {
	return c.debugAsserts
}

// fail is the single point every recoverable invariant violation in the
// package routes through. In debug mode it panics with a bark-wrapped
// trace so the violation surfaces at its source during development; in
// release mode (the default) it returns err unchanged for the caller to
// propagate.
func fail(err error) error {
	if Config.DebugAsserts() {
		panic(bark.AddTrace(err))
	}
	return err
}
