package publish

// Event is one lifecycle notification emitted during a publish run. Events
// are dispatched synchronously, in the exact order operations occur, to a
// single listener. The set of variants is closed.
type Event interface {
	event()
}

// PageAdded is emitted after a page has been created and its content
// fingerprint stored.
type PageAdded struct {
	Page RemotePage
}

// PageUpdated is emitted after an existing page has been updated. It carries
// both the pre-update and the post-update snapshot so listeners can report
// version transitions.
type PageUpdated struct {
	Before RemotePage
	After  RemotePage
}

// PageDeleted is emitted after a page has been deleted. Descendants are
// always reported before their parent.
type PageDeleted struct {
	Page RemotePage
}

// Completed is emitted exactly once, after the whole run finished,
// regardless of how many pages changed.
type Completed struct{}

func (PageAdded) event()   {}
func (PageUpdated) event() {}
func (PageDeleted) event() {}
func (Completed) event()   {}

// Listener consumes publish events. It must be side-effect-only: it cannot
// alter reconciliation decisions.
type Listener func(Event)

// NoopListener is the default listener. It discards all events.
func NoopListener(Event) {}
