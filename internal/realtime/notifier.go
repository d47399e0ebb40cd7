package realtime

// Notifier is told which collection changed after a committed mutation.
// Implementations must not block the caller.
type Notifier interface {
	Publish(collection string)
}

type nopNotifier struct{}

func (nopNotifier) Publish(string) {}

// Nop discards every notification. Used by tests and when the feed is off.
var Nop Notifier = nopNotifier{}
