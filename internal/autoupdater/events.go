package autoupdater

import (
	"sync"
)

// EventName identifies one of the lifecycle events published
// by an AutoUpdater. The set is closed.
type EventName string

const (
	EventError               EventName = "error"
	EventCheckingForUpdate   EventName = "checking-for-update"
	EventUpdateAvailable     EventName = "update-available"
	EventUpdateNotAvailable  EventName = "update-not-available"
	EventUpdateDownloaded    EventName = "update-downloaded"
	EventBeforeQuitForUpdate EventName = "before-quit-for-update"
)

// Event is implemented only by the six event types declared
// in this package.
type Event interface {
	Name() EventName
	isEvent()
}

// ErrorEvent reports a failure during a check, a download or
// the install action. Use errors.As on Err to classify it.
type ErrorEvent struct {
	Err error
}

// CheckingForUpdateEvent is published when a check cycle begins.
type CheckingForUpdateEvent struct{}

// UpdateAvailableEvent carries the release that is newer than
// the running version.
type UpdateAvailableEvent struct {
	Info UpdateInfo
}

// UpdateNotAvailableEvent is published when the running version
// is already the latest one.
type UpdateNotAvailableEvent struct{}

// UpdateDownloadedEvent is published once the artifact has been
// completely written and closed at Path.
type UpdateDownloadedEvent struct {
	Info UpdateInfo
	Path string
}

// BeforeQuitForUpdateEvent is published right before the install
// action takes effect.
type BeforeQuitForUpdateEvent struct{}

func (ErrorEvent) Name() EventName               { return EventError }
func (CheckingForUpdateEvent) Name() EventName   { return EventCheckingForUpdate }
func (UpdateAvailableEvent) Name() EventName     { return EventUpdateAvailable }
func (UpdateNotAvailableEvent) Name() EventName  { return EventUpdateNotAvailable }
func (UpdateDownloadedEvent) Name() EventName    { return EventUpdateDownloaded }
func (BeforeQuitForUpdateEvent) Name() EventName { return EventBeforeQuitForUpdate }

func (ErrorEvent) isEvent()               {}
func (CheckingForUpdateEvent) isEvent()   {}
func (UpdateAvailableEvent) isEvent()     {}
func (UpdateNotAvailableEvent) isEvent()  {}
func (UpdateDownloadedEvent) isEvent()    {}
func (BeforeQuitForUpdateEvent) isEvent() {}

func (e ErrorEvent) Error() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

type listener struct {
	id   uint64
	name EventName // empty matches every event
	fn   func(Event)
}

// Channel is a synchronous publish/subscribe surface for the
// lifecycle events. Listeners registered after an event was
// published never see it.
type Channel struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners []listener
}

// NewChannel returns an empty Channel.
func NewChannel() *Channel {
	return &Channel{}
}

func (c *Channel) add(name EventName, fn func(Event)) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listener{id: id, name: name, fn: fn})
	c.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() { c.remove(id) })
	}
}

func (c *Channel) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ii, l := range c.listeners {
		if l.id == id {
			c.listeners = append(c.listeners[:ii:ii], c.listeners[ii+1:]...)
			return
		}
	}
}

// SubscribeAll registers fn for every event. The returned
// function removes the listener.
func (c *Channel) SubscribeAll(fn func(Event)) (unsubscribe func()) {
	return c.add("", fn)
}

// Subscribe registers fn for events of type E only.
func Subscribe[E Event](c *Channel, fn func(E)) (unsubscribe func()) {
	var zero E
	return c.add(zero.Name(), func(ev Event) {
		if e, ok := ev.(E); ok {
			fn(e)
		}
	})
}

// Publish delivers ev to the matching listeners, in registration
// order, on the calling goroutine.
func (c *Channel) Publish(ev Event) {
	name := ev.Name()
	c.mu.RLock()
	targets := make([]func(Event), 0, len(c.listeners))
	for _, l := range c.listeners {
		if l.name == "" || l.name == name {
			targets = append(targets, l.fn)
		}
	}
	c.mu.RUnlock()
	for _, fn := range targets {
		fn(ev)
	}
}
