package autoupdater

import (
	"context"
)

// NativeUpdater is the platform provided updater used on every
// platform except Linux. It must publish the same six events,
// with the same payloads, to the listeners registered through
// SubscribeAll.
type NativeUpdater interface {
	SetFeedURL(opts FeedOptions)
	CheckForUpdates(ctx context.Context)
	QuitAndInstall()
	SubscribeAll(fn func(Event)) (unsubscribe func())
}
