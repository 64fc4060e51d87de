package autoupdater

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// PlatformLinux is the only platform handled without a
	// native updater
	PlatformLinux = "linux"
)

type Options struct {
	// Version is the version of the running app. Required.
	Version string
	// Platform defaults to runtime.GOOS
	Platform string
	// DownloadDir is where artifacts are written on Linux. It
	// defaults to the user's downloads folder.
	DownloadDir string
	// Native is required on every platform but Linux
	Native NativeUpdater
	// HTTPClient defaults to http.DefaultClient
	HTTPClient *http.Client
	// Reveal shows a downloaded artifact to the user. It defaults
	// to opening the containing folder with the system browser.
	Reveal func(path string) error
	Logger *log.Entry
}

// AutoUpdater gives every platform the same check, download and
// install contract. Outcomes are only reported through Events().
type AutoUpdater struct {
	opts    Options
	running *version.Version
	events  *Channel
	state   *state
	cycles  sync.WaitGroup
	logger  *log.Entry
}

// New returns a new AutoUpdater. See the Options
// type for the available options.
func New(opts *Options) (*AutoUpdater, error) {
	if opts == nil {
		return nil, errors.New("options cannot be nil")
	}
	o := *opts
	if o.Version == "" {
		return nil, errors.New("running version cannot be empty")
	}
	running, err := version.NewVersion(o.Version)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid running version %q", o.Version)
	}
	if o.Platform == "" {
		o.Platform = runtime.GOOS
	}
	if o.Platform != PlatformLinux && o.Native == nil {
		return nil, errors.Errorf("a native updater is required on %s", o.Platform)
	}
	if o.DownloadDir == "" {
		dir, err := DefaultDownloadDir()
		if err != nil {
			return nil, err
		}
		o.DownloadDir = dir
	}
	if o.HTTPClient == nil {
		o.HTTPClient = http.DefaultClient
	}
	if o.Reveal == nil {
		o.Reveal = RevealInFolder
	}
	if o.Logger == nil {
		o.Logger = log.NewEntry(log.StandardLogger())
	}
	au := &AutoUpdater{
		opts:    o,
		running: running,
		events:  NewChannel(),
		state:   &state{status: StatusIdle},
		logger:  o.Logger.WithField("platform", o.Platform),
	}
	if au.isLinux() {
		return au, nil
	}
	o.Native.SubscribeAll(func(ev Event) {
		// Already published by CheckForUpdates
		if ev.Name() == EventCheckingForUpdate {
			return
		}
		au.events.Publish(ev)
	})
	return au, nil
}

// DefaultDownloadDir returns $XDG_DOWNLOAD_DIR or, when unset,
// the Downloads folder in the user's home directory.
func DefaultDownloadDir() (string, error) {
	if dir := os.Getenv("XDG_DOWNLOAD_DIR"); dir != "" {
		return homedir.Expand(dir)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "resolving home directory")
	}
	return filepath.Join(home, "Downloads"), nil
}

func (au *AutoUpdater) isLinux() bool {
	return au.opts.Platform == PlatformLinux
}

// Events returns the channel every outcome is published to
func (au *AutoUpdater) Events() *Channel {
	return au.events
}

// SetFeedURL records the feed and, except on Linux, forwards it
// to the native updater.
func (au *AutoUpdater) SetFeedURL(opts FeedOptions) {
	au.state.setFeed(opts)
	if !au.isLinux() {
		au.opts.Native.SetFeedURL(opts)
	}
}

// GetFeedURL returns the last URL passed to SetFeedURL, or an
// empty string.
func (au *AutoUpdater) GetFeedURL() string {
	return au.state.feedURL()
}

// CheckForUpdates starts a check cycle and returns immediately.
// checking-for-update is published before it returns. On Linux,
// the rest of the cycle runs on its own goroutine; use Wait to
// block until it finishes. Overlapping cycles are not serialized.
func (au *AutoUpdater) CheckForUpdates(ctx context.Context) {
	au.events.Publish(CheckingForUpdateEvent{})
	if !au.isLinux() {
		au.opts.Native.CheckForUpdates(ctx)
		return
	}
	au.cycles.Add(1)
	go func() {
		defer au.cycles.Done()
		au.checkLinux(ctx, au.state)
	}()
}

// Wait blocks until every Linux check cycle started so far,
// including its download, has finished.
func (au *AutoUpdater) Wait() {
	au.cycles.Wait()
}

// QuitAndInstall hands the downloaded update to the user. On
// Linux, before-quit-for-update is published and then the folder
// containing the artifact is revealed. Other platforms delegate
// to the native updater.
func (au *AutoUpdater) QuitAndInstall() {
	if !au.isLinux() {
		au.opts.Native.QuitAndInstall()
		return
	}
	au.quitAndInstallLinux(au.state)
}

// Status returns where the most recent cycle is in the state
// machine.
func (au *AutoUpdater) Status() CheckStatus {
	return au.state.currentStatus()
}

// LatestUpdate returns the newer release found by the most
// recent cycle, if any.
func (au *AutoUpdater) LatestUpdate() (UpdateInfo, bool) {
	return au.state.latestUpdate()
}

// DownloadedPath returns the path of the last artifact that was
// completely downloaded, or an empty string.
func (au *AutoUpdater) DownloadedPath() string {
	return au.state.downloaded()
}

// ScheduleCheckingForUpdates checks for updates once, then starts
// checking again at the given interval until ctx is done. Each
// check waits for the previous one to finish.
func (au *AutoUpdater) ScheduleCheckingForUpdates(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		au.CheckForUpdates(ctx)
		au.Wait()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
