package autoupdater

import (
	"sync"
)

// CheckStatus is the position of the most recent cycle in the
// check/download state machine.
type CheckStatus string

const (
	StatusIdle           CheckStatus = "idle"
	StatusFetching       CheckStatus = "fetching"
	StatusParsingFailed  CheckStatus = "parsing-failed"
	StatusNetworkFailed  CheckStatus = "network-failed"
	StatusAvailable      CheckStatus = "available"
	StatusNotAvailable   CheckStatus = "not-available"
	StatusDownloading    CheckStatus = "downloading"
	StatusDownloaded     CheckStatus = "downloaded"
	StatusDownloadFailed CheckStatus = "download-failed"
)

// ServerType mirrors the feed server kinds understood by native
// updaters. The Linux path ignores it.
type ServerType string

const (
	ServerTypeDefault ServerType = "default"
	ServerTypeJSON    ServerType = "json"
)

// FeedOptions configures the feed. Headers and ServerType are
// only forwarded to the native updater.
type FeedOptions struct {
	URL        string
	Headers    map[string]string
	ServerType ServerType
}

// state is owned by an AutoUpdater and handed by pointer to the
// check and download steps. Overlapping cycles share it, so the
// latest update slot can be overwritten by a later cycle.
type state struct {
	mu             sync.Mutex
	feed           FeedOptions
	status         CheckStatus
	latest         *UpdateInfo
	downloadedPath string
}

func (s *state) setFeed(opts FeedOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feed = opts
}

func (s *state) feedURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feed.URL
}

func (s *state) setStatus(st CheckStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

func (s *state) currentStatus() CheckStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *state) setLatest(info UpdateInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &info
}

func (s *state) clearLatest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = nil
}

func (s *state) latestUpdate() (UpdateInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return UpdateInfo{}, false
	}
	return *s.latest, true
}

func (s *state) setDownloaded(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloadedPath = path
}

func (s *state) downloaded() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloadedPath
}
