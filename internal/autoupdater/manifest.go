package autoupdater

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// UpdateInfo describes a release as published in the manifest.
// It is handed to listeners by value.
type UpdateInfo struct {
	Version string `json:"version"`
	PubDate string `json:"pub_date"`
	Notes   string `json:"notes"`
	Name    string `json:"name"`
	URL     string `json:"url"`
}

// Release is a single manifest entry
type Release struct {
	Version  string     `json:"version"`
	UpdateTo UpdateInfo `json:"updateTo"`
}

// ReleaseManifest is the document served by the feed. Releases
// keep the order in which the feed lists them.
type ReleaseManifest struct {
	Releases []Release `json:"releases"`
}

// ParseManifest decodes a manifest. Top-level fields other than
// releases are ignored.
func ParseManifest(data []byte) (*ReleaseManifest, error) {
	var m ReleaseManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &m, nil
}

// Latest returns the last entry of the manifest. The feed is
// expected to list releases from oldest to newest; the entries
// are never sorted or scanned for the highest version.
func (m *ReleaseManifest) Latest() (UpdateInfo, error) {
	if m == nil || len(m.Releases) == 0 {
		return UpdateInfo{}, &ParseError{Err: errNoReleases}
	}
	return m.Releases[len(m.Releases)-1].UpdateTo, nil
}
