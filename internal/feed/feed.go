// Package feed renders release manifests that the Linux update
// path can consume.
package feed

import (
	"context"
	"errors"
	"io"
	"sort"
	"time"

	"github.com/hashicorp/go-version"
	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"

	"updatectl/internal/autoupdater"
)

// pubDateLayout matches the date format used by existing feeds
const pubDateLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

var errNoAssetPattern = errors.New("asset pattern cannot be empty")

type BuildOptions struct {
	// AssetPattern selects the artifact of each release, e.g.
	// "*_arm64.deb". Releases without a match are skipped.
	AssetPattern      string
	AcceptPrereleases bool
	// Limit keeps only the newest releases when > 0
	Limit int
}

// Build collects every release from src and returns a manifest
// ordered from oldest to newest, so that its last entry is the
// latest release.
func Build(ctx context.Context, src Source, opts BuildOptions) (*autoupdater.ReleaseManifest, error) {
	if opts.AssetPattern == "" {
		return nil, errNoAssetPattern
	}
	var allReleases []*Release
	var next string
	for {
		releases, nextToken, err := src.AvailableVersions(ctx, next)
		if err != nil {
			return nil, err
		}
		allReleases = append(allReleases, releases...)
		if nextToken == "" {
			break
		}
		next = nextToken
	}

	type entry struct {
		v       *version.Version
		release *Release
		asset   *Asset
	}
	var entries []entry
	for _, r := range allReleases {
		if r.IsPrerelease && !opts.AcceptPrereleases {
			continue
		}
		v, err := version.NewVersion(r.Version)
		if err != nil {
			log.Warnf("ignoring release %q: %v", r.Version, err)
			continue
		}
		a, err := matchAsset(r.Assets, opts.AssetPattern)
		if err != nil {
			return nil, err
		}
		if a == nil {
			log.Debugf("ignoring release %s, no asset matches %q", r.Version, opts.AssetPattern)
			continue
		}
		entries = append(entries, entry{v: v, release: r, asset: a})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].v.LessThan(entries[j].v)
	})
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[len(entries)-opts.Limit:]
	}

	m := &autoupdater.ReleaseManifest{
		Releases: make([]autoupdater.Release, 0, len(entries)),
	}
	for _, e := range entries {
		var pubDate string
		if !e.release.PublishedAt.IsZero() {
			pubDate = FormatPubDate(e.release.PublishedAt)
		}
		m.Releases = append(m.Releases, autoupdater.Release{
			Version: e.release.Version,
			UpdateTo: autoupdater.UpdateInfo{
				Version: e.release.Version,
				PubDate: pubDate,
				Notes:   e.release.Notes,
				Name:    e.release.Name,
				URL:     e.asset.URL,
			},
		})
	}
	return m, nil
}

// Write encodes m as indented JSON
func Write(w io.Writer, m *autoupdater.ReleaseManifest) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// FormatPubDate formats t the way Build fills UpdateInfo.PubDate
func FormatPubDate(t time.Time) string {
	return t.UTC().Format(pubDateLayout)
}
