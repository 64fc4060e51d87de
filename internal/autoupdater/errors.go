package autoupdater

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	errNoReleases      = errors.New("manifest has no releases")
	errEmptyArtifact   = errors.New("artifact is empty")
	errInvalidFileName = errors.New("cannot derive a file name from the artifact URL")
)

// FetchError is reported when the feed or the artifact cannot be
// retrieved: transport failures and non-2xx responses.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %q: unexpected HTTP status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %q: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError is reported when the manifest is malformed or its
// latest release carries an invalid version.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid manifest: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DownloadError is reported when the artifact cannot be written
// to Path. The file at Path is removed before the error is
// published.
type DownloadError struct {
	Path string
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading to %q: %v", e.Path, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }
