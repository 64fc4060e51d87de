package autoupdater

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ArtifactFileName returns the last segment of the artifact URL
// path. Names that would not refer to a file inside the download
// directory are rejected.
func ArtifactFileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	name := path.Base(u.Path)
	switch name {
	case "", ".", "..", "/":
		return "", errInvalidFileName
	}
	return name, nil
}

// downloadLinux streams the artifact of the recorded release into
// the download directory. update-downloaded is only published
// after the file was fully written and closed.
func (au *AutoUpdater) downloadLinux(ctx context.Context, logger *log.Entry, st *state) {
	info, ok := st.latestUpdate()
	if !ok {
		return
	}
	st.setStatus(StatusDownloading)
	name, err := ArtifactFileName(info.URL)
	if err != nil {
		au.fail(logger, st, StatusDownloadFailed, &DownloadError{Path: au.opts.DownloadDir, Err: err})
		return
	}
	dest := filepath.Join(au.opts.DownloadDir, name)
	logger = logger.WithField("path", dest)
	logger.WithField("url", info.URL).Debug("downloading update")

	n, err := au.download(ctx, info.URL, dest)
	if err != nil {
		if rmErr := os.Remove(dest); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.WithError(rmErr).Warn("could not remove partial download")
		}
		au.fail(logger, st, StatusDownloadFailed, err)
		return
	}
	st.setDownloaded(dest)
	st.setStatus(StatusDownloaded)
	logger.WithField("bytes", n).Info("update downloaded")
	au.events.Publish(UpdateDownloadedEvent{Info: info, Path: dest})
}

// download opens dest, then copies the response body into it as
// it arrives. It returns the number of bytes written.
func (au *AutoUpdater) download(ctx context.Context, rawURL, dest string) (int64, error) {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, &DownloadError{Path: dest, Err: err}
	}
	resp, err := au.get(ctx, rawURL)
	if err != nil {
		f.Close()
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		f.Close()
		return n, &DownloadError{Path: dest, Err: errors.Wrap(err, "copying artifact")}
	}
	if err := f.Close(); err != nil {
		return n, &DownloadError{Path: dest, Err: errors.Wrap(err, "closing artifact")}
	}
	if n == 0 {
		return 0, &DownloadError{Path: dest, Err: errEmptyArtifact}
	}
	return n, nil
}
