package autoupdater

import (
	"context"
	"io/ioutil"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// checkLinux runs one check cycle: fetch, parse, compare and,
// when a newer release exists, download. Every failure ends the
// cycle with a single error event.
func (au *AutoUpdater) checkLinux(ctx context.Context, st *state) {
	logger := au.logger.WithField("cycle", uuid.New().String())
	feedURL := st.feedURL()
	logger.WithField("feed", feedURL).Debug("checking for updates")

	st.setStatus(StatusFetching)
	data, err := au.fetchManifest(ctx, feedURL)
	if err != nil {
		au.fail(logger, st, StatusNetworkFailed, err)
		return
	}

	manifest, err := ParseManifest(data)
	if err != nil {
		au.fail(logger, st, StatusParsingFailed, err)
		return
	}
	candidate, err := manifest.Latest()
	if err != nil {
		au.fail(logger, st, StatusParsingFailed, err)
		return
	}

	newer, err := isNewer(candidate.Version, au.running)
	if err != nil {
		au.fail(logger, st, StatusParsingFailed, err)
		return
	}
	if !newer {
		st.clearLatest()
		st.setStatus(StatusNotAvailable)
		logger.WithField("latest", candidate.Version).Info("no update available")
		au.events.Publish(UpdateNotAvailableEvent{})
		return
	}

	st.setLatest(candidate)
	st.setStatus(StatusAvailable)
	logger.WithFields(log.Fields{
		"running": au.running.String(),
		"latest":  candidate.Version,
	}).Info("update available")
	au.events.Publish(UpdateAvailableEvent{Info: candidate})

	au.downloadLinux(ctx, logger, st)
}

// fetchManifest returns the whole body of the feed response
func (au *AutoUpdater) fetchManifest(ctx context.Context, feedURL string) ([]byte, error) {
	resp, err := au.get(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: errors.Wrap(err, "reading response body")}
	}
	return data, nil
}

// get issues a GET and turns transport failures and non-2xx
// responses into a *FetchError. On success the caller owns the
// response body.
func (au *AutoUpdater) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	resp, err := au.opts.HTTPClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

func (au *AutoUpdater) fail(logger *log.Entry, st *state, status CheckStatus, err error) {
	st.setStatus(status)
	logger.WithError(err).WithField("status", status).Error("update cycle failed")
	au.events.Publish(ErrorEvent{Err: err})
}
