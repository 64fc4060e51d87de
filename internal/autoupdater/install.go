package autoupdater

import (
	"os"
	"path/filepath"

	"github.com/pkg/browser"
	"github.com/pkg/errors"
)

// RevealInFolder opens the folder containing path with the
// desktop's default file manager. If path is a directory, it
// is opened directly.
func RevealInFolder(path string) error {
	dir := path
	if fi, err := os.Stat(path); err != nil || !fi.IsDir() {
		dir = filepath.Dir(path)
	}
	return browser.OpenFile(dir)
}

// quitAndInstallLinux has no installer to hand off to, so it
// reveals the downloaded artifact instead, or the download
// directory when nothing was downloaded. Listeners always see
// before-quit-for-update before the reveal happens.
func (au *AutoUpdater) quitAndInstallLinux(st *state) {
	target := st.downloaded()
	if target == "" {
		target = au.opts.DownloadDir
	}
	au.events.Publish(BeforeQuitForUpdateEvent{})
	au.logger.WithField("path", target).Info("revealing update")
	if err := au.opts.Reveal(target); err != nil {
		err = errors.Wrap(err, "revealing update")
		au.logger.WithError(err).Error("install failed")
		au.events.Publish(ErrorEvent{Err: err})
	}
}
