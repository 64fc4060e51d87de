package main

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testArtifact = "app_1.1.4_amd64.deb"

func newTestFeed(t *testing.T, latest string) *httptest.Server {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/RELEASES.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"releases": [{"version": %[1]q, "updateTo": {
			"version": %[1]q, "pub_date": "", "notes": "", "name": %[1]q,
			"url": "%[2]s/download/%[3]s"}}]}`, latest, srv.URL, testArtifact)
	})
	mux.HandleFunc("/download/"+testArtifact, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "artifact bytes")
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, a *App, args ...string) (string, error) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var out bytes.Buffer
	a.out = &out
	root := a.rootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheckCommandDownloads(t *testing.T) {
	srv := newTestFeed(t, "1.1.4")
	dir := t.TempDir()

	out, err := run(t, newApp(nil), "check",
		"--feed", srv.URL+"/RELEASES.json",
		"--app-version", "1.1.0",
		"--download-dir", dir)
	require.NoError(t, err)

	dest := filepath.Join(dir, testArtifact)
	assert.Equal(t, strings.Join([]string{
		"checking-for-update",
		fmt.Sprintf("update-available: 1.1.4 (%s/download/%s)", srv.URL, testArtifact),
		"update-downloaded: 1.1.4 " + dest,
		"",
	}, "\n"), out)
	data, err := ioutil.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "artifact bytes", string(data))
}

func TestCheckCommandUpToDate(t *testing.T) {
	srv := newTestFeed(t, "1.1.4")

	out, err := run(t, newApp(nil), "check",
		"--feed", srv.URL+"/RELEASES.json",
		"--app-version", "1.1.4",
		"--download-dir", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "checking-for-update\nupdate-not-available\n", out)
}

func TestCheckCommandReportsErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	out, err := run(t, newApp(nil), "check",
		"--feed", srv.URL+"/RELEASES.json",
		"--app-version", "1.1.0",
		"--download-dir", t.TempDir())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(out, "checking-for-update\nerror: "), out)
}

func TestCheckCommandRequiresSettings(t *testing.T) {
	_, err := run(t, newApp(nil), "check", "--app-version", "1.1.0")
	assert.Error(t, err)
	_, err = run(t, newApp(nil), "check", "--feed", "http://localhost/RELEASES.json")
	assert.Error(t, err)
}

func TestCheckCommandReadsConfigFile(t *testing.T) {
	srv := newTestFeed(t, "1.1.4")
	dir := t.TempDir()
	cfg := filepath.Join(t.TempDir(), "updatectl.yaml")
	require.NoError(t, ioutil.WriteFile(cfg, []byte(fmt.Sprintf(
		"feed_url: %s/RELEASES.json\nversion: 1.0.0\ndownload_dir: %s\n", srv.URL, dir)), 0644))

	out, err := run(t, newApp(nil), "check", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "update-downloaded: 1.1.4")
}

func TestInstallCommandReveals(t *testing.T) {
	srv := newTestFeed(t, "1.1.4")
	dir := t.TempDir()
	var revealed []string
	a := newApp(nil)
	a.reveal = func(path string) error {
		revealed = append(revealed, path)
		return nil
	}

	out, err := run(t, a, "install",
		"--feed", srv.URL+"/RELEASES.json",
		"--app-version", "1.1.0",
		"--download-dir", dir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "before-quit-for-update\n"), out)
	assert.Equal(t, []string{filepath.Join(dir, testArtifact)}, revealed)
}

func TestInstallCommandNothingToInstall(t *testing.T) {
	srv := newTestFeed(t, "1.1.4")
	a := newApp(nil)
	a.reveal = func(path string) error {
		t.Fatalf("unexpected reveal of %s", path)
		return nil
	}

	out, err := run(t, a, "install",
		"--feed", srv.URL+"/RELEASES.json",
		"--app-version", "2.0.0",
		"--download-dir", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "checking-for-update\nupdate-not-available\n", out)
}

func TestFeedCommand(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/app/releases" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `[
			{"tag_name": "v1.1.4", "assets": [{"name": "app_1.1.4_amd64.deb", "browser_download_url": "https://example.com/app_1.1.4_amd64.deb"}]},
			{"tag_name": "v1.1.3", "assets": [{"name": "app_1.1.3_amd64.deb", "browser_download_url": "https://example.com/app_1.1.3_amd64.deb"}]}
		]`)
	}))
	defer api.Close()

	out, err := run(t, newApp(nil), "feed", "github.com/owner/app",
		"--api-url", api.URL,
		"--asset", "*_amd64.deb")
	require.NoError(t, err)
	first := strings.Index(out, `"version": "1.1.3"`)
	second := strings.Index(out, `"version": "1.1.4"`)
	assert.True(t, first >= 0 && second > first, out)
}
