package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"updatectl/internal/autoupdater"
	"updatectl/internal/feed"
	"updatectl/internal/updatemetrics"
)

const metricsShutdownTimeout = 5 * time.Second

// flagKeys maps command line flags to config keys
var flagKeys = map[string]string{
	"debug":           "debug",
	"trace":           "trace",
	"log-file":        "log_file",
	"feed":            "feed_url",
	"app-version":     "version",
	"download-dir":    "download_dir",
	"header":          "headers",
	"interval":        "check_interval",
	"metrics-address": "metrics_address",
}

// bindFlags binds the flags of the command being run. Several
// commands define the same flags, so binding happens only once
// the command is known.
func (a *App) bindFlags(cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = a.v.BindPFlag(key, f)
	})
	return err
}

// addFeedFlags adds the flags shared by the commands that run
// update checks
func (a *App) addFeedFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("feed", "", "URL of the release manifest")
	flags.String("app-version", "", "Version of the running app")
	flags.String("download-dir", "", "Where artifacts are downloaded (default is the user's downloads folder)")
	flags.StringToString("header", nil, "Header forwarded to native updaters, as key=value")
}

// checkOnce runs a single cycle and returns the first error
// event, if any
func (a *App) checkOnce(ctx context.Context, au *autoupdater.AutoUpdater) error {
	var failed error
	unsubscribe := autoupdater.Subscribe(au.Events(), func(ev autoupdater.ErrorEvent) {
		if failed == nil {
			failed = ev.Err
		}
	})
	defer unsubscribe()
	au.CheckForUpdates(ctx)
	au.Wait()
	return failed
}

func (a *App) checkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the feed once and download a newer release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			au, err := a.newUpdater()
			if err != nil {
				return err
			}
			return a.checkOnce(cmd.Context(), au)
		},
	}
	a.addFeedFlags(cmd)
	return cmd
}

func (a *App) installCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Check the feed, download a newer release and reveal it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			au, err := a.newUpdater()
			if err != nil {
				return err
			}
			if err := a.checkOnce(cmd.Context(), au); err != nil {
				return err
			}
			if au.DownloadedPath() == "" {
				return nil
			}
			var failed error
			autoupdater.Subscribe(au.Events(), func(ev autoupdater.ErrorEvent) {
				failed = ev.Err
			})
			au.QuitAndInstall()
			return failed
		},
	}
	a.addFeedFlags(cmd)
	return cmd
}

func (a *App) watchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Check the feed periodically until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			au, err := a.newUpdater()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if a.cfg.MetricsAddress != "" {
				stop, err := a.serveMetrics(au)
				if err != nil {
					return err
				}
				defer stop()
			}
			a.logger.WithField("interval", a.cfg.CheckInterval).Info("watching for updates")
			au.ScheduleCheckingForUpdates(ctx, a.cfg.CheckInterval)
			return nil
		},
	}
	a.addFeedFlags(cmd)
	flags := cmd.Flags()
	flags.Duration("interval", 0, "Time between checks (default 12h)")
	flags.String("metrics-address", "", "Serve Prometheus metrics on this address, e.g. localhost:9090")
	return cmd
}

func (a *App) serveMetrics(au *autoupdater.AutoUpdater) (stop func(), err error) {
	reg := prometheus.NewRegistry()
	m, err := updatemetrics.New(reg)
	if err != nil {
		return nil, err
	}
	unsubscribe := m.Observe(au.Events())
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: a.cfg.MetricsAddress, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.WithError(err).Error("metrics server failed")
		}
	}()
	a.logger.WithField("address", a.cfg.MetricsAddress).Info("serving metrics")
	return func() {
		unsubscribe()
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		srv.Shutdown(ctx)
	}, nil
}

func (a *App) feedCommand() *cobra.Command {
	var (
		opts   feed.BuildOptions
		token  string
		apiURL string
		output string
	)
	cmd := &cobra.Command{
		Use:   "feed github.com/OWNER/REPO",
		Short: "Print a release manifest built from a GitHub repository's releases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := feed.NewSource(args[0])
			if err != nil {
				return err
			}
			if gh, ok := src.(*feed.GitHubSource); ok {
				gh.Token = token
				if apiURL != "" {
					gh.BaseURL = strings.TrimSuffix(apiURL, "/") + "/"
				}
			}
			m, err := feed.Build(cmd.Context(), src, opts)
			if err != nil {
				return errors.Wrap(err, "building manifest")
			}
			if output == "" {
				return feed.Write(cmd.OutOrStdout(), m)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := feed.Write(f, m); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.AssetPattern, "asset", "", "Pattern selecting the artifact of each release, e.g. '*_arm64.deb'")
	flags.BoolVar(&opts.AcceptPrereleases, "prereleases", false, "Include prereleases")
	flags.IntVar(&opts.Limit, "limit", 0, "Keep only the newest N releases")
	flags.StringVar(&token, "token", os.Getenv("GITHUB_TOKEN"), "GitHub access token")
	flags.StringVar(&apiURL, "api-url", "", "GitHub API endpoint, for GitHub Enterprise")
	flags.StringVarP(&output, "output", "o", "", "Write the manifest to this file instead of stdout")
	return cmd
}
