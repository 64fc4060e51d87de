package main // import "updatectl"

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"updatectl/internal/autoupdater"
	"updatectl/internal/config"
	"updatectl/internal/logging"
)

// App holds what every command needs: the merged configuration
// and the process streams.
type App struct {
	v        *viper.Viper
	cfgFile  string
	cfg      *config.Config
	out      io.Writer
	logger   *log.Logger
	closeLog func() error
	// reveal overrides the reveal-in-folder action, for tests
	reveal func(path string) error
}

func newApp(out io.Writer) *App {
	return &App{
		v:      viper.New(),
		out:    out,
		logger: log.StandardLogger(),
	}
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "updatectl",
		Short:         "Check, download and install desktop app updates from a release feed",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.bindFlags(cmd); err != nil {
				return err
			}
			return a.load()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closeLog != nil {
				return a.closeLog()
			}
			return nil
		},
	}
	root.SetOut(a.out)
	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/updatectl/updatectl.yaml)")
	flags.Bool("debug", false, "Set logging level to debug")
	flags.Bool("trace", false, "Set logging level to trace. Implies debug.")
	flags.String("log-file", "", "Also write logs to this file, rotated by size")

	root.AddCommand(
		a.checkCommand(),
		a.installCommand(),
		a.watchCommand(),
		a.feedCommand(),
	)
	return root
}

func (a *App) load() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.closeLog = logging.Setup(a.logger, logging.Options{
		Debug: cfg.Debug,
		Trace: cfg.Trace,
		File:  cfg.LogFile,
	})
	return nil
}

// newUpdater builds an AutoUpdater from the loaded config and
// prints every event it publishes. updatectl has no native
// updater to delegate to, so it always runs the feed based path.
func (a *App) newUpdater() (*autoupdater.AutoUpdater, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	au, err := autoupdater.New(&autoupdater.Options{
		Version:     a.cfg.Version,
		Platform:    autoupdater.PlatformLinux,
		DownloadDir: a.cfg.DownloadDir,
		HTTPClient:  platformHTTPClient(),
		Reveal:      a.reveal,
		Logger:      log.NewEntry(a.logger).WithField("component", "autoupdater"),
	})
	if err != nil {
		return nil, err
	}
	au.Events().SubscribeAll(a.printEvent)
	au.SetFeedURL(autoupdater.FeedOptions{
		URL:        a.cfg.FeedURL,
		Headers:    a.cfg.Headers,
		ServerType: autoupdater.ServerType(a.cfg.ServerType),
	})
	return au, nil
}

func (a *App) printEvent(ev autoupdater.Event) {
	switch e := ev.(type) {
	case autoupdater.ErrorEvent:
		fmt.Fprintf(a.out, "%s: %v\n", e.Name(), e.Err)
	case autoupdater.UpdateAvailableEvent:
		fmt.Fprintf(a.out, "%s: %s (%s)\n", e.Name(), e.Info.Version, e.Info.URL)
	case autoupdater.UpdateDownloadedEvent:
		fmt.Fprintf(a.out, "%s: %s %s\n", e.Name(), e.Info.Version, e.Path)
	default:
		fmt.Fprintln(a.out, ev.Name())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a := newApp(os.Stdout)
	if err := a.rootCommand().ExecuteContext(ctx); err != nil {
		log.Errorln(err)
		stop()
		os.Exit(1)
	}
}
