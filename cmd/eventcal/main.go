package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventcal/internal/capture"
	"eventcal/internal/config"
	"eventcal/internal/ics"
	appLog "eventcal/internal/log"
	"eventcal/internal/notify"
	"eventcal/internal/recur"
	"eventcal/internal/schedule"
	"eventcal/internal/store"
	"eventcal/internal/web"
)

const version = "1.0.0"

type flagConfig struct {
	configPath string
	listen     string
	snapshot   bool
	exportPath string
	series     bool
	importPath string
}

// backend is a persistence collaborator that holds resources.
type backend interface {
	schedule.Persistence
	io.Closer
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if err := conf.Validate(); err != nil {
		appLog.Error("invalid config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("eventcal starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"storage", conf.Storage,
		"notify_schedule", conf.NotifySchedule,
		"max_occurrences", conf.MaxOccurrences,
		"holidays", len(conf.Holidays),
		"basic_auth", conf.BasicAuth.Enabled(),
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := run(ctx, conf, flags); err != nil {
		appLog.Error("eventcal failed", err)
		os.Exit(1)
	}
	appLog.Info("eventcal exiting")
}

func run(ctx context.Context, conf *config.Config, flags flagConfig) error {
	st, err := openStore(conf)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := schedule.New(st, schedule.WithRecurConfig(recur.Config{MaxOccurrences: conf.MaxOccurrences}))
	loadCtx, loadCancel := context.WithTimeout(ctx, conf.RequestTimeout())
	err = svc.Load(loadCtx)
	loadCancel()
	if err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	switch {
	case flags.importPath != "":
		return importFile(ctx, svc, flags.importPath, conf)
	case flags.exportPath != "":
		return exportFile(svc, flags.exportPath, flags.series)
	}

	feed := notify.NewFeed(0)
	poller, err := notify.NewPoller(svc, feed, conf.NotifySchedule, conf.Location())
	if err != nil {
		return err
	}

	srv := web.NewServer(web.Deps{Config: conf, Service: svc, Store: st, Feed: feed})

	if flags.snapshot {
		return snapshot(ctx, conf, srv)
	}

	poller.Start()
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		poller.Stop(stopCtx)
	}()

	return srv.ListenAndServe(ctx)
}

func openStore(conf *config.Config) (backend, error) {
	switch conf.Storage {
	case config.StorageMemory:
		appLog.Warn("using in-memory storage; events are lost on exit")
		return store.NewMemoryStore(), nil
	case config.StorageRemote:
		return store.NewClient(conf.RemoteURL, conf.RequestTimeout()), nil
	default:
		return store.NewSQLiteStore(conf.DBPath)
	}
}

// snapshot serves the calendar just long enough to capture it once.
func snapshot(ctx context.Context, conf *config.Config, srv *web.Server) error {
	srvCtx, stop := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(srvCtx) }()

	err := waitHealthy(ctx, capture.LocalURL(conf.Listen)+"/health", 5*time.Second)
	if err == nil {
		err = capture.Snapshot(ctx, capture.OptionsFrom(conf))
	}

	stop()
	if serr := <-errCh; serr != nil && err == nil {
		err = serr
	}
	return err
}

func waitHealthy(ctx context.Context, url string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: time.Second}
	for {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return errors.New("server did not become healthy")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func exportFile(svc *schedule.Service, path string, series bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ics.Export(f, svc.Events(), ics.ExportOptions{Series: series}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func importFile(ctx context.Context, svc *schedule.Service, path string, conf *config.Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	batch, err := ics.Import(f, conf.Location())
	if err != nil {
		return err
	}
	var created int
	for _, form := range batch.Forms {
		out, err := svc.Create(ctx, form, schedule.Answers{Force: true})
		if err != nil {
			return fmt.Errorf("import %q: %w", form.Title, err)
		}
		created += len(out.Saved)
	}
	out, err := svc.Restore(ctx, batch.Instances)
	if err != nil {
		return err
	}
	appLog.Info("import finished", "path", path, "created", created, "restored", len(out.Saved), "skipped", batch.Skipped)
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./etc/eventcal.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.snapshot, "snapshot", false, "Capture the calendar page to the configured PNG and exit")
	flag.StringVar(&cfg.exportPath, "export", "", "Write all events to this .ics file and exit")
	flag.BoolVar(&cfg.series, "series", false, "With -export, collapse recurring events into RRULEs")
	flag.StringVar(&cfg.importPath, "import", "", "Import events from this .ics file and exit")

	flag.Parse()

	return cfg
}
