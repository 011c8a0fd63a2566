package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"pickupwatch/pkg/apple"
	"pickupwatch/pkg/config"
	"pickupwatch/pkg/handlers"
	"pickupwatch/pkg/logger"
	"pickupwatch/pkg/metrics"
	"pickupwatch/pkg/notifier"
	"pickupwatch/pkg/progress"
	"pickupwatch/pkg/scheduler"
	"pickupwatch/pkg/server"
	"pickupwatch/pkg/tasks"
)

const shutdownTimeout = 30 * time.Second

type options struct {
	model      string
	color      string
	capacity   int
	carrier    string
	zip        string
	configPath string
	watch      bool
	notify     bool
	logLevel   string
	listen     string
	list       bool
	initConfig bool
}

func parseFlags() *options {
	o := &options{}
	flag.StringVar(&o.model, "model", "", "iPhone model (plus|seven)")
	flag.StringVar(&o.color, "color", "", "color (black|jetBlack|silver|gold|rose)")
	flag.IntVar(&o.capacity, "capacity", 0, "capacity in GB (32|128|256)")
	flag.StringVar(&o.carrier, "carrier", apple.DefaultCarrier, "carrier (att|sprint|tmobile|verizon)")
	flag.StringVar(&o.zip, "zip", "", "zip code to search around")
	flag.StringVar(&o.configPath, "config", config.DefaultConfigPath, "path to the YAML config file")
	flag.BoolVar(&o.watch, "watch", false, "check every interval until stopped")
	flag.BoolVar(&o.notify, "notify", false, "send an SMS instead of printing results")
	flag.StringVar(&o.logLevel, "log-level", "", "log level override (debug|info|warn|error|fatal)")
	flag.StringVar(&o.listen, "listen", "", "status server address in watch mode, e.g. :8080")
	flag.BoolVar(&o.list, "list", false, "print the known configurations and exit")
	flag.BoolVar(&o.initConfig, "init-config", false, "write a config template to -config and exit")
	flag.Parse()
	return o
}

// @title pickupwatch status API
// @version 1.0
// @description Status, schedule and manual checks for the iPhone 7 pickup watcher.
// @BasePath /
func main() {
	opts := parseFlags()
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts *options) error {
	switch {
	case opts.list:
		return printCatalog(os.Stdout)
	case opts.initConfig:
		return writeTemplate(opts.configPath)
	}

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadConfig(opts.configPath, opts.notify)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.App.LogLevel = opts.logLevel
	}
	if opts.listen != "" {
		cfg.Server.Listen = opts.listen
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.InitLogger(cfg.App.IsDevelopment(), cfg.App.LogFile, cfg.App.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	sel := apple.Selection{
		Model:    apple.Model(opts.model),
		Color:    apple.Color(opts.color),
		Capacity: opts.capacity,
		Carrier:  opts.carrier,
		Zip:      opts.zip,
	}
	codes, err := sel.Resolve()
	if err != nil {
		return err
	}
	logger.Info("📋 Watching selection",
		zap.String("selection", sel.String()),
		zap.String("part", codes.Part),
		zap.String("carrier", codes.Carrier),
		zap.Bool("notify", opts.notify),
		zap.Bool("watch", opts.watch))

	if opts.notify {
		if missing := cfg.MissingCredentials(); len(missing) > 0 {
			logger.Warn("Credentials missing from config, SMS will fail",
				zap.String("path", opts.configPath),
				zap.Strings("keys", missing))
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	checker := apple.NewChecker(
		apple.WithBaseURL(cfg.Monitor.Endpoint),
		apple.WithTimeout(cfg.Monitor.RequestTimeout),
	)
	n := buildNotifier(cfg, opts.notify, m)
	printer := progress.NewSpinner(os.Stdout, isTerminal(os.Stdout))
	status := tasks.NewStatusStore(0)

	task := tasks.NewPickupTask(sel, checker, n,
		tasks.WithProgress(printer),
		tasks.WithMetrics(m),
		tasks.WithStatus(status))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			logger.Info("🛑 Shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()

	if !opts.watch {
		err := scheduler.RunOnce(ctx, func(ctx context.Context) error {
			_, err := task.Run(ctx)
			return err
		}, cfg.Monitor.Linger)
		printer.Persist()
		return err
	}
	return watch(ctx, cancel, cfg, sel, task, printer, status, reg)
}

func watch(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, sel apple.Selection,
	task *tasks.PickupTask, printer *progress.Spinner, status *tasks.StatusStore, reg *prometheus.Registry) error {
	loc, err := cfg.Monitor.Location()
	if err != nil {
		return err
	}

	sched := scheduler.NewCronScheduler(scheduler.Config{
		Location:       loc,
		AllowOverlap:   cfg.Monitor.AllowOverlap,
		RunImmediately: true,
	})
	if _, err := sched.Every("pickup", cfg.Monitor.Interval, func(ctx context.Context) error {
		_, err := task.Run(ctx)
		printer.Persist()
		return err
	}); err != nil {
		return err
	}

	var srv *server.HTTPServer
	if cfg.Server.Listen != "" {
		handlerSvc := handlers.NewHandlerService(cfg, sel, status,
			handlers.WithJobs(sched),
			handlers.WithRunner(task))
		srv = server.NewHTTPServer(&server.Config{
			Listen:      cfg.Server.Listen,
			Development: cfg.App.IsDevelopment(),
			Gatherer:    reg,
		}, handlerSvc)

		go func() {
			if err := srv.Start(); err != nil {
				logger.Error("Status server stopped", zap.Error(err))
				cancel()
			}
		}()
	}

	logger.Info("🍎 Watch mode started, press Ctrl+C to stop",
		zap.Duration("interval", cfg.Monitor.Interval),
		zap.String("timezone", loc.String()))

	if err := sched.Start(ctx); err != nil {
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	var errs []error
	if srv != nil {
		errs = append(errs, srv.Shutdown(shutdownCtx))
	}
	errs = append(errs, sched.Shutdown(shutdownCtx))

	snap := status.Snapshot()
	logger.Info("👋 Monitor stopped",
		zap.Int("runs", snap.Runs),
		zap.Int("found", snap.Found),
		zap.Int("failures", snap.Failures))
	return errors.Join(errs...)
}

// buildNotifier always returns a Chain so every channel result reaches the
// metrics.
func buildNotifier(cfg *config.Config, notify bool, m *metrics.Collectors) notifier.Notifier {
	var (
		primary notifier.Notifier = notifier.NewConsoleNotifier(os.Stdout)
		mirrors []notifier.Notifier
	)
	if notify {
		client := notifier.NewTwilioClient(cfg.Credentials(), cfg.Twilio)
		primary = notifier.NewSMSNotifier(client, cfg.FromNumber, cfg.ToNumber, cfg.Monitor.PurchaseURL)

		if cfg.Telegram.Enabled {
			tg, err := notifier.NewTelegramNotifier(cfg.Telegram, cfg.Monitor.PurchaseURL)
			if err != nil {
				logger.Warn("Telegram mirror disabled", zap.Error(err))
			} else {
				mirrors = append(mirrors, tg)
			}
		}
	}

	chain := notifier.NewChain(primary, mirrors...)
	chain.OnResult(m.ObserveNotification)
	return chain
}

func printCatalog(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tCOLOR\tCAPACITY\tPART")
	for _, e := range apple.Catalog() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.Model, e.Color, e.Capacity, e.Part)
	}
	fmt.Fprintf(tw, "\ncarriers: %v\n", apple.Carriers())
	return tw.Flush()
}

func writeTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.SaveConfig(config.Template(), path); err != nil {
		return err
	}
	fmt.Printf("Wrote config template to %s\n", path)
	return nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
