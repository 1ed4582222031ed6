// Package main is the entry point for the notistackd notification daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/notistack/internal/action"
	"github.com/jmylchreest/notistack/internal/audio"
	"github.com/jmylchreest/notistack/internal/config"
	"github.com/jmylchreest/notistack/internal/daemon"
	"github.com/jmylchreest/notistack/internal/dbus"
	"github.com/jmylchreest/notistack/internal/display"
	"github.com/jmylchreest/notistack/internal/display/gtkwin"
	"github.com/jmylchreest/notistack/internal/history"
	"github.com/jmylchreest/notistack/internal/manager"
)

const (
	appID   = "io.github.jmylchreest.notistackd"
	appName = "notistackd"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to the config file")
	verbose := flag.Bool("verbose", false, "Log at debug level regardless of log_verbosity")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(appName, "version", version)
		return
	}

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// With --verbose the config file no longer controls the level.
	configLevel := level
	if *verbose {
		level.Set(slog.LevelDebug)
		configLevel = nil
	} else if l, ok := cfg.Global.LogLevel(); ok {
		level.Set(l)
	}

	os.Exit(run(cfg, configLevel, logger))
}

// run starts the GTK application and blocks until it quits.
func run(cfg *config.Config, level *slog.LevelVar, logger *slog.Logger) int {
	logger.Info("starting notistackd", "version", version, "config", cfg.Path)

	app := adw.NewApplication(appID, 0)

	var (
		server        *dbus.Server
		historyStore  *history.Store
		audioManager  *audio.Manager
		runner        *action.Runner
		d             *daemon.Daemon
		configWatcher *daemon.ConfigWatcher
		loopDone      chan struct{}
		running       atomic.Bool
		baseConfig    atomic.Pointer[config.Config]
	)
	baseConfig.Store(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		glib.IdleAdd(func() { app.Quit() })
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		styleManager := adw.StyleManagerGetDefault()
		active := cfg.WithColorScheme(styleManager.Dark())

		var hist daemon.History
		store, err := history.Open(config.HistoryPath(), history.DefaultLimit, logger)
		if err != nil {
			logger.Warn("history disabled", "error", err)
		} else {
			historyStore = store
			hist = store
			logger.Info("history store initialized", "path", store.Path(), "count", store.Len())
		}

		audioManager = audio.NewManager(active, logger)
		if err := audioManager.Start(ctx); err != nil {
			logger.Warn("failed to start audio manager", "error", err)
		}

		mgr := manager.New(active.Global.DisplayLimit, active.Global.RetainRead, logger)

		server = dbus.NewServer(logger)
		info := dbus.DefaultServerInfo()
		info.Version = version
		server.SetServerInfo(info)

		d = daemon.New(daemon.Options{
			Config:  active,
			Manager: mgr,
			Bus:     server,
			History: hist,
			Sounds:  audioManager,
			Level:   level,
			Logger:  logger,
		})
		server.SetNotifyHandler(d.HandleNotify)
		server.SetCloseHandler(d.HandleClose)
		server.SetRegistry(mgr)

		win := gtkwin.New(&app.Application, active.Global.Monitor, logger)
		runner = action.NewRunner(logger)
		driver := display.NewDriver(win, runner.Run, logger)
		loop := display.NewLoop(active, win, mgr, driver, d.HandlePress, logger)
		d.SetDisplay(loop)

		loopDone = make(chan struct{})
		go func() {
			defer close(loopDone)
			if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("event loop stopped", "error", err)
				glib.IdleAdd(func() { app.Quit() })
			}
		}()

		if err := server.Start(); err != nil {
			logger.Error("failed to start D-Bus server", "error", err)
			app.Quit()
			return
		}

		apply := func() {
			next := baseConfig.Load().WithColorScheme(styleManager.Dark())
			d.Reload(next)
			win.SetMonitor(next.Global.Monitor)
		}
		styleManager.NotifyProperty("dark", func() {
			d.ApplyConfig(baseConfig.Load().WithColorScheme(styleManager.Dark()))
		})

		configWatcher, err = daemon.NewConfigWatcher(cfg.Path, logger)
		if err != nil {
			logger.Warn("failed to create config watcher", "error", err)
		} else {
			configWatcher.SetReloadCallback(func(next *config.Config) {
				baseConfig.Store(next)
				glib.IdleAdd(apply)
			})
			configWatcher.SetErrorCallback(d.ReloadFailed)
			if err := configWatcher.Start(ctx, cfg); err != nil {
				logger.Warn("failed to start config watcher", "error", err)
			}
		}

		// The popup window is hidden while nothing is unread.
		app.Hold()

		logger.Info("notistackd ready", "dbus_interface", dbus.DBusInterface)
		d.Startup()
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		cancel()
		if configWatcher != nil {
			configWatcher.Stop()
		}
		if server != nil {
			if err := server.Stop(); err != nil {
				logger.Warn("error stopping D-Bus server", "error", err)
			}
		}
		if loopDone != nil {
			<-loopDone
		}
		if d != nil {
			d.Close()
		}
		if runner != nil {
			runner.Stop()
		}
		if audioManager != nil {
			audioManager.Stop()
		}
		if historyStore != nil {
			if err := historyStore.Close(); err != nil {
				logger.Warn("error closing history", "error", err)
			}
		}
		running.Store(false)
	})

	// Our own flags are already parsed; GApplication must not see them.
	status := app.Run(os.Args[:1])
	if status != 0 {
		logger.Error("application exited with error", "status", status)
		return status
	}

	logger.Info("notistackd stopped")
	return 0
}
