package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/ledring/cmd"
	"github.com/smazurov/ledring/internal/api"
	"github.com/smazurov/ledring/internal/config"
	"github.com/smazurov/ledring/internal/dispatch"
	"github.com/smazurov/ledring/internal/events"
	"github.com/smazurov/ledring/internal/led"
	"github.com/smazurov/ledring/internal/logging"
	"github.com/smazurov/ledring/internal/metrics"
	"github.com/smazurov/ledring/internal/nats"
	"github.com/smazurov/ledring/internal/serial"
	"github.com/smazurov/ledring/internal/systemd"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port       string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`
	CorsOrigin string `help:"Allowed CORS origin" default:"*" toml:"server.cors_origin" env:"SERVER_CORS_ORIGIN"`

	// Serial settings
	SerialPort          string `help:"Serial port of the LED ring controller" default:"COM5" toml:"serial.port" env:"SERIAL_PORT"`
	SerialBaudRate      int    `help:"Serial baud rate" default:"9600" toml:"serial.baud_rate" env:"SERIAL_BAUD_RATE"`
	SerialDriver        string `help:"Serial driver (bugst, tarm)" default:"bugst" toml:"serial.driver" env:"SERIAL_DRIVER"`
	SerialRetryDelayMs  int    `help:"Delay between connection attempts in milliseconds" default:"5000" toml:"serial.retry_delay_ms" env:"SERIAL_RETRY_DELAY_MS"`
	SerialSettleDelayMs int    `help:"Wait after opening the port in milliseconds (0 disables)" default:"2000" toml:"serial.settle_delay_ms" env:"SERIAL_SETTLE_DELAY_MS"`
	SerialReadTimeoutMs int    `help:"Serial read timeout in milliseconds" default:"1000" toml:"serial.read_timeout_ms" env:"SERIAL_READ_TIMEOUT_MS"`
	SerialHotplug       bool   `help:"Reconnect as soon as the device is plugged in" default:"true" toml:"serial.hotplug" env:"SERIAL_HOTPLUG"`

	// Pulse settings
	PulseDefaultDelayMs int `help:"Gap between pulses for raw pulse commands in milliseconds" default:"1000" toml:"pulse.default_delay_ms" env:"PULSE_DEFAULT_DELAY_MS"`

	// LED settings
	LedDryRun             bool `help:"Log effects without opening the serial port" default:"false" toml:"led.dry_run" env:"LED_DRY_RUN"`
	LedRestoreOnReconnect bool `help:"Re-send the last effect after a reconnect" default:"true" toml:"led.restore_on_reconnect" env:"LED_RESTORE_ON_RECONNECT"`
	LedStatusIndicator    bool `help:"Mirror the link state on the board status LED" default:"false" toml:"led.status_indicator" env:"LED_STATUS_INDICATOR"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// NATS settings
	NatsEnabled  bool   `help:"Enable the NATS bridge" default:"false" toml:"nats.enabled" env:"NATS_ENABLED"`
	NatsUrl      string `help:"NATS server URL (empty uses the embedded server)" default:"" toml:"nats.url" env:"NATS_URL"`
	NatsEmbedded bool   `help:"Run an embedded NATS server" default:"true" toml:"nats.embedded" env:"NATS_EMBEDDED"`
	NatsPort     int    `help:"Embedded NATS server port" default:"4222" toml:"nats.port" env:"NATS_PORT"`

	// Observability settings
	ObsPrometheusEnabled bool `help:"Enable Prometheus" default:"true" toml:"obs.prometheus_enabled" env:"OBS_PROMETHEUS_ENABLED"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSerial   string `help:"Serial logging level" default:"info" toml:"logging.serial" env:"LOGGING_SERIAL"`
	LoggingDispatch string `help:"Dispatcher logging level" default:"info" toml:"logging.dispatch" env:"LOGGING_DISPATCH"`
	LoggingLed      string `help:"LED logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
	LoggingApi      string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingNats     string `help:"NATS logging level" default:"info" toml:"logging.nats" env:"LOGGING_NATS"`
}

// millis maps a millisecond option onto the "zero means default, negative
// means none" convention of the serial and dispatch options.
func millis(ms int) time.Duration {
	if ms == 0 {
		return -1
	}
	return time.Duration(ms) * time.Millisecond
}

func main() {
	var cli humacli.CLI

	// Create Huma CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		loggingConfig := logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"serial":   opts.LoggingSerial,
				"dispatch": opts.LoggingDispatch,
				"led":      opts.LoggingLed,
				"api":      opts.LoggingApi,
				"nats":     opts.LoggingNats,
			},
		}
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")

		cmd.SetSerialSettings(cmd.SerialSettings{
			Port:        opts.SerialPort,
			BaudRate:    opts.SerialBaudRate,
			Driver:      opts.SerialDriver,
			SettleDelay: millis(opts.SerialSettleDelayMs),
			PulseDelay:  millis(opts.PulseDefaultDelayMs),
		})

		// Create event bus for in-process event handling
		eventBus := events.New()
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(api.LogEvent(entry))
		})

		ctx, cancel := context.WithCancel(context.Background())

		// The serial link and pulse scheduler are skipped in dry-run mode.
		var serialManager *serial.Manager
		var dispatcher *dispatch.Dispatcher
		if !opts.LedDryRun {
			opener, openerErr := serial.OpenerFor(opts.SerialDriver)
			if openerErr != nil {
				logger.Error("Invalid serial driver", "driver", opts.SerialDriver, "error", openerErr)
				os.Exit(1)
			}

			serialManager = serial.NewManager(serial.Options{
				Port:        opts.SerialPort,
				BaudRate:    opts.SerialBaudRate,
				ReadTimeout: time.Duration(opts.SerialReadTimeoutMs) * time.Millisecond,
				RetryDelay:  time.Duration(opts.SerialRetryDelayMs) * time.Millisecond,
				SettleDelay: millis(opts.SerialSettleDelayMs),
				Opener:      opener,
				EventBus:    eventBus,
			})

			dispatcher = dispatch.New(serialManager, dispatch.Options{
				DefaultDelay: millis(opts.PulseDefaultDelayMs),
				EventBus:     eventBus,
			})
		}

		ledLogger := logging.GetLogger("led")
		var ledController led.Controller
		var ledManager *led.Manager
		if dispatcher != nil {
			ledController = led.New(dispatcher, led.Options{
				DefaultDelay: millis(opts.PulseDefaultDelayMs),
			}, ledLogger)

			var indicator led.Indicator
			if opts.LedStatusIndicator {
				indicator = led.NewIndicator(ledLogger)
			}
			ledManager = led.NewManager(dispatcher, indicator, eventBus, opts.LedRestoreOnReconnect, ledLogger)
		} else {
			ledController = led.New(nil, led.Options{
				DryRun:       true,
				DefaultDelay: millis(opts.PulseDefaultDelayMs),
			}, ledLogger)
		}

		apiOpts := &api.Options{
			AuthUsername: opts.AuthUsername,
			AuthPassword: opts.AuthPassword,
			CORSOrigin:   opts.CorsOrigin,
			DryRun:       opts.LedDryRun,
			Controller:   ledController,
			EventBus:     eventBus,
		}
		if serialManager != nil {
			apiOpts.Link = serialManager
			apiOpts.Pulse = dispatcher
		}

		// Add Prometheus handler if enabled
		if opts.ObsPrometheusEnabled {
			apiOpts.PrometheusHandler = metrics.Handler()
		}

		server := api.NewServer(apiOpts)

		// NATS is optional; an unreachable server only disables the bridge
		var natsServer *nats.Server
		var natsBridge *nats.Bridge

		notifier := systemd.NewNotifier(logging.GetLogger("systemd"))

		// Reload log levels when the config file changes
		configWatcher := config.NewConfigWatcher(opts.Config, config.ReadLoggingConfig, logger,
			config.WithErrorHandler[logging.Config](func(err error) {
				logger.Warn("Config watcher error", "error", err)
			}),
		)
		configWatcher.OnReload(func(cfg logging.Config) {
			logger.Info("Reloading log levels", "level", cfg.Level)
			logging.SetLevels(cfg)
		})

		hooks.OnStart(func() {
			// Subscribe before the link comes up so the first connect is seen.
			if ledManager != nil {
				ledManager.Start()
			}

			if serialManager != nil {
				go func() {
					if runErr := serialManager.Run(ctx); runErr != nil {
						logger.Debug("Serial supervisor stopped", "error", runErr)
					}
				}()

				if opts.SerialHotplug {
					go func() {
						if watchErr := serial.WatchHotplug(ctx, serialManager, logging.GetLogger("serial")); watchErr != nil {
							logger.Warn("Hotplug monitoring stopped", "error", watchErr)
						}
					}()
				}
			}

			if opts.NatsEnabled {
				natsURL := opts.NatsUrl
				if opts.NatsEmbedded {
					natsServer = nats.NewServer(nats.ServerOptions{Port: opts.NatsPort})
					if startErr := natsServer.Start(); startErr != nil {
						logger.Warn("Failed to start embedded NATS server", "error", startErr)
						natsServer = nil
					} else if natsURL == "" {
						natsURL = natsServer.ClientURL()
					}
				}

				if natsURL != "" {
					natsBridge = nats.NewBridge(natsURL, eventBus, ledController, logging.GetLogger("nats"))
					if startErr := natsBridge.Start(); startErr != nil {
						logger.Warn("NATS bridge unavailable, continuing without it", "url", natsURL, "error", startErr)
						natsBridge = nil
					}
				}
			}

			if watchErr := configWatcher.Start(); watchErr != nil {
				logger.Warn("Failed to watch config file", "path", opts.Config, "error", watchErr)
			}

			notifier.Watch(eventBus)
			go notifier.RunWatchdog(ctx)
			notifier.Ready()

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			notifier.Stopping()

			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			if stopErr := server.Stop(stopCtx); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			if natsBridge != nil {
				natsBridge.Stop()
			}
			if natsServer != nil {
				natsServer.Stop()
			}

			// End the pulse before the port goes away
			if dispatcher != nil {
				dispatcher.Close()
			}
			if ledManager != nil {
				ledManager.Stop()
			}

			cancel()
			if serialManager != nil {
				if closeErr := serialManager.Close(); closeErr != nil {
					logger.Warn("Error closing serial port", "error", closeErr)
				}
			}

			if stopErr := configWatcher.Stop(); stopErr != nil {
				logger.Debug("Error stopping config watcher", "error", stopErr)
			}
			notifier.Close()
		})
	})

	root := cli.Root()
	root.Use = "ledring"
	root.AddCommand(
		cmd.CreatePortsCmd(),
		cmd.CreateSendCmd(),
		cmd.CreateColorCmd(),
		cmd.CreateVersionCmd(),
	)

	// Run the CLI
	cli.Run()
}
