package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/steampigeon/flightmanager/internal/config"
	"github.com/steampigeon/flightmanager/internal/locator"
	internalmcp "github.com/steampigeon/flightmanager/internal/mcp"
	internalnats "github.com/steampigeon/flightmanager/internal/nats"
	"github.com/steampigeon/flightmanager/internal/state"
	"github.com/steampigeon/flightmanager/pkg/types"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	var verbose, version bool

	rootCmd := &cobra.Command{
		Use:   "flightmanager",
		Short: "Rocket locator ground service",
		Long: `Decodes prelaunch and telemetry messages from a rocket locator and
serves the decoded flight state, deploy configuration and handheld
bearing/distance to MCP clients over stdio.

Messages are read from a TCP radio bridge or a NATS subject. Logs go to
stderr; stdout carries MCP traffic.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if version {
				showVersion()
				return nil
			}
			logger := newLogger(cfg.LogLevel, verbose)
			return run(cmd.Context(), cfg, logger)
		},
	}

	f := rootCmd.Flags()
	f.StringVar(&cfg.Bridge.Host, "bridge-host", cfg.Bridge.Host, "Radio bridge host")
	f.IntVar(&cfg.Bridge.Port, "bridge-port", cfg.Bridge.Port, "Radio bridge port")
	f.DurationVar(&cfg.Bridge.Timeout, "bridge-timeout", cfg.Bridge.Timeout, "Radio bridge dial timeout")
	f.StringVar(&cfg.Source, "source", cfg.Source, "Frame source: tcp or nats")
	f.StringVar(&cfg.NATS.URL, "nats-url", cfg.NATS.URL, "NATS server URL (empty disables NATS)")
	f.DurationVar(&cfg.State.StaleThreshold, "stale-threshold", cfg.State.StaleThreshold, "Age after which locator data is reported stale")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	f.BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	f.BoolVar(&version, "version", false, "Show version information")

	rootCmd.AddCommand(newDecodeCmd(), newWatchCmd())
	return rootCmd
}

func newLogger(level string, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if verbose {
		lvl = logrus.DebugLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func run(parent context.Context, cfg config.Config, logger *logrus.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
		"source":     cfg.Source,
	}).Info("Starting flightmanager")

	mgr := state.NewManager(cfg.State.StaleThreshold)
	decoder := locator.NewDecoder(mgr, logger)

	var bus *internalnats.Client
	if cfg.NATS.URL != "" {
		var err error
		bus, err = internalnats.New(cfg.NATS.URL, internalnats.Subjects{
			Frames: cfg.NATS.FrameSubject,
			State:  cfg.NATS.StateSubject,
		})
		if err != nil {
			return err
		}
		defer bus.Close()

		mgr.Subscribe(func(s state.Snapshot) {
			if err := bus.PublishSnapshot(s); err != nil {
				logger.WithError(err).Warn("Failed to publish snapshot")
			}
		})
	}

	switch cfg.Source {
	case config.SourceTCP:
		var handler locator.MessageHandler = decoder
		if bus != nil {
			handler = &frameMirror{next: decoder, bus: bus, logger: logger}
		}
		mgr.SetLinkUp(false)
		go runReceiverLoop(ctx, cfg, handler, mgr, logger)
	case config.SourceNATS:
		if bus == nil {
			return errors.New("frame source nats requires --nats-url")
		}
		sub, err := bus.SubscribeFrames(func(msg []byte) {
			if err := decoder.Handle(msg); err != nil {
				logger.WithError(err).Warn("Dropping undecodable locator message")
			}
		})
		if err != nil {
			return err
		}
		defer func() { _ = sub.Unsubscribe() }()
	default:
		return fmt.Errorf("unknown frame source %q", cfg.Source)
	}

	mcpServer := internalmcp.NewServer(mgr, Version)
	if err := mcpServer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// framePublisher is the subset of the NATS client used to mirror frames.
type framePublisher interface {
	PublishFrame(msg []byte) error
}

// frameMirror republishes every raw bridge frame on NATS before decoding it,
// so other consumers can run with --source nats.
type frameMirror struct {
	next   locator.MessageHandler
	bus    framePublisher
	logger *logrus.Logger
}

func (m *frameMirror) Handle(msg []byte) error {
	if err := m.bus.PublishFrame(msg); err != nil {
		m.logger.WithError(err).Warn("Failed to mirror frame")
	}
	return m.next.Handle(msg)
}

// linkRecorder is told when the bridge connection comes up and goes down.
type linkRecorder interface {
	SetLinkUp(up bool)
}

// runReceiverLoop connects to the radio bridge and decodes frames, retrying
// with exponential backoff (1s to 30s cap) on failure.
func runReceiverLoop(ctx context.Context, cfg config.Config, handler locator.MessageHandler, link linkRecorder, logger *logrus.Logger) {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if err := ctx.Err(); err != nil {
			return
		}

		if err := runReceiver(ctx, cfg, handler, link, logger); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.WithError(err).WithField("retry_in", backoff.String()).Warn("Radio bridge disconnected")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// runReceiver dials the bridge and pumps frames until the link drops or ctx
// is done.
func runReceiver(ctx context.Context, cfg config.Config, handler locator.MessageHandler, link linkRecorder, logger *logrus.Logger) error {
	client := locator.NewClient(locator.Config{
		Host:    cfg.Bridge.Host,
		Port:    cfg.Bridge.Port,
		Timeout: cfg.Bridge.Timeout,
	})

	if err := client.Connect(ctx); err != nil {
		return &types.LinkError{Err: err, Message: "connect " + client.Addr(), Recoverable: true}
	}
	defer client.Close()

	link.SetLinkUp(true)
	defer link.SetLinkUp(false)

	session := uuid.NewString()
	logger.WithFields(logrus.Fields{
		"bridge":  client.Addr(),
		"session": session,
	}).Info("Connected to radio bridge")

	receiver := locator.NewReceiver(client, handler, logger, session)
	if err := receiver.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &types.LinkError{Err: err, Message: "session " + session, Recoverable: true}
	}
	return nil
}
