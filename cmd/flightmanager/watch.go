package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"

	natsgo "github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/steampigeon/flightmanager/internal/config"
	internalnats "github.com/steampigeon/flightmanager/internal/nats"
)

// stateSubscriber is the subset of the NATS client used by watch.
type stateSubscriber interface {
	SubscribeState(handler func(internalnats.StateEnvelope)) (*natsgo.Subscription, error)
}

func newWatchCmd() *cobra.Command {
	cfg := config.Load()

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow locator snapshots published on NATS",
		Long: `Subscribes to the snapshot subject a running flightmanager publishes to
and prints one summary line per snapshot until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.NATS.URL == "" {
				return errors.New("watch requires --nats-url")
			}
			client, err := internalnats.New(cfg.NATS.URL, internalnats.Subjects{
				Frames: cfg.NATS.FrameSubject,
				State:  cfg.NATS.StateSubject,
			})
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer cancel()
			return watchState(ctx, client, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.NATS.URL, "nats-url", cfg.NATS.URL, "NATS server URL")
	f.StringVar(&cfg.NATS.StateSubject, "state-subject", cfg.NATS.StateSubject, "Snapshot subject")
	return cmd
}

// watchState prints every received envelope to w until ctx is done.
func watchState(ctx context.Context, src stateSubscriber, w io.Writer) error {
	var mu sync.Mutex
	sub, err := src.SubscribeState(func(env internalnats.StateEnvelope) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintln(w, summarize(env))
	})
	if err != nil {
		return err
	}
	if sub != nil {
		defer func() { _ = sub.Unsubscribe() }()
	}

	<-ctx.Done()
	return nil
}

func summarize(env internalnats.StateEnvelope) string {
	s := env.Snapshot
	fs := s.Flight
	line := fmt.Sprintf("#%d %s phase=%s lat=%.6f lon=%.6f agl=%.1fm battery=%d",
		s.Sequence,
		env.PublishedAt.Format("15:04:05"),
		fs.Phase,
		float64(fs.Latitude),
		float64(fs.Longitude),
		fs.AltitudeAGL,
		fs.BatteryVoltage,
	)
	if s.HasConfig {
		line += fmt.Sprintf(" device=%q mode=%s", s.Config.DeviceName, s.Config.DeployMode)
	}
	return line
}
