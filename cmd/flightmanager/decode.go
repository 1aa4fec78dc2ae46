package main

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/steampigeon/flightmanager/internal/locator"
	"github.com/steampigeon/flightmanager/internal/state"
)

func newDecodeCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode hex-encoded locator messages",
		Long: `Reads one hex-encoded locator message per line from file (or stdin) and
prints the snapshot after each message as JSON. Blank lines and lines
starting with # are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			level := "warn"
			if verbose {
				level = "debug"
			}
			logger := newLogger(level, false)
			logger.SetOutput(cmd.ErrOrStderr())
			return decodeStream(in, cmd.OutOrStdout(), logger)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every decoded message")
	return cmd
}

// decodeStream feeds every message in r through a fresh decoder and writes
// one JSON snapshot per line to w. Bad lines are logged and skipped.
func decodeStream(r io.Reader, w io.Writer, logger *logrus.Logger) error {
	mgr := state.NewManager(0)
	decoder := locator.NewDecoder(mgr, logger)
	enc := json.NewEncoder(w)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		msg, err := hex.DecodeString(strings.ReplaceAll(text, " ", ""))
		if err != nil {
			logger.WithError(err).WithField("line", line).Warn("Skipping line that is not hex")
			continue
		}
		before := mgr.Snapshot().Sequence
		if err := decoder.Handle(msg); err != nil {
			logger.WithError(err).WithField("line", line).Warn("Skipping undecodable message")
			continue
		}
		snap := mgr.Snapshot()
		if snap.Sequence == before {
			continue
		}
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return scanner.Err()
}
