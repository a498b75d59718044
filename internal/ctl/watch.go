package ctl

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xelns/xelns-web/internal/cryptoutil"
	"github.com/xelns/xelns-web/internal/snapshot"
)

const defaultScanInterval = 2 * time.Second

func newWatchCmd(g *globals) *cobra.Command {
	var (
		from string
		scan time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep local content and the remote store in step until interrupted",
		Long: "During an admin session, publishable edits to the local database (made by\n" +
			"other xelnsctl commands or the console) are pushed after a quiet period.\n" +
			"Outside one, snapshots published at --from are applied as they appear.\n" +
			"SIGHUP forces an immediate publish check.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if scan <= 0 {
				return errors.New("--scan-interval must be positive")
			}
			src, err := g.publishedSource(cmd, from)
			if err != nil {
				return err
			}
			s, err := g.open(cmd, src)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)

			done := make(chan error, 1)
			go func() { done <- s.rt.Run(ctx) }()
			s.logger.Info(ctx, "watch: running", "from", from, "scan", scan.String())

			ticker := time.NewTicker(scan)
			defer ticker.Stop()
			last := contentDigest(ctx, s)
			for {
				select {
				case <-ctx.Done():
					<-done
					return nil
				case <-hup:
					s.rt.Focus()
				case <-ticker.C:
					if d := contentDigest(ctx, s); d != last {
						last = d
						s.rt.Touch(ctx)
					}
				}
			}
		},
	}
	cmd.Flags().StringVar(&from, "from", "remote", "published snapshot file path, - for stdin, or remote")
	cmd.Flags().DurationVar(&scan, "scan-interval", defaultScanInterval, "how often the local database is checked for edits")
	return cmd
}

// contentDigest hashes the publishable part of the local store.
func contentDigest(ctx context.Context, s *session) string {
	b, err := snapshot.Encode(s.store.ExportSnapshot(ctx).Sanitize())
	if err != nil {
		return ""
	}
	return cryptoutil.SHA256Hex(b)
}
