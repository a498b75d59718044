package ctl

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xelns/xelns-web/internal/publish"
	"github.com/xelns/xelns-web/internal/syncclient"
)

func newPushCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Publish the local content to the remote store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			if !s.rt.SyncToCloud(commandContext(cmd)) {
				return errors.New("push failed")
			}
			return nil
		},
	}
}

func newPullCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Replace local content with the remote store's copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			if !s.rt.SyncFromCloud(commandContext(cmd)) {
				return errors.New("pull failed")
			}
			return nil
		},
	}
}

func newInitRemoteCmd(g *globals) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "init-remote",
		Short: "Reset the remote store document to {}",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("init-remote empties the published content; pass --yes to confirm")
			}
			s, err := g.open(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			if !s.rt.InitCloudDB(commandContext(cmd)) {
				return errors.New("init-remote failed")
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "remote store reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func newReconcileCmd(g *globals) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Apply a published snapshot once unless its stamp was already applied",
		Long: "Applies the snapshot at --from (a file path, - for stdin, or \"remote\" for the\n" +
			"store endpoint) to the local content, the way a visitor session does.\n" +
			"Operator-only collections are never overwritten.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := g.publishedSource(cmd, from)
			if err != nil {
				return err
			}
			s, err := g.open(cmd, src)
			if err != nil {
				return err
			}
			defer s.Close()

			state, _ := s.rt.Reconcile(commandContext(cmd))
			fmt.Fprintln(cmd.OutOrStdout(), state.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "remote", "snapshot file path, - for stdin, or remote")
	return cmd
}

func (g *globals) publishedSource(cmd *cobra.Command, from string) (publish.Source, error) {
	switch from {
	case "":
		return nil, errors.New("--from must not be empty")
	case "-":
		raw, err := readInput(cmd, from)
		if err != nil {
			return nil, err
		}
		return publish.ParseStaticSource(raw)
	case "remote":
	default:
		return publish.FileSource{Path: from}, nil
	}
	p, err := g.profile()
	if err != nil {
		return nil, err
	}
	return publish.RemoteSource{Fetcher: syncclient.New(syncclient.Options{
		BaseURL: p.RemoteURL,
		Token:   p.Token,
	})}, nil
}
