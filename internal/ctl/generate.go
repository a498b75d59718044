package ctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xelns/xelns-web/internal/sitegen"
)

func newGenerateCmd(g *globals) *cobra.Command {
	var (
		snapshotPath string
		fromLocal    bool
		buildCmd     []string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build the site and write a deployable site-<timestamp> directory",
		Long: "Runs the site build in the project root, copies the output into a fresh\n" +
			"timestamped directory and injects a content snapshot into index.html.\n" +
			"STATIC_OUTPUT_DIR, STATIC_DIST_DIR, STATIC_SNAPSHOT_DIR and\n" +
			"STATIC_SNAPSHOT_JSON override the defaults.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			p, err := g.profile()
			if err != nil {
				return err
			}
			L, err := g.logger(cmd)
			if err != nil {
				return err
			}
			opts := sitegen.Options{
				ProjectRoot:  p.ProjectRoot,
				BuildCommand: buildCmd,
				Logger:       L,
			}
			opts.ApplyEnv()
			gen := sitegen.New(opts)

			path := snapshotPath
			if fromLocal {
				s, err := g.open(cmd, nil)
				if err != nil {
					return err
				}
				snap := s.store.ExportSnapshot(ctx).Sanitize()
				s.Close()
				if path, err = gen.WriteSnapshot(snap); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote snapshot %s\n", path)
			}

			outDir, err := gen.Generate(ctx, path)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), outDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "snapshot file to inject (default: newest in the snapshot dir)")
	cmd.Flags().BoolVar(&fromLocal, "from-local", false, "snapshot the local content first and inject that")
	cmd.Flags().StringSliceVar(&buildCmd, "build-cmd", nil, "build command (default npm,run,build)")
	cmd.MarkFlagsMutuallyExclusive("snapshot", "from-local")
	return cmd
}
