package ctl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xelns/xelns-web/internal/snapshot"
)

func newExportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write a full backup of the local content as JSON (stdout when no file or -)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			b, err := snapshot.EncodeIndent(s.store.ExportSnapshot(commandContext(cmd)))
			if err != nil {
				return err
			}
			if len(args) == 0 || args[0] == "-" {
				_, err = cmd.OutOrStdout().Write(append(b, '\n'))
				return err
			}
			if err := ensureParent(args[0]); err != nil {
				return err
			}
			if err := os.WriteFile(args[0], append(b, '\n'), 0o644); err != nil {
				return fmt.Errorf("write backup: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported to %s\n", args[0])
			return nil
		},
	}
}

func newImportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace local content with a backup file (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			s, err := g.open(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			if !s.store.ImportJSON(commandContext(cmd), raw) {
				return errors.New("import failed: file is not a valid content backup")
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "imported")
			return nil
		},
	}
}

func newResetCmd(g *globals) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore every collection to its built-in default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset discards all local content; pass --yes to confirm")
			}
			s, err := g.open(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.store.ResetToDefaults(commandContext(cmd)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "local content reset to defaults")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func newPasswdCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Set the admin console password (read from stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			pw := strings.TrimRight(line, "\r\n")
			if pw == "" {
				return errors.New("password must not be empty")
			}
			s, err := g.open(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.store.SaveAdminPassword(commandContext(cmd), pw); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "admin password updated")
			return nil
		},
	}
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return b, nil
}

func ensureParent(path string) error {
	if path == "" || path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	return nil
}
