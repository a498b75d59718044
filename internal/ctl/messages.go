package ctl

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newMessagesCmd(g *globals) *cobra.Command {
	var unread bool
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "List contact messages left by visitors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			msgs := s.rt.View().Messages
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tNAME\tPHONE\tEMAIL\tREAD\tCONTENT")
			for _, m := range msgs {
				if unread && m.Read {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%v\t%s\n", m.ID, m.Date, m.Name, m.Phone, m.Email, m.Read, oneLine(m.Content, 60))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "only unread messages")
	cmd.AddCommand(newMessageReadCmd(g), newMessageDeleteCmd(g))
	return cmd
}

func newMessageReadCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>...",
		Short: "Mark messages as read",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := commandContext(cmd)
			for _, id := range args {
				if err := s.rt.MarkMessageRead(ctx, id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newMessageDeleteCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete messages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := commandContext(cmd)
			for _, id := range args {
				if err := s.rt.DeleteMessage(ctx, id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// oneLine flattens newlines and truncates to max runes.
func oneLine(s string, max int) string {
	r := []rune(s)
	for i, c := range r {
		if c == '\n' || c == '\r' || c == '\t' {
			r[i] = ' '
		}
	}
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return string(r)
}
