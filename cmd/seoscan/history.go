package main

import (
	"github.com/spf13/cobra"
)

func newHistoryCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List your scans, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			list, err := c.History(cmd.Context())
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), list)
			return nil
		},
	}
}
