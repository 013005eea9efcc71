package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/seoscan/internal/client"
	"github.com/bryanwahyu/seoscan/internal/domain/scans"
)

type waitFlags struct {
	wait     bool
	interval time.Duration
	attempts int
}

func (w *waitFlags) bind(cmd *cobra.Command, def bool) {
	d := client.DefaultPollerConfig()
	cmd.Flags().BoolVarP(&w.wait, "wait", "w", def, "poll until the scan finishes")
	cmd.Flags().DurationVar(&w.interval, "interval", d.Interval, "polling interval")
	cmd.Flags().IntVar(&w.attempts, "max-attempts", d.MaxAttempts, "give up after this many polls")
}

func newScanCommand(opts *cliOptions) *cobra.Command {
	wf := &waitFlags{}
	cmd := &cobra.Command{
		Use:   "scan <url>",
		Short: "Submit a URL for analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			sub, err := c.Submit(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scan %s queued for %s\n", sub.ID, sub.URL)
			if !wf.wait {
				return nil
			}
			return follow(cmd.Context(), out, c, sub.ID, wf)
		},
	}
	wf.bind(cmd, true)
	return cmd
}

func newReportCommand(opts *cliOptions) *cobra.Command {
	wf := &waitFlags{}
	cmd := &cobra.Command{
		Use:   "report <scan-id>",
		Short: "Show a scan's status and report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			if wf.wait {
				return follow(cmd.Context(), cmd.OutOrStdout(), c, args[0], wf)
			}
			res, err := c.Report(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	wf.bind(cmd, false)
	return cmd
}

// follow polls until the scan is terminal and prints each status change.
func follow(ctx context.Context, out io.Writer, c *client.Client, id string, wf *waitFlags) error {
	last := scans.Status("")
	p := &client.Poller{
		Fetcher: c,
		Config: client.PollerConfig{
			Interval:    wf.interval,
			MaxAttempts: wf.attempts,
		},
		OnUpdate: func(st client.State) {
			if st.LastErr != nil {
				fmt.Fprintf(out, "  fetch failed (attempt %d): %v\n", st.Attempts, st.LastErr)
				return
			}
			if st.Status != last {
				last = st.Status
				fmt.Fprintf(out, "  %s\n", client.StatusLabel(st.Status).Render())
			}
		},
	}

	st, err := p.Run(ctx, id)
	if errors.Is(err, client.ErrPollTimeout) {
		return fmt.Errorf("gave up after %d attempts, last status %s: %w", st.Attempts, orUnknown(st.Status), err)
	}
	if err != nil {
		return err
	}
	renderResult(out, st.Result)
	return nil
}

func orUnknown(s scans.Status) string {
	if s == "" {
		return "unknown"
	}
	return string(s)
}
