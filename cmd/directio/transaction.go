package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jmgilman/go/directio/transaction"
	"github.com/spf13/cobra"
)

type record struct {
	ExecutionID string            `json:"executionId"`
	Status      string            `json:"status"`
	Started     time.Time         `json:"started"`
	User        string            `json:"user,omitempty"`
	BatchID     string            `json:"batchId,omitempty"`
	FlowID      string            `json:"flowId,omitempty"`
	Arguments   map[string]string `json:"arguments,omitempty"`
	Comment     []string          `json:"comment,omitempty"`
}

func toRecord(r transaction.Record) record {
	status := "RUNNING"
	if r.Committed {
		status = "COMMITTED"
	}
	return record{
		ExecutionID: r.ExecutionID,
		Status:      status,
		Started:     r.Timestamp,
		User:        r.User,
		BatchID:     r.BatchID,
		FlowID:      r.FlowID,
		Arguments:   r.Arguments,
		Comment:     r.Comment,
	}
}

func (a *app) transactionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transaction",
		Aliases: []string{"tx"},
		Short:   "Inspect and resolve unfinished transactions",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List unfinished transactions, oldest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				records, err := a.editor().List(cmd.Context())
				if err != nil {
					return err
				}
				out := make([]record, len(records))
				for i, r := range records {
					out[i] = toRecord(r)
				}
				return a.print(cmd, out, func() {
					w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "EXECUTION ID\tSTATUS\tSTARTED\tBATCH\tFLOW\tUSER")
					for _, r := range out {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
							r.ExecutionID, r.Status, r.Started.Format(time.RFC3339), r.BatchID, r.FlowID, r.User)
					}
					_ = w.Flush()
				})
			},
		},
		&cobra.Command{
			Use:   "show <execution-id>",
			Short: "Show one transaction",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				r, err := a.editor().Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				rec := toRecord(r)
				return a.print(cmd, rec, func() {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "%s (%s, started %s)\n", rec.ExecutionID, rec.Status, rec.Started.Format(time.RFC3339))
					for _, line := range rec.Comment {
						fmt.Fprintf(out, "  %s\n", line)
					}
				})
			},
		},
		a.resolveTransactionCommand("apply", "Roll a committed transaction forward", (*transaction.Editor).Apply),
		a.resolveTransactionCommand("abort", "Discard a transaction and its uncommitted output", (*transaction.Editor).Abort),
	)
	return cmd
}

type resolveFunc = func(e *transaction.Editor, ctx context.Context, executionID string) (bool, error)

func (a *app) resolveTransactionCommand(name, short string, fn resolveFunc) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <execution-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			done, err := fn(a.editor(), cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result := struct {
				ExecutionID string `json:"executionId"`
				Done        bool   `json:"done"`
			}{args[0], done}
			return a.print(cmd, result, func() {
				if done {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s done\n", args[0], name)
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: nothing to %s\n", args[0], name)
			})
		},
	}
}
