package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/filesearch/internal/domain/record"
)

func newIngestCmd(env *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <record-id>",
		Short: "Re-run ingestion for a record",
		Long: `Ingest uploads the record's stored PDF into a new File Search store and
waits for indexing. The record ends READY or FAILED.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *env)
			if err != nil {
				return err
			}
			defer a.close()

			rec, err := a.ingester.Ingest(cmd.Context(), args[0])
			if rec.ID() != "" {
				printRecord(cmd, &rec)
			}
			if err != nil {
				return fmt.Errorf("ingest %s: %w", args[0], err)
			}
			return nil
		},
	}
}

func printRecord(cmd *cobra.Command, rec *record.Record) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id:      %s\n", rec.ID())
	fmt.Fprintf(out, "owner:   %s\n", rec.Owner())
	fmt.Fprintf(out, "title:   %s\n", rec.Title())
	fmt.Fprintf(out, "status:  %s\n", rec.Status())
	if rec.HasStore() {
		fmt.Fprintf(out, "store:   %s\n", rec.StoreRef())
	}
	if rec.ErrorMessage() != "" {
		fmt.Fprintf(out, "error:   %s\n", rec.ErrorMessage())
	}
}
