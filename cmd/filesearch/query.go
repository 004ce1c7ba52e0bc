package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var errMissingFlag = errors.New("missing required flag")

func newQueryCmd(env *string) *cobra.Command {
	var owner, question, recordID string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Ask a question against an owner's documents",
		Long: `Query answers a question against the given record, or against the owner's
most recently created READY record when --record is omitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if owner == "" {
				return fmt.Errorf("--owner: %w", errMissingFlag)
			}

			a, err := newApp(cmd.Context(), *env)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.queries.Query(cmd.Context(), owner, question, recordID)
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "document: %s\n\n%s\n", res.RecordID, res.AnswerText)
			if len(res.CitationTitles) > 0 {
				fmt.Fprintf(out, "\nsources: %s\n", strings.Join(res.CitationTitles, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "record owner")
	cmd.Flags().StringVarP(&question, "question", "q", "", "question to ask")
	cmd.Flags().StringVar(&recordID, "record", "", "record ID (default: latest READY record)")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}
