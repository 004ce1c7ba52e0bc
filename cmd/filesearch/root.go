package main

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/filesearch/internal/config"
	"github.com/kailas-cloud/filesearch/internal/version"
)

func newRootCmd() *cobra.Command {
	var env string

	root := &cobra.Command{
		Use:   "filesearch",
		Short: "Ingest PDFs into Gemini File Search and answer questions about them",
		Long: `filesearch stores uploaded PDFs, indexes each one into its own Gemini
File Search store and answers questions grounded in the indexed documents.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&env, "env", config.GetEnv(), "config environment (config/<env>.yaml)")

	root.AddCommand(
		newServeCmd(&env),
		newIngestCmd(&env),
		newQueryCmd(&env),
		newVersionCmd(),
	)
	return root
}
