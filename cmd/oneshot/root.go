package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "oneshot",
		Short:         "Explain anything, then drill into any word",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.server, "server", envOr("ONESHOT_SERVER", "http://localhost:8090"), "Base URL of the oneshot server")
	flags.StringVar(&ctx.apiKey, "api-key", envOr("ONESHOT_API_KEY", ""), "Bearer key for the server")
	flags.BoolVarP(&ctx.verbose, "verbose", "v", false, "Log debug output to stderr")
	flags.BoolVar(&ctx.jsonOut, "json", false, "Print raw JSON responses")

	rootCmd.AddCommand(newExplainCommand(ctx))
	rootCmd.AddCommand(newExpandCommand(ctx))
	rootCmd.AddCommand(newAskCommand(ctx))
	rootCmd.AddCommand(newAudioCommand(ctx))
	rootCmd.AddCommand(newVideoCommand(ctx))

	return rootCmd
}
