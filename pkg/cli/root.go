package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "avrobuild",
		Short: "avrobuild - Avro schema compiler for Go",
		Long: `avrobuild compiles Avro IDL (.avdl), schema (.avsc) and protocol (.avpr)
files into Go sources.

Builds are incremental: schema files from dependency archives are extracted
once per archive change, and compilation only runs when a schema file or the
output policy changed since the last successful build.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Settings file (default avrobuild.yaml when present)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format override (text, json)")

	// Add subcommands
	root.AddCommand(
		newBackendsCommand(),
		newCompileCommand(opts),
		newCleanCommand(opts),
		newExtractCommand(opts),
		newPackageCommand(opts),
		newWatchCommand(opts),
	)

	return root
}
