package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCleanCommand(opts *options) *cobra.Command {
	var dependencies bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove generated sources and build state",
		Long: `Forget the persisted build fingerprint and remove the generated sources
from the output directory, so the next compile rebuilds everything. Files
without the generated header are left in place.

With --dependencies the extracted dependency schemas are removed too; they
are unpacked again by the next compile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			driver, err := s.newDriver(false)
			if err != nil {
				return err
			}
			if err := driver.Clean(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed generated sources from %s\n", s.cfg.OutputDir)

			if dependencies && s.cfg.ExtractDir != "" {
				if err := os.RemoveAll(s.cfg.ExtractDir); err != nil {
					return fmt.Errorf("failed to remove extract directory: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", s.cfg.ExtractDir)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dependencies, "dependencies", false, "Also remove extracted dependency schemas")
	return cmd
}
