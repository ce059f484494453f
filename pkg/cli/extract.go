package cli

import (
	"fmt"

	"github.com/platinummonkey/avrobuild/pkg/codegen/extract"
	"github.com/spf13/cobra"
)

func newExtractCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Extract schema files from dependency archives",
		Long: `Unpack the schema files of every configured dependency archive without
compiling. Archives unchanged since their last extraction are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			archives := s.cfg.Archives()
			extractor := extract.NewExtractor(s.stores.Extract,
				extract.WithNamespacedKeys(s.cfg.NamespacedArchiveKeys),
				extract.WithLogger(s.log),
				extract.WithMetrics(s.metrics),
			)

			files, err := extractor.Extract(cmd.Context(), archives, s.cfg.ExtractDir)
			if err != nil {
				return err
			}

			stats := extractor.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Archives: %d extracted, %d unchanged\n", stats.Extracted, stats.Skipped)
			fmt.Fprintf(out, "Schema files: %d\n", len(files))
			for _, root := range extract.Roots(archives, s.cfg.ExtractDir) {
				fmt.Fprintf(out, "  %s\n", root.Dir)
			}
			return nil
		},
	}
}
