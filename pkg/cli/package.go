package cli

import (
	"context"
	"fmt"

	"github.com/platinummonkey/avrobuild/pkg/codegen/artifacts"
	"github.com/platinummonkey/avrobuild/pkg/schema"
	"github.com/spf13/cobra"
)

// newPublisher creates the bundle publisher; replaced in tests
var newPublisher = func(ctx context.Context, cfg *artifacts.Config) (artifacts.Publisher, error) {
	return artifacts.NewS3Publisher(ctx, cfg)
}

func newPackageCommand(opts *options) *cobra.Command {
	var (
		output  string
		publish bool
		module  string
		version string
	)

	cmd := &cobra.Command{
		Use:   "package",
		Short: "Bundle the raw schema sources",
		Long: `Bundle every schema file under the source directory into a zip archive,
with entry names relative to the source directory. Generated code is not
included.

With --publish the bundle is uploaded to the configured S3 bucket under
<prefix>/<module>/<version>/.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			if output == "" {
				output = s.cfg.Package.Bundle
			}
			if module == "" {
				module = s.cfg.Package.Module
			}
			if version == "" {
				version = s.cfg.Package.Version
			}
			if publish && (module == "" || version == "") {
				return fmt.Errorf("--module and --version are required to publish")
			}

			files, err := schema.Discover(schema.SourceRoot{Dir: s.cfg.SourceDir, Origin: schema.OriginLocal})
			if err != nil {
				return err
			}

			bundle, err := artifacts.NewBundler().Bundle(files, output)
			if err != nil {
				return err
			}
			s.log.WithField("files", len(bundle.Files)).WithField("path", bundle.Path).Info("Packaged schema sources")

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Bundled %d schema files into %s\n", len(bundle.Files), bundle.Path)
			fmt.Fprintf(out, "  sha256: %s\n", bundle.Hash)

			if !publish {
				return nil
			}

			publisher, err := newPublisher(cmd.Context(), s.cfg.ArtifactsConfig())
			if err != nil {
				return err
			}
			result, err := publisher.Publish(cmd.Context(), bundle, module, version)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Published s3://%s/%s\n", result.S3Bucket, result.S3Key)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Bundle file (default from settings)")
	cmd.Flags().BoolVar(&publish, "publish", false, "Upload the bundle to S3")
	cmd.Flags().StringVar(&module, "module", "", "Module name to publish under")
	cmd.Flags().StringVar(&version, "version", "", "Version to publish under")
	return cmd
}
