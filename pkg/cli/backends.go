package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/platinummonkey/avrobuild/pkg/codegen/backends"
	"github.com/spf13/cobra"
)

func newBackendsCommand() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List the emission backends and their capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listBackends(cmd.OutOrStdout(), backends.NewDefaultRegistry(), outputJSON)
		},
	}
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output in JSON format")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show details for one backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := backends.NewDefaultRegistry().Get(args[0])
			if err != nil {
				return fmt.Errorf("%w: %s", err, args[0])
			}
			return showBackend(cmd.OutOrStdout(), spec, outputJSON)
		},
	})
	return cmd
}

func listBackends(w io.Writer, reg *backends.Registry, outputJSON bool) error {
	specs := reg.List()
	if outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(specs)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tVERSION\tSTATUS\tCAPABILITIES")
	for _, spec := range specs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", spec.ID, spec.Name, spec.Version, status(spec), strings.Join(capabilities(spec), ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nTotal: %d backends\n", reg.Count())
	return nil
}

func showBackend(w io.Writer, spec *backends.BackendSpec, outputJSON bool) error {
	if outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(spec)
	}

	fmt.Fprintf(w, "Backend: %s\n", spec.DisplayName)
	fmt.Fprintf(w, "ID: %s\n", spec.ID)
	fmt.Fprintf(w, "Version: %s\n", spec.Version)
	fmt.Fprintf(w, "Template set: %s\n", spec.TemplateSet)
	fmt.Fprintf(w, "Status: %s\n", status(spec))
	fmt.Fprintf(w, "\nDescription:\n  %s\n", spec.Description)
	fmt.Fprintf(w, "\nCapabilities:\n")
	for _, c := range capabilities(spec) {
		fmt.Fprintf(w, "  - %s\n", c)
	}
	fmt.Fprintf(w, "\nFile Extensions:\n")
	for _, ext := range spec.FileExtensions {
		fmt.Fprintf(w, "  - %s\n", ext)
	}
	return nil
}

func status(spec *backends.BackendSpec) string {
	switch {
	case !spec.Enabled:
		return "disabled"
	case spec.Experimental:
		return "experimental"
	case spec.Stable:
		return "stable"
	default:
		return "unstable"
	}
}

func capabilities(spec *backends.BackendSpec) []string {
	var out []string
	for _, c := range []string{backends.CapabilityOptionalGetters, backends.CapabilityDecimalLogicalType} {
		if spec.Supports(c) {
			out = append(out, c)
		}
	}
	return out
}
