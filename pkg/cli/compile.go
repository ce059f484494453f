package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/platinummonkey/avrobuild/pkg/codegen/incremental"
	"github.com/spf13/cobra"
)

const (
	formatHuman = "human"
	formatJSON  = "json"
)

// CompileReport summarizes one build
type CompileReport struct {
	RunID        string   `json:"runId"`
	State        string   `json:"state"`
	Compilations int      `json:"compilations"`
	Extracted    int      `json:"extracted"`
	Files        []string `json:"files"`
	Removed      []string `json:"removed,omitempty"`
	DurationMs   int64    `json:"durationMs"`
}

func newCompileCommand(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile schemas into Go sources",
		Long: `Extract dependency archives, then compile every schema file when any
of them changed since the last successful build.

Generated files whose schema no longer exists are removed. Hand-written
files in the output directory are never touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, opts, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatHuman, "Output format (json, human)")
	return cmd
}

func runCompile(cmd *cobra.Command, opts *options, format string) error {
	s, err := opts.open(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	driver, err := s.newDriver(false)
	if err != nil {
		return err
	}

	result, err := driver.Run(cmd.Context())
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), newCompileReport(result), format)
}

func newCompileReport(result *incremental.Result) *CompileReport {
	return &CompileReport{
		RunID:        result.RunID,
		State:        string(result.State),
		Compilations: result.Compilations,
		Extracted:    len(result.Extracted),
		Files:        result.Files,
		Removed:      result.Removed,
		DurationMs:   result.Duration.Milliseconds(),
	}
}

func printReport(w io.Writer, report *CompileReport, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case formatHuman:
		fmt.Fprintf(w, "Build %s (%s)\n", report.State, report.RunID)
		fmt.Fprintf(w, "  Compilations:    %d\n", report.Compilations)
		fmt.Fprintf(w, "  Extracted files: %d\n", report.Extracted)
		fmt.Fprintf(w, "  Generated files: %d\n", len(report.Files))
		if len(report.Removed) > 0 {
			fmt.Fprintf(w, "  Removed files:   %d\n", len(report.Removed))
		}
		fmt.Fprintf(w, "  Duration:        %dms\n", report.DurationMs)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
