package cli

import (
	"context"
	"fmt"
	"strings"

	"jobscout/internal/common"
	"jobscout/internal/pipeline"
	"jobscout/internal/types"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the comprehensive career report",
	Long: `Aggregate the staged skill gap analyses into one report with summary
metrics, skill frequencies, and an action plan. The report is staged for
export.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if reportOutput.OutputFormat == "" {
			reportOutput.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(reportOutput.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runReport,
}

var reportOutput common.CommandConfig

func init() {
	reportCmd.Flags().StringVarP(&reportOutput.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	reportCmd.Flags().StringVar(&reportOutput.OutputFormat, "format", "", "Output format: json, csv, html, or text")
}

func runReport(cmd *cobra.Command, args []string) error {
	application := getAppFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	state, err := application.LoadPipeline(cmd.Context())
	if err != nil {
		return err
	}

	warn, denial := stageWarn()
	if !state.Navigate(pipeline.TabReport, warn) {
		return fmt.Errorf("%s", *denial)
	}

	report, _, err := pipeline.RunStage(cmd.Context(), "report", newTerminalProgress(), logger,
		func(ctx context.Context) (*types.OverallReport, error) {
			return application.Gateway.GenerateReport(ctx, state.Analyses)
		},
		nil,
	)
	if err != nil {
		return err
	}

	state.Report = report
	if err := application.SavePipeline(cmd.Context(), state); err != nil {
		return err
	}

	handler := common.NewOutputHandler(logger)
	return handler.HandleOutput(report, reportOutput)
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the staged report to a file",
	Long: `Write the most recently generated report to a file. The format is taken
from the file extension unless --format is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var exportFormat string

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Output format: json, csv, html, or text")
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}

func formatFromFilename(filename string) string {
	switch {
	case hasSuffixFold(filename, ".json"):
		return "json"
	case hasSuffixFold(filename, ".csv"):
		return "csv"
	case hasSuffixFold(filename, ".html"), hasSuffixFold(filename, ".htm"):
		return "html"
	default:
		return "text"
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	application := getAppFromContext(cmd.Context())
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	state, err := application.LoadPipeline(cmd.Context())
	if err != nil {
		return err
	}
	if state.Report == nil {
		return fmt.Errorf("no report staged; run 'jobscout report' first")
	}

	format := exportFormat
	if format == "" {
		format = formatFromFilename(args[0])
	}
	if err := common.ValidateOutputFormat(format, cfg.App.SupportedFormats); err != nil {
		return err
	}

	handler := common.NewOutputHandler(logger)
	if err := handler.HandleOutput(state.Report, common.CommandConfig{
		OutputFile:   args[0],
		OutputFormat: format,
	}); err != nil {
		return err
	}

	fmt.Printf("Report exported to %s (%s).\n", args[0], format)
	return nil
}
