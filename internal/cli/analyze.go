package cli

import (
	"context"
	"fmt"

	"jobscout/internal/common"
	"jobscout/internal/pipeline"
	"jobscout/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a skill gap analysis against the staged jobs",
	Long: `Analyze your active resume against the staged search results. Only the
top jobs are analyzed; the limit is configurable. Results are staged for
the report step.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if analyzeOutput.OutputFormat == "" {
			analyzeOutput.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(analyzeOutput.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAnalyze,
}

var analyzeOutput common.CommandConfig

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeOutput.OutputFormat, "format", "", "Output format: json or text")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	application := getAppFromContext(cmd.Context())
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	state, err := application.LoadPipeline(cmd.Context())
	if err != nil {
		return err
	}

	warn, denial := stageWarn()
	if !state.Navigate(pipeline.TabAnalyze, warn) {
		return fmt.Errorf("%s", *denial)
	}

	subset := state.Jobs
	if limit := cfg.App.AnalysisJobLimit; limit > 0 && len(subset) > limit {
		logger.Info("Limiting analysis to top jobs", "total", len(subset), "limit", limit)
		subset = subset[:limit]
	}

	analyses, status, err := pipeline.RunStage(cmd.Context(), "analyze", newTerminalProgress(), logger,
		func(ctx context.Context) ([]types.JobAnalysis, error) {
			return application.Gateway.AnalyzeSkills(ctx, state.ResumeID, subset)
		},
		func(a []types.JobAnalysis) bool { return len(a) == 0 },
	)
	if err != nil {
		return err
	}
	if status == pipeline.StatusEmpty {
		fmt.Println("The analysis returned no results.")
		return nil
	}

	// Analyses are positional against the job subset; carry the job
	// identity onto each result for display.
	for i := range analyses {
		if i < len(subset) {
			if analyses[i].JobTitle == "" {
				analyses[i].JobTitle = subset[i].Title
			}
			if analyses[i].Company == "" {
				analyses[i].Company = subset[i].Company
			}
		}
	}

	state.Analyses = analyses
	state.Report = nil
	if err := application.SavePipeline(cmd.Context(), state); err != nil {
		return err
	}

	handler := common.NewOutputHandler(logger)
	return handler.HandleOutput(analyses, analyzeOutput)
}
