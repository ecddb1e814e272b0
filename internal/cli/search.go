package cli

import (
	"context"
	"fmt"
	"strings"

	"jobscout/internal/app"
	"jobscout/internal/common"
	"jobscout/internal/gateway"
	"jobscout/internal/pipeline"
	"jobscout/internal/types"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search for jobs matching a query",
	Long: `Search the job index. Results are staged for the analyze step.
An empty result set is a normal outcome, not an error.`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if searchOutput.OutputFormat == "" {
			searchOutput.OutputFormat = cfg.App.DefaultFormat
		}
		if searchNumJobs == 0 {
			searchNumJobs = cfg.App.DefaultNumJobs
		}
		return common.ValidateOutputFormat(searchOutput.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runSearch,
}

var (
	searchOutput   common.CommandConfig
	searchLocation string
	searchNumJobs  int
)

func init() {
	searchCmd.Flags().StringVarP(&searchOutput.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	searchCmd.Flags().StringVar(&searchOutput.OutputFormat, "format", "", "Output format: json or text")
	searchCmd.Flags().StringVarP(&searchLocation, "location", "l", "", "Preferred job location")
	searchCmd.Flags().IntVarP(&searchNumJobs, "num", "n", 0, "Number of jobs to fetch")
}

// stageWarn captures the gating warning so it surfaces once, as the
// command error.
func stageWarn() (func(string), *string) {
	var message string
	return func(msg string) { message = msg }, &message
}

// newTerminalProgress reports cosmetic progress on one terminal line.
func newTerminalProgress() *pipeline.Progress {
	return pipeline.NewProgress(func(percent int) {
		fmt.Printf("\r%3d%%", percent)
		if percent >= 100 {
			fmt.Println()
		}
	})
}

// checkKnownLocation warns when the requested location is not in the
// backend's city list. Advisory only; the search proceeds either way, and a
// failed lookup stays silent.
func checkKnownLocation(ctx context.Context, application *app.App, location string) {
	if location == "" {
		return
	}

	cities, err := application.Gateway.Cities(ctx, application.Config.App.DefaultCountry)
	if err != nil || cities == nil {
		return
	}
	for _, city := range cities.Cities {
		if strings.EqualFold(city, location) {
			return
		}
	}
	fmt.Printf("Note: %q is not a known city in %s; results may be limited.\n",
		location, cities.Country)
}

func runSearch(cmd *cobra.Command, args []string) error {
	application := getAppFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	query := strings.Join(args, " ")
	if err := common.ValidateSearchQuery(query); err != nil {
		return err
	}

	state, err := application.LoadPipeline(cmd.Context())
	if err != nil {
		return err
	}

	warn, denial := stageWarn()
	if !state.Navigate(pipeline.TabSearch, warn) {
		return fmt.Errorf("%s", *denial)
	}

	checkKnownLocation(cmd.Context(), application, searchLocation)

	result, status, err := pipeline.RunStage(cmd.Context(), "search", newTerminalProgress(), logger,
		func(ctx context.Context) (*gateway.SearchResult, error) {
			return application.Gateway.SearchJobs(ctx, query, searchLocation, searchNumJobs)
		},
		func(r *gateway.SearchResult) bool { return r == nil || len(r.Jobs) == 0 },
	)
	if err != nil {
		return err
	}

	if status == pipeline.StatusEmpty {
		fmt.Println("No jobs matched your query. Try different keywords or a broader location.")
		return nil
	}

	state.Jobs = result.Jobs
	state.QueryID = result.QueryID
	// Earlier analyses no longer line up with the new result set.
	state.Analyses = nil
	state.Report = nil
	if err := application.SavePipeline(cmd.Context(), state); err != nil {
		return err
	}

	handler := common.NewOutputHandler(logger)
	return handler.HandleOutput(result.Jobs, searchOutput)
}

var similarCmd = &cobra.Command{
	Use:   "similar",
	Short: "Find jobs similar to your active resume",
	Long: `Ask the backend for jobs ranked by similarity to your active resume,
reusing the query context from your last search when available.`,
	Args: cobra.NoArgs,
	RunE: runSimilar,
}

var similarTopK int

func init() {
	similarCmd.Flags().IntVarP(&similarTopK, "top", "k", 5, "Number of similar jobs to fetch")
}

func runSimilar(cmd *cobra.Command, args []string) error {
	application := getAppFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	state, err := application.LoadPipeline(cmd.Context())
	if err != nil {
		return err
	}
	if state.ResumeID == "" {
		return fmt.Errorf("upload a resume before requesting similar jobs")
	}

	result, status, err := pipeline.RunStage(cmd.Context(), "similar", newTerminalProgress(), logger,
		func(ctx context.Context) (*gateway.SearchResult, error) {
			return application.Gateway.SimilarJobs(ctx, state.ResumeID, state.QueryID, similarTopK)
		},
		func(r *gateway.SearchResult) bool { return r == nil || len(r.Jobs) == 0 },
	)
	if err != nil {
		return err
	}
	if status == pipeline.StatusEmpty {
		fmt.Println("No similar jobs found.")
		return nil
	}

	handler := common.NewOutputHandler(logger)
	return handler.HandleOutput(result.Jobs, common.CommandConfig{OutputFormat: "text"})
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest search keywords from your active resume",
	Args:  cobra.NoArgs,
	RunE:  runSuggest,
}

func runSuggest(cmd *cobra.Command, args []string) error {
	application := getAppFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	identity, err := application.CurrentUser()
	if err != nil {
		return err
	}

	active, err := application.Cache.ActiveResume(cmd.Context(), identity.UID)
	if err != nil {
		return err
	}
	if active == nil {
		return fmt.Errorf("upload a resume before requesting suggestions")
	}

	suggestions, _, err := pipeline.RunStage(cmd.Context(), "suggest", newTerminalProgress(), logger,
		func(ctx context.Context) (*types.JobSuggestions, error) {
			return application.Gateway.SuggestJobs(ctx, active.Info)
		},
		func(s *types.JobSuggestions) bool { return s == nil || len(s.Suggestions) == 0 },
	)
	if err != nil {
		return err
	}

	if suggestions == nil || len(suggestions.Suggestions) == 0 {
		fmt.Println("No suggestions available for this resume.")
		return nil
	}

	fmt.Println("Suggested searches:")
	for _, s := range suggestions.Suggestions {
		fmt.Printf("  - %s\n", s)
	}
	return nil
}
