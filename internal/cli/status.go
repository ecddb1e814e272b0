package cli

import (
	"fmt"

	"jobscout/internal/pipeline"

	"github.com/spf13/cobra"
)

var citiesCmd = &cobra.Command{
	Use:   "cities [country]",
	Short: "List known job locations for a country",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCities,
}

func runCities(cmd *cobra.Command, args []string) error {
	application := getAppFromContext(cmd.Context())
	cfg := getConfigFromContext(cmd.Context())

	country := cfg.App.DefaultCountry
	if len(args) > 0 && args[0] != "" {
		country = args[0]
	}

	list, err := application.Gateway.Cities(cmd.Context(), country)
	if err != nil {
		return err
	}

	if len(list.Cities) == 0 {
		fmt.Printf("No known locations for %s.\n", country)
		return nil
	}

	fmt.Printf("Locations in %s:\n", list.Country)
	for _, city := range list.Cities {
		fmt.Printf("  %s\n", city)
	}
	return nil
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend reachability",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	application := getAppFromContext(cmd.Context())

	status, err := application.Gateway.Health(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Backend: %s\n", status.Status)
	if !status.ProcessorsInitialized {
		fmt.Println("Warning: backend processors are not initialized yet.")
	}
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session, pipeline, and client health",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	application := getAppFromContext(cmd.Context())

	identity := application.Store.GetCurrentUser()
	if identity == nil {
		fmt.Println("Session: signed out")
		return nil
	}
	fmt.Printf("Session: signed in as %s\n", identity.Email)

	state, err := application.LoadPipeline(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Pipeline stage: %s\n", state.CurrentTab)
	steps := []struct {
		name string
		done bool
	}{
		{"resume uploaded", state.ResumeID != ""},
		{"jobs staged", len(state.Jobs) > 0},
		{"analyses staged", len(state.Analyses) > 0},
		{"report staged", state.Report != nil},
	}
	for _, step := range steps {
		mark := " "
		if step.done {
			mark = "x"
		}
		fmt.Printf("  [%s] %s\n", mark, step.name)
	}

	// Best-effort: the local session can outlive the backend's view of it.
	if remote, err := application.Gateway.GetSession(cmd.Context()); err == nil {
		if active, ok := remote["active"].(bool); ok && !active {
			fmt.Println("Backend session: stale (sign in again to refresh)")
		} else {
			fmt.Println("Backend session: active")
		}
	}

	if stats := application.Gateway.BreakerStats(); len(stats) > 0 {
		fmt.Println("Circuit breakers:")
		for name, s := range stats {
			fmt.Printf("  %-10s %v\n", name, s)
		}
	}

	if next, ok := nextStep(state); ok {
		fmt.Printf("Next: %s\n", next)
	}
	return nil
}

func nextStep(state *pipeline.State) (string, bool) {
	switch {
	case state.ResumeID == "":
		return "jobscout upload <file>", true
	case len(state.Jobs) == 0:
		return "jobscout search <query>", true
	case len(state.Analyses) == 0:
		return "jobscout analyze", true
	case state.Report == nil:
		return "jobscout report", true
	default:
		return "jobscout export <file>", true
	}
}
