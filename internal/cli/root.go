package cli

import (
	"context"

	"jobscout/internal/app"
	"jobscout/internal/config"
	"jobscout/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}
type appKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}
var appKey = appKeyType{}

var rootCmd = &cobra.Command{
	Use:   "jobscout",
	Short: "A CLI client for AI-powered job recommendations",
	Long: `Jobscout is a command-line client for an AI job recommendation service.
Upload a resume, search for matching jobs, run a skill gap analysis against
the best matches, and export a comprehensive career report. All AI work
happens server-side; jobscout keeps your session, profile, and staged
pipeline state.`,
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	application, err := app.New(cfg, logger, Version)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(context.Background()); err != nil {
			logger.Warn("Shutdown incomplete", "error", err)
		}
	}()

	// Attach the config, logger, and app to the context, making them
	// available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	ctx = context.WithValue(ctx, appKey, application)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// getAppFromContext is a helper function to get the application from context
func getAppFromContext(ctx context.Context) *app.App {
	if application, ok := ctx.Value(appKey).(*app.App); ok {
		return application
	}
	panic("app not found in context") // Should not happen if properly initialized
}

func init() {
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(resumesCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(citiesCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(similarCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(versionCmd)
}
