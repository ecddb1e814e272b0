package cli

import (
	"fmt"

	"jobscout/internal/common"
	"jobscout/internal/types"

	"github.com/spf13/cobra"
)

var (
	authEmail       string
	authPassword    string
	authDisplayName string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a new account",
	Long: `Create a new account with the identity provider. Signing up does not
sign you in; run 'jobscout login' afterwards.`,
	RunE: runSignup,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the local session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE:  runWhoami,
}

var whoamiRemote bool

func init() {
	for _, cmd := range []*cobra.Command{signupCmd, loginCmd} {
		cmd.Flags().StringVarP(&authEmail, "email", "e", "", "Account email address")
		cmd.Flags().StringVarP(&authPassword, "password", "p", "", "Account password")
		_ = cmd.MarkFlagRequired("email")
		_ = cmd.MarkFlagRequired("password")
	}
	signupCmd.Flags().StringVar(&authDisplayName, "name", "", "Display name for the new account")
	whoamiCmd.Flags().BoolVar(&whoamiRemote, "remote", false, "Show the backend's profile instead of the local cache")
}

func runSignup(cmd *cobra.Command, args []string) error {
	application := getAppFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if err := common.ValidateCredentials(authEmail, authPassword); err != nil {
		return err
	}

	identity, err := application.Store.SignUp(cmd.Context(), authEmail, authPassword, authDisplayName)
	if err != nil {
		return err
	}

	logger.Info("Account created", "uid", identity.UID)
	fmt.Printf("Account created for %s. Run 'jobscout login' to sign in.\n", identity.Email)
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	application := getAppFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if err := common.ValidateCredentials(authEmail, authPassword); err != nil {
		return err
	}

	identity, err := application.Store.SignIn(cmd.Context(), authEmail, authPassword)
	if err != nil {
		return err
	}

	prof, err := application.OnboardUser(cmd.Context())
	if err != nil {
		logger.Warn("Post-sign-in profile check failed", "error", err)
	}

	fmt.Printf("Signed in as %s\n", identity.Email)
	if prof != nil && !prof.ProfileCompleted {
		fmt.Println("No active resume on file. Run 'jobscout upload <file>' to get started.")
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	application := getAppFromContext(cmd.Context())

	if application.Store.GetCurrentUser() == nil {
		fmt.Println("Not signed in.")
		return nil
	}

	application.SignOut(cmd.Context())
	fmt.Println("Signed out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	application := getAppFromContext(cmd.Context())

	identity, err := application.CurrentUser()
	if err != nil {
		return err
	}

	fmt.Printf("Signed in as %s", identity.Email)
	if identity.DisplayName != "" {
		fmt.Printf(" (%s)", identity.DisplayName)
	}
	fmt.Println()

	var prof *types.UserProfile
	if whoamiRemote {
		prof, err = application.Gateway.GetProfile(cmd.Context())
	} else {
		prof, err = application.Cache.Profile(cmd.Context(), identity.UID)
	}
	if err == nil && prof != nil {
		if prof.ProfileCompleted {
			fmt.Println("Profile: complete (active resume on file)")
		} else {
			fmt.Println("Profile: incomplete (no active resume)")
		}
	}
	return nil
}
