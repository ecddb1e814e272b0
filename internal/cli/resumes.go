package cli

import (
	"fmt"

	"jobscout/internal/types"

	"github.com/spf13/cobra"
)

var resumesCmd = &cobra.Command{
	Use:   "resumes",
	Short: "Manage your resume history",
}

var resumesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all resumes, including deleted ones",
	RunE:  runResumesList,
}

var resumesRemote bool

var resumesDeleteCmd = &cobra.Command{
	Use:   "delete [resume-id]",
	Short: "Soft-delete a resume",
	Long: `Mark a resume as deleted. Deleted resumes stay in history with a
deletion marker; if the deleted resume was active, you will need to upload
or activate another one.`,
	Args: cobra.ExactArgs(1),
	RunE: runResumesDelete,
}

func init() {
	resumesListCmd.Flags().BoolVar(&resumesRemote, "remote", false, "List the backend's view instead of the local cache")
	resumesCmd.AddCommand(resumesListCmd)
	resumesCmd.AddCommand(resumesDeleteCmd)
}

func runResumesList(cmd *cobra.Command, args []string) error {
	application := getAppFromContext(cmd.Context())

	identity, err := application.CurrentUser()
	if err != nil {
		return err
	}

	var records []types.ResumeRecord
	if resumesRemote {
		records, err = application.Gateway.ListResumes(cmd.Context())
	} else {
		records, err = application.Cache.Resumes(cmd.Context(), identity.UID)
	}
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No resumes uploaded yet.")
		return nil
	}

	for _, record := range records {
		marker := " "
		switch {
		case record.IsDeleted:
			marker = "D"
		case record.IsActive:
			marker = "*"
		}
		fmt.Printf("%s %-36s  %-30s  %s\n", marker, record.ID, record.Filename,
			record.UploadedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Println("\n* active resume, D deleted")
	return nil
}

func runResumesDelete(cmd *cobra.Command, args []string) error {
	application := getAppFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	identity, err := application.CurrentUser()
	if err != nil {
		return err
	}

	if err := application.Cache.DeleteResume(cmd.Context(), identity.UID, args[0]); err != nil {
		return err
	}

	// Best-effort remote delete; the local record is authoritative.
	if err := application.Gateway.DeleteResume(cmd.Context(), args[0]); err != nil {
		logger.Warn("Remote resume delete failed", "resume_id", args[0], "error", err)
	}

	fmt.Printf("Resume %s deleted.\n", args[0])
	return nil
}
