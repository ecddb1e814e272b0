package cli

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"jobscout/internal/common"
	"jobscout/internal/pipeline"
	"jobscout/internal/types"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [resume-file]",
	Short: "Upload a resume and make it the active one",
	Long: `Upload a resume for server-side parsing. The uploaded resume becomes
your single active resume; any previous one is kept in history but
deactivated. Staged search results and analyses are cleared because they
no longer match the new resume.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func runUpload(cmd *cobra.Command, args []string) error {
	application := getAppFromContext(cmd.Context())
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	identity, err := application.CurrentUser()
	if err != nil {
		return err
	}

	fp := common.NewFileProcessor(logger)
	content, err := fp.ValidateResumeFile(args[0], &cfg.App)
	if err != nil {
		return err
	}

	filename := filepath.Base(args[0])
	logger.Info("Uploading resume", "filename", filename, "size", common.FormatFileSize(int64(len(content))))

	resumeID, info, err := application.Gateway.UploadResume(cmd.Context(), filename, bytes.NewReader(content))
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	record, err := application.Cache.SaveResume(cmd.Context(), identity.UID, &types.ResumeRecord{
		ID:         resumeID,
		Filename:   filename,
		UploadedAt: now,
		Info:       info,
	})
	if err != nil {
		return err
	}

	// A new resume invalidates every staged downstream result.
	state, err := application.LoadPipeline(cmd.Context())
	if err != nil {
		return err
	}
	state.Reset(pipeline.ResetNewResume)
	state.ResumeID = record.ID
	state.ResumeInfo = record.Info
	if err := application.SavePipeline(cmd.Context(), state); err != nil {
		return err
	}

	// Best-effort: mirror the active resume onto the remote profile so other
	// devices see it. The local record is authoritative either way.
	if _, err := application.Gateway.UpdateProfile(cmd.Context(), map[string]any{
		"resume_id":         record.ID,
		"profile_completed": true,
	}); err != nil {
		logger.Warn("Remote profile update failed", "resume_id", record.ID, "error", err)
	}

	fmt.Printf("Resume %s uploaded and set active (id %s).\n", filename, record.ID)
	if info != nil && len(info.ExtractedSkills) > 0 {
		fmt.Printf("Extracted %d skills.\n", len(info.ExtractedSkills))
	}
	return nil
}
