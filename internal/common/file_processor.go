package common

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"jobscout/internal/config"
	"jobscout/internal/errors"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger *errors.Logger
}

// NewFileProcessor creates a new file processor instance
func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			// Log the error but don't override the main operation result
			if fp.logger != nil {
				fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
			}
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return content, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, []byte(content), 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return errors.NewValidationError("INVALID_OUTPUT_FILE",
					fmt.Sprintf("Cannot create directory: %s", dir), err)
			}
		}
	}

	return nil
}

// resumeSignatures maps resume extensions to the leading bytes the file must
// carry. DOCX files are ZIP archives, so they start with the PK header.
var resumeSignatures = map[string][]byte{
	".pdf":  []byte("%PDF"),
	".docx": {0x50, 0x4B, 0x03, 0x04},
}

// ValidateResumeFile checks that a resume exists, has an accepted extension,
// fits the size limit, and actually starts with the bytes its extension
// promises. It returns the file content ready for upload.
func (fp *FileProcessor) ValidateResumeFile(filename string, cfg *config.AppConfig) ([]byte, error) {
	if filename == "" {
		return nil, errors.NewValidationError(errors.ErrCodeFileNotFound,
			"Resume filename cannot be empty", nil)
	}

	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot access file: %s", filename), err)
	}
	if info.IsDir() {
		return nil, errors.NewValidationError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Path is a directory, not a file: %s", filename), nil)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !extensionAllowed(ext, cfg.AllowedResumeTypes) {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFileType,
			fmt.Sprintf("Unsupported resume type '%s'. Allowed types: %v",
				ext, cfg.AllowedResumeTypes), nil)
	}

	if cfg.MaxResumeSize > 0 && info.Size() > cfg.MaxResumeSize {
		return nil, errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("Resume is %s, the limit is %s",
				FormatFileSize(info.Size()), FormatFileSize(cfg.MaxResumeSize)), nil)
	}

	content, err := fp.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	if signature, ok := resumeSignatures[ext]; ok && !bytes.HasPrefix(content, signature) {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFileType,
			fmt.Sprintf("File does not look like a %s document: %s",
				strings.TrimPrefix(ext, "."), filename), nil)
	}

	return content, nil
}

func extensionAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if !strings.HasPrefix(a, ".") {
			a = "." + a
		}
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
