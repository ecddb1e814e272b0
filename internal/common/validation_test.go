package common

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"jobscout/internal/config"
	"jobscout/internal/errors"
)

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectError      bool
	}{
		{
			name:             "valid format - json",
			format:           "json",
			supportedFormats: []string{"json", "csv", "html", "text"},
			expectError:      false,
		},
		{
			name:             "valid format - csv",
			format:           "csv",
			supportedFormats: []string{"json", "csv", "html", "text"},
			expectError:      false,
		},
		{
			name:             "invalid format - yaml",
			format:           "yaml",
			supportedFormats: []string{"json", "csv", "html", "text"},
			expectError:      true,
		},
		{
			name:             "case sensitive - JSON uppercase",
			format:           "JSON",
			supportedFormats: []string{"json", "csv", "html", "text"},
			expectError:      true,
		},
		{
			name:        "no restrictions configured",
			format:      "anything",
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)
			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError && !errors.IsType(err, errors.ErrorTypeValidation) {
				t.Errorf("error should be a validation error, got %v", err)
			}
		})
	}
}

func TestValidateSearchQuery(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		expectError bool
	}{
		{name: "normal query", query: "golang developer"},
		{name: "empty", query: "", expectError: true},
		{name: "whitespace only", query: "   \t ", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSearchQuery(tt.query)
			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name        string
		email       string
		password    string
		expectError bool
	}{
		{name: "valid", email: "user@example.com", password: "secret"},
		{name: "empty email", email: "", password: "secret", expectError: true},
		{name: "not an email", email: "user", password: "secret", expectError: true},
		{name: "empty password", email: "user@example.com", password: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(tt.email, tt.password)
			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func testAppConfig() *config.AppConfig {
	return &config.AppConfig{
		MaxResumeSize:      1024,
		AllowedResumeTypes: []string{".pdf", ".docx"},
	}
}

func writeTempResume(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestValidateResumeFile(t *testing.T) {
	fp := NewFileProcessor(nil)
	cfg := testAppConfig()

	tests := []struct {
		name     string
		filename string
		content  []byte
		wantCode string
	}{
		{
			name:     "valid pdf",
			filename: "resume.pdf",
			content:  []byte("%PDF-1.7 fake body"),
		},
		{
			name:     "valid docx",
			filename: "resume.docx",
			content:  []byte{0x50, 0x4B, 0x03, 0x04, 0x00},
		},
		{
			name:     "wrong extension",
			filename: "resume.txt",
			content:  []byte("plain text"),
			wantCode: errors.ErrCodeInvalidFileType,
		},
		{
			name:     "pdf extension with bogus content",
			filename: "resume.pdf",
			content:  []byte("not actually a pdf"),
			wantCode: errors.ErrCodeInvalidFileType,
		},
		{
			name:     "too large",
			filename: "resume.pdf",
			content:  append([]byte("%PDF"), make([]byte, 2048)...),
			wantCode: errors.ErrCodeFileTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempResume(t, tt.filename, tt.content)
			content, err := fp.ValidateResumeFile(path, cfg)

			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(content) != len(tt.content) {
					t.Errorf("content length = %d, want %d", len(content), len(tt.content))
				}
				return
			}

			var appErr *errors.AppError
			if !stderrors.As(err, &appErr) {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", appErr.Code, tt.wantCode)
			}
		})
	}
}

func TestValidateResumeFileMissing(t *testing.T) {
	fp := NewFileProcessor(nil)
	_, err := fp.ValidateResumeFile(filepath.Join(t.TempDir(), "nope.pdf"), testAppConfig())

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != errors.ErrCodeFileNotFound {
		t.Errorf("code = %q, want %q", appErr.Code, errors.ErrCodeFileNotFound)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{10 * 1024 * 1024, "10.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatFileSize(tt.size); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}
