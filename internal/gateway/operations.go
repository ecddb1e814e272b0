package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"jobscout/internal/errors"
	"jobscout/internal/types"
)

// SearchResult is a page of ranked jobs plus the query handle the backend
// issues for follow-up similarity lookups.
type SearchResult struct {
	Jobs       []types.Job
	TotalCount int
	QueryID    string
	Message    string
}

// Health checks backend reachability. Does not require a signed-in user.
func (c *Client) Health(ctx context.Context) (*types.HealthStatus, error) {
	body, err := c.do(ctx, request{
		operation: "health",
		method:    http.MethodGet,
		path:      "/health",
		client:    c.quick,
	})
	if err != nil {
		return nil, err
	}

	var status types.HealthStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, decodeError("health", err)
	}
	return &status, nil
}

// Cities lists the known cities for a country. Does not require a signed-in
// user; the search flow uses it to validate the location input.
func (c *Client) Cities(ctx context.Context, country string) (*types.CityList, error) {
	body, err := c.do(ctx, request{
		operation: "cities",
		method:    http.MethodGet,
		path:      "/cities/" + url.PathEscape(country),
		client:    c.quick,
	})
	if err != nil {
		return nil, err
	}

	var cities types.CityList
	if err := json.Unmarshal(body, &cities); err != nil {
		return nil, decodeError("cities", err)
	}
	return &cities, nil
}

// UploadResume sends a resume file for server-side parsing and returns the
// stored resume id with the extracted payload.
func (c *Client) UploadResume(ctx context.Context, filename string, file io.Reader) (string, *types.ResumeInfo, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", nil, errors.NewInternalError("ENCODE_FAILED", "failed to build upload form", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read resume file", err)
	}
	if err := writer.Close(); err != nil {
		return "", nil, errors.NewInternalError("ENCODE_FAILED", "failed to finalize upload form", err)
	}

	body, err := c.do(ctx, request{
		operation:   "upload",
		method:      http.MethodPost,
		path:        "/upload-resume",
		body:        &buf,
		contentType: writer.FormDataContentType(),
		authed:      true,
		client:      c.long,
	})
	c.recordBusiness(ctx, "resume_uploaded", err)
	if err != nil {
		return "", nil, err
	}

	var resp struct {
		ResumeID   string            `json:"resume_id"`
		ResumeInfo *types.ResumeInfo `json:"resume_info"`
		Message    string            `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", nil, decodeError("upload", err)
	}
	return resp.ResumeID, resp.ResumeInfo, nil
}

// SearchJobs runs a ranked job search. An empty job list is a valid outcome,
// not an error; callers surface it as a distinct no-results state.
func (c *Client) SearchJobs(ctx context.Context, query, location string, numJobs int) (*SearchResult, error) {
	payload := map[string]any{
		"job_query": query,
		"location":  location,
		"num_jobs":  numJobs,
	}

	ctx, cancel := deadlineFor(ctx, c.searchTimeout)
	defer cancel()

	body, err := c.searchBreaker.Execute(func() ([]byte, error) {
		return c.postJSON(ctx, "search", "/search-jobs", payload, c.long)
	})
	c.recordBusiness(ctx, "jobs_searched", err)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Jobs       []wireJob `json:"jobs"`
		TotalCount int       `json:"total_count"`
		QueryID    string    `json:"query_id"`
		Message    string    `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, decodeError("search", err)
	}

	return &SearchResult{
		Jobs:       normalizeJobs(resp.Jobs),
		TotalCount: resp.TotalCount,
		QueryID:    resp.QueryID,
		Message:    resp.Message,
	}, nil
}

// SuggestJobs asks the backend for search keywords derived from a parsed
// resume.
func (c *Client) SuggestJobs(ctx context.Context, info *types.ResumeInfo) (*types.JobSuggestions, error) {
	payload := map[string]any{"resume_info": info}

	body, err := c.postJSON(ctx, "suggest", "/suggest-jobs", payload, c.long)
	if err != nil {
		return nil, err
	}

	var suggestions types.JobSuggestions
	if err := json.Unmarshal(body, &suggestions); err != nil {
		return nil, decodeError("suggest", err)
	}
	return &suggestions, nil
}

// SimilarJobs fetches similarity-ranked jobs for a previously issued search.
func (c *Client) SimilarJobs(ctx context.Context, resumeID, queryID string, topK int) (*SearchResult, error) {
	path := fmt.Sprintf("/similar-jobs/%s?query_id=%s&top_k=%d",
		url.PathEscape(resumeID), url.QueryEscape(queryID), topK)

	ctx, cancel := deadlineFor(ctx, c.searchTimeout)
	defer cancel()

	body, err := c.searchBreaker.Execute(func() ([]byte, error) {
		return c.do(ctx, request{
			operation: "similar",
			method:    http.MethodGet,
			path:      path,
			authed:    true,
			client:    c.long,
		})
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		SimilarJobs []wireJob `json:"similar_jobs"`
		TotalCount  int       `json:"total_count"`
		Message     string    `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, decodeError("similar", err)
	}

	return &SearchResult{
		Jobs:       normalizeJobs(resp.SimilarJobs),
		TotalCount: resp.TotalCount,
		Message:    resp.Message,
	}, nil
}

// AnalyzeSkills requests a skill-gap analysis of the resume against the job
// subset. The backend analyzes at most the first analysisJobLimit ranked
// jobs, so the subset is truncated before the call.
func (c *Client) AnalyzeSkills(ctx context.Context, resumeID string, jobs []types.Job) ([]types.JobAnalysis, error) {
	if c.analysisJobLimit > 0 && len(jobs) > c.analysisJobLimit {
		jobs = jobs[:c.analysisJobLimit]
	}

	payload := map[string]any{
		"resume_id": resumeID,
		"jobs":      jobs,
	}

	ctx, cancel := deadlineFor(ctx, c.analyzeTimeout)
	defer cancel()

	body, err := c.analyzeBreaker.Execute(func() ([]byte, error) {
		return c.postJSON(ctx, "analyze", "/analyze-skills", payload, c.long)
	})
	c.recordBusiness(ctx, "jobs_analyzed", err)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Analyses []wireAnalysis `json:"analyses"`
		Message  string         `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, decodeError("analyze", err)
	}

	return normalizeAnalyses(resp.Analyses), nil
}

// GenerateReport aggregates a set of analyses into an overall report.
func (c *Client) GenerateReport(ctx context.Context, analyses []types.JobAnalysis) (*types.OverallReport, error) {
	payload := map[string]any{"analyses": analyses}

	ctx, cancel := deadlineFor(ctx, c.reportTimeout)
	defer cancel()

	body, err := c.reportBreaker.Execute(func() ([]byte, error) {
		return c.postJSON(ctx, "report", "/generate-report", payload, c.long)
	})
	c.recordBusiness(ctx, "report_generated", err)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Report  *types.OverallReport `json:"report"`
		Message string               `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, decodeError("report", err)
	}
	if resp.Report == nil {
		return nil, errors.NewBackendError(errors.ErrCodeBackendDetail,
			"The service returned no report.", nil)
	}
	return resp.Report, nil
}

// GetProfile reads the remote profile document for the signed-in user.
func (c *Client) GetProfile(ctx context.Context) (*types.UserProfile, error) {
	body, err := c.do(ctx, request{
		operation: "profile",
		method:    http.MethodGet,
		path:      "/user/profile",
		authed:    true,
		client:    c.quick,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Success bool               `json:"success"`
		Profile *types.UserProfile `json:"profile"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, decodeError("profile", err)
	}
	return resp.Profile, nil
}

// UpdateProfile applies a partial update to the remote profile document.
func (c *Client) UpdateProfile(ctx context.Context, patch map[string]any) (*types.UserProfile, error) {
	body, err := c.postJSON(ctx, "profile", "/user/profile", patch, c.quick)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Success bool               `json:"success"`
		Profile *types.UserProfile `json:"profile"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, decodeError("profile", err)
	}
	return resp.Profile, nil
}

// ListResumes returns the user's stored resumes, including soft-deleted ones.
func (c *Client) ListResumes(ctx context.Context) ([]types.ResumeRecord, error) {
	body, err := c.do(ctx, request{
		operation: "resumes",
		method:    http.MethodGet,
		path:      "/user/resumes",
		authed:    true,
		client:    c.quick,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Resumes []types.ResumeRecord `json:"resumes"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, decodeError("resumes", err)
	}
	return resp.Resumes, nil
}

// DeleteResume soft-deletes a stored resume on the backend.
func (c *Client) DeleteResume(ctx context.Context, resumeID string) error {
	body, err := c.do(ctx, request{
		operation: "resumes",
		method:    http.MethodDelete,
		path:      "/user/resume/" + url.PathEscape(resumeID),
		authed:    true,
		client:    c.quick,
	})
	if err != nil {
		return err
	}

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return decodeError("resumes", err)
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "The service could not delete the resume."
		}
		return errors.NewBackendError(errors.ErrCodeBackendDetail, msg, nil)
	}
	return nil
}

// GetSession reads the backend's view of the current session.
func (c *Client) GetSession(ctx context.Context) (map[string]any, error) {
	body, err := c.do(ctx, request{
		operation: "session",
		method:    http.MethodGet,
		path:      "/session",
		authed:    true,
		client:    c.quick,
	})
	if err != nil {
		return nil, err
	}

	var session map[string]any
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, decodeError("session", err)
	}
	return session, nil
}

// ClearSession discards the backend's view of the current session. Called on
// logout; failures are non-fatal for the local sign-out.
func (c *Client) ClearSession(ctx context.Context) error {
	_, err := c.do(ctx, request{
		operation: "session",
		method:    http.MethodDelete,
		path:      "/session",
		authed:    true,
		client:    c.quick,
	})
	return err
}

func decodeError(operation string, err error) error {
	return errors.NewBackendError(errors.ErrCodeBackendDetail,
		"The service returned an unreadable response.", err).
		WithContext("operation", operation)
}
