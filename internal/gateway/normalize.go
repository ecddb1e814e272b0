package gateway

import (
	"strconv"
	"strings"

	"jobscout/internal/types"
)

// The backend's wire shapes predate the current schema and still carry
// duplicated or loosely typed fields. Everything is normalized here, at the
// boundary, so the rest of the client only ever sees canonical types.

// wireJob mirrors a job object as the backend actually sends it: the company
// appears under either "company_name" or the older "company", and the
// similarity score may arrive as a number or a numeric string.
type wireJob struct {
	Title           string `json:"title"`
	Company         string `json:"company"`
	CompanyName     string `json:"company_name"`
	Location        string `json:"location"`
	Description     string `json:"description"`
	ApplyLink       string `json:"apply_link"`
	SimilarityScore any    `json:"similarity_score"`
}

// wireAssessment carries the match percentage as the backend sends it:
// sometimes "76%", sometimes 76, sometimes absent.
type wireAssessment struct {
	OverallMatchPercentage any      `json:"overall_match_percentage"`
	Strengths              []string `json:"strengths"`
	Concerns               []string `json:"concerns"`
	InterviewPrepTips      []string `json:"interview_preparation_tips"`
}

// wireAnalysis mirrors one skill-gap analysis on the wire.
type wireAnalysis struct {
	JobTitle           string                        `json:"job_title"`
	Company            string                        `json:"company_name"`
	SkillGapAnalysis   types.SkillGapAnalysis        `json:"skill_gap_analysis"`
	Recommendations    types.AnalysisRecommendations `json:"recommendations"`
	JobMatchAssessment wireAssessment                `json:"job_match_assessment"`
}

// CoerceScore normalizes a similarity score that may arrive as a float, a
// numeric string, or be absent entirely. Unparseable values collapse to 0.
func CoerceScore(v any) float64 {
	switch s := v.(type) {
	case nil:
		return 0
	case float64:
		return s
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// CoerceMatch normalizes a match percentage that may arrive as a bare number,
// a string like "76%", or be absent. Unparseable values collapse to 0.
func CoerceMatch(v any) int {
	switch s := v.(type) {
	case nil:
		return 0
	case float64:
		return int(s)
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(s), "%")
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0
		}
		return int(f)
	default:
		return 0
	}
}

// normalizeJob resolves the company-name alias (preferring company_name) and
// coerces the similarity score.
func normalizeJob(w wireJob) types.Job {
	company := w.CompanyName
	if company == "" {
		company = w.Company
	}
	return types.Job{
		Title:           w.Title,
		Company:         company,
		Location:        w.Location,
		Description:     w.Description,
		ApplyLink:       w.ApplyLink,
		SimilarityScore: CoerceScore(w.SimilarityScore),
	}
}

func normalizeJobs(ws []wireJob) []types.Job {
	jobs := make([]types.Job, 0, len(ws))
	for _, w := range ws {
		jobs = append(jobs, normalizeJob(w))
	}
	return jobs
}

func normalizeAnalysis(w wireAnalysis) types.JobAnalysis {
	return types.JobAnalysis{
		JobTitle:         w.JobTitle,
		Company:          w.Company,
		SkillGapAnalysis: w.SkillGapAnalysis,
		Recommendations:  w.Recommendations,
		JobMatchAssessment: types.JobMatchAssessment{
			OverallMatchPercentage: CoerceMatch(w.JobMatchAssessment.OverallMatchPercentage),
			Strengths:              w.JobMatchAssessment.Strengths,
			Concerns:               w.JobMatchAssessment.Concerns,
			InterviewPrepTips:      w.JobMatchAssessment.InterviewPrepTips,
		},
	}
}

func normalizeAnalyses(ws []wireAnalysis) []types.JobAnalysis {
	analyses := make([]types.JobAnalysis, 0, len(ws))
	for _, w := range ws {
		analyses = append(analyses, normalizeAnalysis(w))
	}
	return analyses
}
