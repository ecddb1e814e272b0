package types

import "time"

// Identity is the authenticated user as reported by the identity provider.
// The client treats it as read-only.
type Identity struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

// ResumeInfo is the parsed resume payload produced by the backend. The
// client never interprets its contents beyond display.
type ResumeInfo struct {
	Name            string            `json:"name,omitempty"`
	Email           string            `json:"email,omitempty"`
	Phone           string            `json:"phone,omitempty"`
	Sections        map[string]string `json:"sections,omitempty"`
	ExtractedSkills []string          `json:"extracted_skills,omitempty"`
	Summary         string            `json:"summary,omitempty"`
}

// UserProfile is the per-user document mirrored from the profile store.
// ProfileCompleted is true exactly when both ResumeID and ResumeInfo are set.
type UserProfile struct {
	UID              string      `json:"uid"`
	DisplayName      string      `json:"displayName"`
	CreatedAt        time.Time   `json:"createdAt"`
	LastLogin        time.Time   `json:"lastLogin"`
	ProfileCompleted bool        `json:"profileCompleted"`
	ResumeID         string      `json:"resumeId,omitempty"`
	ResumeInfo       *ResumeInfo `json:"resumeInfo,omitempty"`
}

// ResumeRecord is one stored resume document. At most one record per user
// is active and not deleted at any time.
type ResumeRecord struct {
	ID           string      `json:"id"`
	UserID       string      `json:"userId"`
	Filename     string      `json:"filename"`
	UploadedAt   time.Time   `json:"uploadedAt"`
	LastModified time.Time   `json:"lastModified"`
	IsActive     bool        `json:"isActive"`
	IsDeleted    bool        `json:"isDeleted"`
	DeletedAt    *time.Time  `json:"deletedAt,omitempty"`
	Info         *ResumeInfo `json:"resumeInfo,omitempty"`
}

// Job is a single search result or recommendation. Company carries the
// canonical company name after wire normalization.
type Job struct {
	Title           string  `json:"title"`
	Company         string  `json:"company_name"`
	Location        string  `json:"location"`
	Description     string  `json:"description"`
	ApplyLink       string  `json:"apply_link,omitempty"`
	SimilarityScore float64 `json:"similarity_score"`
}

// SkillGapAnalysis lists skills matched and missed against one job.
type SkillGapAnalysis struct {
	MatchingSkills     []string `json:"matching_skills"`
	MissingSkills      []string `json:"missing_skills"`
	SkillLevelGaps     []string `json:"skill_level_gaps,omitempty"`
	TransferableSkills []string `json:"transferable_skills,omitempty"`
}

// AnalysisRecommendations holds the advisor suggestions for one job.
type AnalysisRecommendations struct {
	PrioritySkillsToLearn []string `json:"priority_skills_to_learn"`
	LearningResources     []string `json:"learning_resources,omitempty"`
	ProjectSuggestions    []string `json:"project_suggestions,omitempty"`
	TimelineEstimate      string   `json:"timeline_estimate,omitempty"`
}

// JobMatchAssessment scores the candidate against one job.
// OverallMatchPercentage is normalized to an integer 0-100.
type JobMatchAssessment struct {
	OverallMatchPercentage int      `json:"overall_match_percentage"`
	Strengths              []string `json:"strengths,omitempty"`
	Concerns               []string `json:"concerns,omitempty"`
	InterviewPrepTips      []string `json:"interview_preparation_tips,omitempty"`
}

// JobAnalysis is one skill-gap result, positionally aligned with the
// analyzed job subset.
type JobAnalysis struct {
	JobTitle           string                  `json:"job_title,omitempty"`
	Company            string                  `json:"company_name,omitempty"`
	SkillGapAnalysis   SkillGapAnalysis        `json:"skill_gap_analysis"`
	Recommendations    AnalysisRecommendations `json:"recommendations"`
	JobMatchAssessment JobMatchAssessment      `json:"job_match_assessment"`
}

// CareerReadiness is the aggregate readiness verdict in a report.
type CareerReadiness string

const (
	ReadinessGood             CareerReadiness = "good"
	ReadinessNeedsImprovement CareerReadiness = "needs_improvement"
	ReadinessSignificantGaps  CareerReadiness = "significant_gaps"
)

// ReportSummary aggregates counts and skill frequencies over all analyses.
type ReportSummary struct {
	TotalJobsAnalyzed      int      `json:"total_jobs_analyzed"`
	AverageMatchPercentage float64  `json:"average_match_percentage"`
	MostCommonMissing      []string `json:"most_common_missing_skills"`
	StrongestSkills        []string `json:"strongest_skills"`
}

// ReportRecommendations is the action plan section of a report.
type ReportRecommendations struct {
	TopSkillsToDevelop []string        `json:"top_skills_to_develop"`
	CareerReadiness    CareerReadiness `json:"career_readiness"`
	NextSteps          []string        `json:"next_steps"`
}

// OverallReport is the exportable aggregate summary over a set of analyses.
type OverallReport struct {
	Summary         ReportSummary         `json:"summary"`
	Recommendations ReportRecommendations `json:"recommendations"`
	JobAnalyses     []JobAnalysis         `json:"job_analyses,omitempty"`
}

// JobSuggestions holds backend-proposed search keywords for a resume.
type JobSuggestions struct {
	Suggestions []string `json:"suggestions"`
	Message     string   `json:"message,omitempty"`
}

// CityList is the location lookup result for one country.
type CityList struct {
	Cities  []string `json:"cities"`
	Country string   `json:"country"`
}

// HealthStatus reports backend reachability and processor readiness.
type HealthStatus struct {
	Status                string `json:"status"`
	ProcessorsInitialized bool   `json:"processors_initialized"`
	Timestamp             string `json:"timestamp,omitempty"`
}
