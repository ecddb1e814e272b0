package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"jobscout/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("csv", "OverallReport", &ReportCSVFormatter{})
	registry.RegisterFormatter("html", "OverallReport", &ReportHTMLFormatter{})
	registry.RegisterFormatter("text", "OverallReport", &ReportTextFormatter{})
	registry.RegisterFormatter("text", "JobList", &JobListTextFormatter{})
	registry.RegisterFormatter("text", "AnalysisList", &AnalysisListTextFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.OverallReport, *types.OverallReport:
		return "OverallReport"
	case []types.Job:
		return "JobList"
	case []types.JobAnalysis:
		return "AnalysisList"
	default:
		return "any"
	}
}

func asReport(data any) (*types.OverallReport, error) {
	switch report := data.(type) {
	case *types.OverallReport:
		return report, nil
	case types.OverallReport:
		return &report, nil
	default:
		return nil, fmt.Errorf("expected OverallReport, got %T", data)
	}
}

// readinessLabel maps the aggregate verdict to its display wording.
func readinessLabel(readiness types.CareerReadiness) string {
	switch readiness {
	case types.ReadinessGood:
		return "Good"
	case types.ReadinessNeedsImprovement:
		return "Needs Work"
	case types.ReadinessSignificantGaps:
		return "Major Gaps"
	default:
		if readiness == "" {
			return "Unknown"
		}
		return string(readiness)
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ReportCSVFormatter writes the report summary as a Metric,Value table
// followed by itemized skill sections.
type ReportCSVFormatter struct{}

func (rcf *ReportCSVFormatter) Format(data any) (string, error) {
	report, err := asReport(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	w := csv.NewWriter(&output)

	records := [][]string{
		{"Metric", "Value"},
		{"Jobs Analyzed", fmt.Sprintf("%d", report.Summary.TotalJobsAnalyzed)},
		{"Average Match", fmt.Sprintf("%.1f%%", report.Summary.AverageMatchPercentage)},
		{"Career Readiness", string(report.Recommendations.CareerReadiness)},
	}
	if err := w.WriteAll(records); err != nil {
		return "", err
	}

	output.WriteString("\nMissing Skills\n")
	for _, skill := range report.Summary.MostCommonMissing {
		if err := w.Write([]string{skill}); err != nil {
			return "", err
		}
	}
	w.Flush()

	output.WriteString("\nStrongest Skills\n")
	for _, skill := range report.Summary.StrongestSkills {
		if err := w.Write([]string{skill}); err != nil {
			return "", err
		}
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return "", err
	}
	return output.String(), nil
}

func (rcf *ReportCSVFormatter) SupportedType() string {
	return "OverallReport"
}

// ReportTextFormatter handles text formatting for the overall report
type ReportTextFormatter struct{}

func (rtf *ReportTextFormatter) Format(data any) (string, error) {
	report, err := asReport(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== COMPREHENSIVE REPORT ===\n\n")
	output.WriteString(fmt.Sprintf("Jobs Analyzed: %d\n", report.Summary.TotalJobsAnalyzed))
	output.WriteString(fmt.Sprintf("Average Match: %.1f%%\n", report.Summary.AverageMatchPercentage))
	output.WriteString(fmt.Sprintf("Career Readiness: %s\n\n", readinessLabel(report.Recommendations.CareerReadiness)))

	if len(report.Summary.MostCommonMissing) > 0 {
		output.WriteString("=== MOST COMMON MISSING SKILLS ===\n")
		for _, skill := range report.Summary.MostCommonMissing {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
		output.WriteString("\n")
	}

	if len(report.Summary.StrongestSkills) > 0 {
		output.WriteString("=== YOUR STRONGEST SKILLS ===\n")
		for _, skill := range report.Summary.StrongestSkills {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
		output.WriteString("\n")
	}

	if len(report.Recommendations.TopSkillsToDevelop) > 0 {
		output.WriteString("=== PRIORITY LEARNING AREAS ===\n")
		for _, skill := range report.Recommendations.TopSkillsToDevelop {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
		output.WriteString("\n")
	}

	if len(report.Recommendations.NextSteps) > 0 {
		output.WriteString("=== RECOMMENDED ACTION PLAN ===\n")
		for i, step := range report.Recommendations.NextSteps {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
		}
	}

	return output.String(), nil
}

func (rtf *ReportTextFormatter) SupportedType() string {
	return "OverallReport"
}

// JobListTextFormatter handles text formatting for search results
type JobListTextFormatter struct{}

func (jlf *JobListTextFormatter) Format(data any) (string, error) {
	jobs, ok := data.([]types.Job)
	if !ok {
		return "", fmt.Errorf("expected job list, got %T", data)
	}

	if len(jobs) == 0 {
		return "No jobs found.\n", nil
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("=== JOB SEARCH RESULTS (%d) ===\n\n", len(jobs)))

	for i, job := range jobs {
		output.WriteString(fmt.Sprintf("%d. %s\n", i+1, job.Title))
		if job.Company != "" {
			output.WriteString(fmt.Sprintf("   Company: %s\n", job.Company))
		}
		if job.Location != "" {
			output.WriteString(fmt.Sprintf("   Location: %s\n", job.Location))
		}
		if job.SimilarityScore > 0 {
			output.WriteString(fmt.Sprintf("   Match: %.1f%%\n", job.SimilarityScore*100))
		}
		if job.ApplyLink != "" {
			output.WriteString(fmt.Sprintf("   Apply: %s\n", job.ApplyLink))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (jlf *JobListTextFormatter) SupportedType() string {
	return "JobList"
}

// AnalysisListTextFormatter handles text formatting for skill gap analyses
type AnalysisListTextFormatter struct{}

func (alf *AnalysisListTextFormatter) Format(data any) (string, error) {
	analyses, ok := data.([]types.JobAnalysis)
	if !ok {
		return "", fmt.Errorf("expected analysis list, got %T", data)
	}

	if len(analyses) == 0 {
		return "No analyses available.\n", nil
	}

	var output strings.Builder
	output.WriteString("=== SKILL GAP ANALYSIS ===\n\n")

	for i, analysis := range analyses {
		title := analysis.JobTitle
		if title == "" {
			title = fmt.Sprintf("Job %d", i+1)
		}
		output.WriteString(fmt.Sprintf("%d. %s", i+1, title))
		if analysis.Company != "" {
			output.WriteString(fmt.Sprintf(" at %s", analysis.Company))
		}
		output.WriteString("\n")
		output.WriteString(fmt.Sprintf("   Overall Match: %d%%\n", analysis.JobMatchAssessment.OverallMatchPercentage))

		if len(analysis.SkillGapAnalysis.MatchingSkills) > 0 {
			output.WriteString(fmt.Sprintf("   Matching Skills: %s\n",
				strings.Join(analysis.SkillGapAnalysis.MatchingSkills, ", ")))
		}
		if len(analysis.SkillGapAnalysis.MissingSkills) > 0 {
			output.WriteString(fmt.Sprintf("   Missing Skills: %s\n",
				strings.Join(analysis.SkillGapAnalysis.MissingSkills, ", ")))
		}
		if len(analysis.Recommendations.PrioritySkillsToLearn) > 0 {
			output.WriteString(fmt.Sprintf("   Priority Skills to Learn: %s\n",
				strings.Join(analysis.Recommendations.PrioritySkillsToLearn, ", ")))
		}
		if analysis.Recommendations.TimelineEstimate != "" {
			output.WriteString(fmt.Sprintf("   Timeline: %s\n", analysis.Recommendations.TimelineEstimate))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (alf *AnalysisListTextFormatter) SupportedType() string {
	return "AnalysisList"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
