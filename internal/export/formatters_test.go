package export

import (
	"strings"
	"testing"

	"jobscout/internal/types"
)

func sampleReport() *types.OverallReport {
	return &types.OverallReport{
		Summary: types.ReportSummary{
			TotalJobsAnalyzed:      3,
			AverageMatchPercentage: 62.5,
			MostCommonMissing:      []string{"Kubernetes", "Terraform"},
			StrongestSkills:        []string{"Go", "PostgreSQL"},
		},
		Recommendations: types.ReportRecommendations{
			TopSkillsToDevelop: []string{"Kubernetes"},
			CareerReadiness:    types.ReadinessNeedsImprovement,
			NextSteps:          []string{"Build a small cluster project"},
		},
		JobAnalyses: []types.JobAnalysis{
			{
				JobTitle: "Platform Engineer",
				Company:  "Acme",
				JobMatchAssessment: types.JobMatchAssessment{
					OverallMatchPercentage: 76,
				},
				SkillGapAnalysis: types.SkillGapAnalysis{
					MissingSkills: []string{"Kubernetes"},
				},
			},
		},
	}
}

func TestJSONFormatterRoundTrips(t *testing.T) {
	output, err := GlobalRegistry.Format(sampleReport(), "json")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	for _, want := range []string{`"total_jobs_analyzed": 3`, `"career_readiness": "needs_improvement"`} {
		if !strings.Contains(output, want) {
			t.Errorf("json output missing %q:\n%s", want, output)
		}
	}
}

func TestCSVSummaryLayout(t *testing.T) {
	output, err := GlobalRegistry.Format(sampleReport(), "csv")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if lines[0] != "Metric,Value" {
		t.Errorf("header = %q, want Metric,Value", lines[0])
	}
	for _, want := range []string{
		"Jobs Analyzed,3",
		"Average Match,62.5%",
		"Career Readiness,needs_improvement",
		"Missing Skills",
		"Kubernetes",
		"Strongest Skills",
		"Go",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("csv output missing %q:\n%s", want, output)
		}
	}
}

func TestHTMLDocumentIsSelfContained(t *testing.T) {
	output, err := GlobalRegistry.Format(sampleReport(), "html")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	for _, want := range []string{
		"<!DOCTYPE html>",
		"<style>",
		"Needs Work",
		"Platform Engineer",
		"76%",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("html output missing %q", want)
		}
	}
	if strings.Contains(output, "http://") || strings.Contains(output, "https://") {
		t.Error("exported document should not reference external assets")
	}
}

func TestTextReportFormatter(t *testing.T) {
	output, err := GlobalRegistry.Format(sampleReport(), "text")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	for _, want := range []string{
		"Jobs Analyzed: 3",
		"Average Match: 62.5%",
		"Career Readiness: Needs Work",
		"1. Build a small cluster project",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("text output missing %q:\n%s", want, output)
		}
	}
}

func TestJobListTextFormatter(t *testing.T) {
	jobs := []types.Job{
		{Title: "Go Developer", Company: "Acme", Location: "Berlin", SimilarityScore: 0.85},
		{Title: "SRE"},
	}
	output, err := GlobalRegistry.Format(jobs, "text")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	for _, want := range []string{"1. Go Developer", "Company: Acme", "Match: 85.0%", "2. SRE"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}

	empty, err := GlobalRegistry.Format([]types.Job{}, "text")
	if err != nil {
		t.Fatalf("Format empty: %v", err)
	}
	if !strings.Contains(empty, "No jobs found") {
		t.Errorf("empty list output = %q", empty)
	}
}

func TestAnalysisListTextFormatter(t *testing.T) {
	analyses := []types.JobAnalysis{
		{
			JobTitle: "Platform Engineer",
			Company:  "Acme",
			JobMatchAssessment: types.JobMatchAssessment{
				OverallMatchPercentage: 76,
			},
			SkillGapAnalysis: types.SkillGapAnalysis{
				MatchingSkills: []string{"Go"},
				MissingSkills:  []string{"Kubernetes", "Terraform"},
			},
		},
	}
	output, err := GlobalRegistry.Format(analyses, "text")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	for _, want := range []string{
		"Platform Engineer at Acme",
		"Overall Match: 76%",
		"Missing Skills: Kubernetes, Terraform",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestUnknownFormatRejected(t *testing.T) {
	if _, err := GlobalRegistry.Format(sampleReport(), "yaml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestSupportedFormats(t *testing.T) {
	formats := GlobalRegistry.GetSupportedFormats()
	seen := make(map[string]bool, len(formats))
	for _, f := range formats {
		seen[f] = true
	}
	for _, want := range []string{"json", "csv", "html", "text"} {
		if !seen[want] {
			t.Errorf("format %q not registered", want)
		}
	}
}
