package export

import (
	"fmt"
	"html/template"
	"strings"
)

// reportTemplate is a self-contained printable document; it carries its own
// styling so the exported file renders without any external assets.
var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"readiness": readinessLabel,
	"join":      func(items []string) string { return strings.Join(items, ", ") },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Job Analysis Report</title>
<style>
  body { font-family: Georgia, serif; max-width: 52rem; margin: 2rem auto; color: #222; }
  h1 { border-bottom: 2px solid #222; padding-bottom: .3rem; }
  h2 { margin-top: 2rem; }
  .metrics { display: flex; gap: 2rem; margin: 1.5rem 0; }
  .metric { border: 1px solid #ccc; padding: 1rem; text-align: center; flex: 1; }
  .metric .value { font-size: 1.6rem; font-weight: bold; }
  .metric .label { font-size: .8rem; color: #666; text-transform: uppercase; }
  ul { line-height: 1.6; }
  .analysis { border-left: 3px solid #ccc; padding-left: 1rem; margin: 1rem 0; }
  @media print { body { margin: 0; } }
</style>
</head>
<body>
<h1>Job Analysis Report</h1>

<div class="metrics">
  <div class="metric"><div class="value">{{.Summary.TotalJobsAnalyzed}}</div><div class="label">Jobs Analyzed</div></div>
  <div class="metric"><div class="value">{{printf "%.1f%%" .Summary.AverageMatchPercentage}}</div><div class="label">Average Match</div></div>
  <div class="metric"><div class="value">{{readiness .Recommendations.CareerReadiness}}</div><div class="label">Career Readiness</div></div>
</div>

{{if .Summary.MostCommonMissing}}
<h2>Most Common Missing Skills</h2>
<ul>{{range .Summary.MostCommonMissing}}<li>{{.}}</li>{{end}}</ul>
{{end}}

{{if .Summary.StrongestSkills}}
<h2>Your Strongest Skills</h2>
<ul>{{range .Summary.StrongestSkills}}<li>{{.}}</li>{{end}}</ul>
{{end}}

{{if .Recommendations.TopSkillsToDevelop}}
<h2>Priority Learning Areas</h2>
<ul>{{range .Recommendations.TopSkillsToDevelop}}<li>{{.}}</li>{{end}}</ul>
{{end}}

{{if .Recommendations.NextSteps}}
<h2>Recommended Action Plan</h2>
<ol>{{range .Recommendations.NextSteps}}<li>{{.}}</li>{{end}}</ol>
{{end}}

{{if .JobAnalyses}}
<h2>Per-Job Analysis</h2>
{{range .JobAnalyses}}
<div class="analysis">
  <h3>{{.JobTitle}}{{if .Company}} at {{.Company}}{{end}}</h3>
  <p><strong>Overall Match:</strong> {{.JobMatchAssessment.OverallMatchPercentage}}%</p>
  {{if .SkillGapAnalysis.MissingSkills}}<p><strong>Missing Skills:</strong> {{join .SkillGapAnalysis.MissingSkills}}</p>{{end}}
  {{if .Recommendations.PrioritySkillsToLearn}}<p><strong>Priority Skills:</strong> {{join .Recommendations.PrioritySkillsToLearn}}</p>{{end}}
</div>
{{end}}
{{end}}

</body>
</html>
`))

// ReportHTMLFormatter renders the overall report as a standalone printable
// HTML document.
type ReportHTMLFormatter struct{}

func (rhf *ReportHTMLFormatter) Format(data any) (string, error) {
	report, err := asReport(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	if err := reportTemplate.Execute(&output, report); err != nil {
		return "", fmt.Errorf("rendering report document: %w", err)
	}
	return output.String(), nil
}

func (rhf *ReportHTMLFormatter) SupportedType() string {
	return "OverallReport"
}
