package gateway

import (
	"testing"
)

func TestCoerceMatch(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected int
	}{
		{
			name:     "percentage string",
			input:    "76%",
			expected: 76,
		},
		{
			name:     "bare number",
			input:    float64(76),
			expected: 76,
		},
		{
			name:     "absent value",
			input:    nil,
			expected: 0,
		},
		{
			name:     "numeric string without suffix",
			input:    "82",
			expected: 82,
		},
		{
			name:     "padded percentage string",
			input:    " 64% ",
			expected: 64,
		},
		{
			name:     "fractional percentage",
			input:    float64(76.8),
			expected: 76,
		},
		{
			name:     "garbage string",
			input:    "unknown",
			expected: 0,
		},
		{
			name:     "unexpected type",
			input:    []string{"76"},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoerceMatch(tt.input); got != tt.expected {
				t.Errorf("CoerceMatch(%v) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCoerceScore(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected float64
	}{
		{
			name:     "numeric string",
			input:    "0.85",
			expected: 0.85,
		},
		{
			name:     "bare float",
			input:    float64(0.85),
			expected: 0.85,
		},
		{
			name:     "absent value",
			input:    nil,
			expected: 0,
		},
		{
			name:     "garbage string",
			input:    "high",
			expected: 0,
		},
		{
			name:     "unexpected type",
			input:    true,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoerceScore(tt.input); got != tt.expected {
				t.Errorf("CoerceScore(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeJobCompanyAlias(t *testing.T) {
	tests := []struct {
		name     string
		job      wireJob
		expected string
	}{
		{
			name:     "company_name preferred",
			job:      wireJob{Company: "Old Corp", CompanyName: "New Corp"},
			expected: "New Corp",
		},
		{
			name:     "falls back to company",
			job:      wireJob{Company: "Old Corp"},
			expected: "Old Corp",
		},
		{
			name:     "both empty",
			job:      wireJob{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeJob(tt.job).Company; got != tt.expected {
				t.Errorf("normalizeJob company = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNormalizeAnalysis(t *testing.T) {
	w := wireAnalysis{
		JobTitle: "Backend Engineer",
		Company:  "Acme",
		JobMatchAssessment: wireAssessment{
			OverallMatchPercentage: "76%",
			Strengths:              []string{"Go"},
		},
	}

	got := normalizeAnalysis(w)
	if got.JobMatchAssessment.OverallMatchPercentage != 76 {
		t.Errorf("overall match = %d, want 76", got.JobMatchAssessment.OverallMatchPercentage)
	}
	if got.JobTitle != "Backend Engineer" || got.Company != "Acme" {
		t.Errorf("unexpected identity fields: %+v", got)
	}
	if len(got.JobMatchAssessment.Strengths) != 1 {
		t.Errorf("strengths not carried through: %+v", got.JobMatchAssessment)
	}
}
