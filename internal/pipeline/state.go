package pipeline

import (
	"context"
	"fmt"

	"jobscout/internal/profile"
	"jobscout/internal/types"
)

// Tab is one stage surface in the fixed Upload -> Search -> Analyze ->
// Report flow.
type Tab string

const (
	TabUpload  Tab = "upload"
	TabSearch  Tab = "search"
	TabAnalyze Tab = "analyze"
	TabReport  Tab = "report"
)

// ResetCause selects how much staged state a reset clears.
type ResetCause string

const (
	// ResetSignOut clears everything; nothing staged survives a sign-out.
	ResetSignOut ResetCause = "sign_out"
	// ResetNewResume clears the stages downstream of a fresh upload.
	ResetNewResume ResetCause = "new_resume"
)

// stashKey is the stash entry the staged state persists under.
const stashKey = "pipeline"

// State is the staged pipeline: the current tab plus the in-flight results
// of each stage. It is a plain value for a single-command process; it is not
// safe for concurrent mutation.
type State struct {
	CurrentTab Tab                  `json:"current_tab"`
	ResumeID   string               `json:"resume_id,omitempty"`
	ResumeInfo *types.ResumeInfo    `json:"resume_info,omitempty"`
	Jobs       []types.Job          `json:"jobs,omitempty"`
	QueryID    string               `json:"query_id,omitempty"`
	Analyses   []types.JobAnalysis  `json:"analyses,omitempty"`
	Report     *types.OverallReport `json:"report,omitempty"`
}

// NewState returns the initial pipeline state at the upload stage.
func NewState() *State {
	return &State{CurrentTab: TabUpload}
}

// Patch is a shallow merge into State; nil fields leave the current value
// untouched. Clearing happens through Reset, never through a patch.
type Patch struct {
	CurrentTab *Tab
	ResumeID   *string
	ResumeInfo *types.ResumeInfo
	Jobs       []types.Job
	QueryID    *string
	Analyses   []types.JobAnalysis
	Report     *types.OverallReport
}

// Update applies a shallow merge.
func (s *State) Update(p Patch) {
	if p.CurrentTab != nil {
		s.CurrentTab = *p.CurrentTab
	}
	if p.ResumeID != nil {
		s.ResumeID = *p.ResumeID
	}
	if p.ResumeInfo != nil {
		s.ResumeInfo = p.ResumeInfo
	}
	if p.Jobs != nil {
		s.Jobs = p.Jobs
	}
	if p.QueryID != nil {
		s.QueryID = *p.QueryID
	}
	if p.Analyses != nil {
		s.Analyses = p.Analyses
	}
	if p.Report != nil {
		s.Report = p.Report
	}
}

// CanEnter reports whether a stage is reachable given what the previous
// stages have produced, with a user-facing reason when it is not.
func (s *State) CanEnter(tab Tab) (bool, string) {
	switch tab {
	case TabUpload:
		return true, ""
	case TabSearch:
		if s.ResumeID == "" {
			return false, "Upload a resume before searching for jobs."
		}
		return true, ""
	case TabAnalyze:
		if len(s.Jobs) == 0 {
			return false, "Search for jobs before running the skill analysis."
		}
		return true, ""
	case TabReport:
		if len(s.Analyses) == 0 {
			return false, "Analyze jobs before generating a report."
		}
		return true, ""
	default:
		return false, fmt.Sprintf("Unknown stage %q.", string(tab))
	}
}

// Navigate moves to a stage when its gate allows it. A disallowed move
// leaves the current tab unchanged and emits exactly one warning through
// warn.
func (s *State) Navigate(tab Tab, warn func(string)) bool {
	ok, reason := s.CanEnter(tab)
	if !ok {
		if warn != nil {
			warn(reason)
		}
		return false
	}
	s.CurrentTab = tab
	return true
}

// Reset clears staged results. Sign-out wipes everything including the
// resume; a fresh upload only invalidates the downstream stages.
func (s *State) Reset(cause ResetCause) {
	s.Jobs = nil
	s.QueryID = ""
	s.Analyses = nil
	s.Report = nil

	if cause == ResetSignOut {
		s.ResumeID = ""
		s.ResumeInfo = nil
		s.CurrentTab = TabUpload
	}
}

// Load restores the staged state for the user from the stash; a missing or
// unreadable entry yields a fresh state.
func Load(ctx context.Context, cache *profile.Cache, uid string) (*State, error) {
	state := NewState()
	found, err := cache.GetStash(ctx, uid, stashKey, state)
	if err != nil {
		return nil, err
	}
	if !found {
		return NewState(), nil
	}
	if state.CurrentTab == "" {
		state.CurrentTab = TabUpload
	}
	return state, nil
}

// Persist writes the staged state to the user's stash.
func (s *State) Persist(ctx context.Context, cache *profile.Cache, uid string) error {
	return cache.PutStash(ctx, uid, stashKey, s)
}

// Discard removes the persisted staged state; called alongside
// Reset(ResetSignOut).
func Discard(ctx context.Context, cache *profile.Cache, uid string) error {
	return cache.DeleteStash(ctx, uid, stashKey)
}
