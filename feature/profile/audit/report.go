package audit

import "time"

// IssueType classifies a single divergence between the identity record and
// its profile projection.
type IssueType string

const (
	// MissingProfile means the user has no profile row at all.
	MissingProfile IssueType = "MISSING_PROFILE"
	// ProfileNotFound means the profile vanished between the existence
	// check and the read.
	ProfileNotFound IssueType = "PROFILE_NOT_FOUND"
	// EmailMismatch means the mirrored email differs.
	EmailMismatch IssueType = "EMAIL_MISMATCH"
	// VerificationMismatch means the mirrored verification flag differs.
	VerificationMismatch IssueType = "VERIFICATION_MISMATCH"
	// GradeMismatch means the mirrored grade differs.
	GradeMismatch IssueType = "GRADE_MISMATCH"
	// GoalMismatch means the mirrored goal differs.
	GoalMismatch IssueType = "GOAL_MISMATCH"
	// SystemError means the check itself failed for this user.
	SystemError IssueType = "SYSTEM_ERROR"
)

// Issue is a single finding for one user.
type Issue struct {
	Type         IssueType `json:"type"`
	UserID       uint      `json:"user_id"`
	Field        string    `json:"field,omitempty"`
	UserValue    string    `json:"user_value,omitempty"`
	ProfileValue string    `json:"profile_value,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// Report is the ephemeral outcome of one audit run. It is returned to the
// caller and logged, never persisted.
type Report struct {
	Timestamp time.Time `json:"timestamp"`
	Scanned   int       `json:"scanned"`
	Issues    []Issue   `json:"issues"`
}

// Count returns the number of issues found.
func (r *Report) Count() int { return len(r.Issues) }

// HasIssues reports whether the run found anything.
func (r *Report) HasIssues() bool { return len(r.Issues) > 0 }

// IntegrityResult summarizes a whole-population mirrored-field scan.
type IntegrityResult struct {
	TotalScanned  int `json:"total_scanned"`
	MismatchCount int `json:"mismatch_count"`
}

// BulkSyncResult summarizes a forced resynchronization over all users.
type BulkSyncResult struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
