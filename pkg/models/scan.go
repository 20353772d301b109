package models

import "time"

// JobStatus is the lifecycle state of a scan job
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status is final. A terminal job never
// transitions back to running.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// Severity is the canonical 5-level scale all tool-native severities map into
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Valid reports whether s is one of the canonical severity values
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	}
	return false
}

// FindingStatus is the triage state of a finding, driven by users after a scan
type FindingStatus string

const (
	FindingOpen          FindingStatus = "open"
	FindingTriaged       FindingStatus = "triaged"
	FindingAcceptedRisk  FindingStatus = "accepted_risk"
	FindingFixed         FindingStatus = "fixed"
	FindingFalsePositive FindingStatus = "false_positive"
)

// Valid reports whether s is a known finding status
func (s FindingStatus) Valid() bool {
	switch s {
	case FindingOpen, FindingTriaged, FindingAcceptedRisk, FindingFixed, FindingFalsePositive:
		return true
	}
	return false
}

// IdentifierType classifies what kind of thing a target identifier names
type IdentifierType string

const (
	IdentifierURL        IdentifierType = "url"
	IdentifierNPM        IdentifierType = "npm"
	IdentifierRepository IdentifierType = "repository"
	IdentifierContainer  IdentifierType = "container"
)

// TargetIdentifier is one (type, value) pair declared on a scan target
type TargetIdentifier struct {
	Type  IdentifierType `json:"type"`
	Value string         `json:"value"`
}

// ScanTarget is a thing to be scanned. A target may carry zero or more
// identifiers; each adapter consumes only the identifier types relevant to it.
type ScanTarget struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Identifiers []TargetIdentifier `json:"identifiers"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// IdentifiersOf returns all identifier values of the given type, in declared order
func (t ScanTarget) IdentifiersOf(typ IdentifierType) []string {
	var values []string
	for _, id := range t.Identifiers {
		if id.Type == typ {
			values = append(values, id.Value)
		}
	}
	return values
}

// ScanMode selects how intrusive a scan may be
type ScanMode string

const (
	// ModePassive limits scanning to discovery and observation of existing traffic
	ModePassive ScanMode = "passive"
	// ModeActive permits sending test payloads; must be explicitly enabled
	ModeActive ScanMode = "active"
)

// ScanPolicy is a named scan configuration bundle
type ScanPolicy struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	AllowedTools []string  `json:"allowedTools"`
	MaxReqPerMin int       `json:"maxReqPerMin"`
	SpiderDepth  int       `json:"spiderDepth"`
	Exclusions   []string  `json:"exclusions"`
	ScanMode     ScanMode  `json:"scanMode"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ActiveAllowed reports whether the policy permits intrusive testing
func (p ScanPolicy) ActiveAllowed() bool {
	return p.ScanMode == ModeActive
}

// Summary counts findings per canonical severity
type Summary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

// Add increments the bucket for the given severity
func (s *Summary) Add(sev Severity) {
	switch sev {
	case SeverityCritical:
		s.Critical++
	case SeverityHigh:
		s.High++
	case SeverityMedium:
		s.Medium++
	case SeverityLow:
		s.Low++
	case SeverityInfo:
		s.Info++
	}
}

// Total returns the number of counted findings
func (s Summary) Total() int {
	return s.Critical + s.High + s.Medium + s.Low + s.Info
}

// ScanJob is one scan execution instance
type ScanJob struct {
	ID         string     `json:"id"`
	TargetID   string     `json:"targetId"`
	PolicyID   string     `json:"policyId"`
	Status     JobStatus  `json:"status"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Tools      []string   `json:"tools"`
	Findings   []Finding  `json:"findings"`
	Summary    Summary    `json:"summary"`
	Errors     []string   `json:"errors,omitempty"`
}

// ScanProgress is a coarse, best-effort view of a running job
type ScanProgress struct {
	Progress       int    `json:"progress"` // 0-100
	Phase          string `json:"phase"`
	URLsDiscovered int    `json:"urlsDiscovered"`
	RulesCompleted int    `json:"rulesCompleted"`
	Message        string `json:"message"`
}

// ScanSubmission is the synchronous response to an accepted scan request
type ScanSubmission struct {
	JobID             string    `json:"jobId"`
	Status            JobStatus `json:"status"`
	EstimatedDuration string    `json:"estimatedDuration"`
	Tools             []string  `json:"tools"`
}

// Finding is one normalized vulnerability record
type Finding struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Severity       Severity      `json:"severity"`
	Status         FindingStatus `json:"status"`
	Tool           string        `json:"tool"`
	TargetID       string        `json:"targetId"`
	Location       string        `json:"location"`
	OWASPTags      []string      `json:"owaspTop10Tags"`
	FirstSeen      time.Time     `json:"firstSeen"`
	Description    string        `json:"description,omitempty"`
	Recommendation string        `json:"recommendation,omitempty"`
	Justification  string        `json:"justification,omitempty"`
	Raw            RawPayload    `json:"raw"`
}

// FindingQuery filters finding listings; empty fields match everything
type FindingQuery struct {
	Severity string
	Status   string
	Tool     string
	TargetID string
}

// Matches reports whether the finding satisfies every set filter field
func (q FindingQuery) Matches(f Finding) bool {
	if q.Severity != "" && string(f.Severity) != q.Severity {
		return false
	}
	if q.Status != "" && string(f.Status) != q.Status {
		return false
	}
	if q.Tool != "" && f.Tool != q.Tool {
		return false
	}
	if q.TargetID != "" && f.TargetID != q.TargetID {
		return false
	}
	return true
}
