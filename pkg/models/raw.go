package models

// Tool names as they appear in policies, job records and findings
const (
	ToolWebScan    = "webscan"
	ToolDepVuln    = "depvuln"
	ToolContainer  = "container"
	ToolStatic     = "staticanalysis"
	ToolAdvisories = "advisories"
)

// AllTools returns every known tool name in a stable order
func AllTools() []string {
	return []string{ToolWebScan, ToolDepVuln, ToolContainer, ToolStatic, ToolAdvisories}
}

// KnownTool reports whether name is a registered tool name
func KnownTool(name string) bool {
	for _, t := range AllTools() {
		if t == name {
			return true
		}
	}
	return false
}

// WebScanAlert is the raw alert shape returned by the web scanner
type WebScanAlert struct {
	Name        string `json:"name"`
	Risk        string `json:"risk"`
	Confidence  string `json:"confidence"`
	CWEID       int    `json:"cweId"`
	WASCID      int    `json:"wascId"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Solution    string `json:"solution,omitempty"`
	Reference   string `json:"reference,omitempty"`
}

// DependencyVuln is the raw record returned by the dependency-vulnerability database
type DependencyVuln struct {
	ID        string   `json:"id"`
	Package   string   `json:"package"`
	Version   string   `json:"version"`
	Ecosystem string   `json:"ecosystem"`
	Summary   string   `json:"summary,omitempty"`
	Details   string   `json:"details,omitempty"`
	Score     float64  `json:"score"`
	Aliases   []string `json:"aliases,omitempty"`
}

// ContainerVuln is the raw record returned by the container scanner
type ContainerVuln struct {
	ID          string `json:"id"`
	Severity    string `json:"severity"`
	Package     string `json:"package"`
	Version     string `json:"version"`
	FixedIn     string `json:"fixedIn,omitempty"`
	Description string `json:"description,omitempty"`
	Link        string `json:"link,omitempty"`
}

// StaticFinding is the raw record returned by the static-analysis service
type StaticFinding struct {
	RuleID      string `json:"ruleId"`
	Severity    string `json:"severity"`
	Path        string `json:"path"`
	Line        int    `json:"line"`
	Message     string `json:"message,omitempty"`
	Remediation string `json:"remediation,omitempty"`
}

// AdvisoryRecord is the raw record returned by the source-host security API
type AdvisoryRecord struct {
	GHSAID      string `json:"ghsaId"`
	CVEID       string `json:"cveId,omitempty"`
	Severity    string `json:"severity"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	HTMLURL     string `json:"htmlUrl,omitempty"`
}

// RawPayload carries the original tool output on a finding for audit and
// debugging. Exactly one variant is set, discriminated by Tool.
type RawPayload struct {
	Tool       string          `json:"tool"`
	WebScan    *WebScanAlert   `json:"webscan,omitempty"`
	DepVuln    *DependencyVuln `json:"depvuln,omitempty"`
	Container  *ContainerVuln  `json:"container,omitempty"`
	Static     *StaticFinding  `json:"staticanalysis,omitempty"`
	Advisories *AdvisoryRecord `json:"advisories,omitempty"`
}
