package mapping

import (
	"sort"
	"strings"
)

// OWASP Top 10 (2021) category codes
const (
	A01BrokenAccessControl  = "A01"
	A02CryptographicFailure = "A02"
	A03Injection            = "A03"
	A04InsecureDesign       = "A04"
	A05Misconfiguration     = "A05"
	A06VulnerableComponents = "A06"
	A07AuthFailures         = "A07"
	A08IntegrityFailures    = "A08"
	A09LoggingFailures      = "A09"
	A10SSRF                 = "A10"
)

// cweToOWASP maps CWE numeric ids to one or more OWASP categories.
// A single id may legitimately implicate several categories.
var cweToOWASP = map[int][]string{
	// Injection
	77:  {A03Injection},
	78:  {A03Injection},
	79:  {A03Injection},
	89:  {A03Injection},
	90:  {A03Injection},
	91:  {A03Injection},
	94:  {A03Injection},
	113: {A03Injection},
	943: {A03Injection},
	// Broken access control
	22:  {A01BrokenAccessControl},
	200: {A01BrokenAccessControl},
	284: {A01BrokenAccessControl},
	285: {A01BrokenAccessControl},
	352: {A01BrokenAccessControl},
	425: {A01BrokenAccessControl},
	601: {A01BrokenAccessControl},
	639: {A01BrokenAccessControl},
	// Cryptographic failures
	311: {A02CryptographicFailure},
	319: {A02CryptographicFailure},
	326: {A02CryptographicFailure},
	327: {A02CryptographicFailure},
	328: {A02CryptographicFailure},
	// Identification and authentication failures
	287: {A07AuthFailures},
	290: {A07AuthFailures},
	306: {A01BrokenAccessControl, A07AuthFailures},
	521: {A07AuthFailures},
	522: {A07AuthFailures},
	798: {A07AuthFailures},
	// Security misconfiguration
	16:   {A05Misconfiguration},
	611:  {A05Misconfiguration},
	614:  {A05Misconfiguration},
	693:  {A05Misconfiguration},
	776:  {A05Misconfiguration},
	1004: {A05Misconfiguration},
	1021: {A05Misconfiguration},
	// Software and data integrity failures
	494: {A08IntegrityFailures},
	502: {A08IntegrityFailures},
	829: {A08IntegrityFailures},
	// Vulnerable and outdated components
	937:  {A06VulnerableComponents},
	1104: {A06VulnerableComponents},
	// Logging and monitoring failures
	117: {A09LoggingFailures},
	778: {A09LoggingFailures},
	// SSRF
	918: {A10SSRF},
}

// wascToOWASP maps WASC threat-classification ids to OWASP categories
var wascToOWASP = map[int][]string{
	1:  {A07AuthFailures},          // insufficient authentication
	2:  {A01BrokenAccessControl},   // insufficient authorization
	4:  {A02CryptographicFailure},  // insufficient transport layer protection
	8:  {A03Injection},             // cross-site scripting
	9:  {A01BrokenAccessControl},   // cross-site request forgery
	13: {A01BrokenAccessControl},   // information leakage
	14: {A05Misconfiguration},      // server misconfiguration
	15: {A05Misconfiguration},      // application misconfiguration
	19: {A03Injection},             // SQL injection
	20: {A03Injection},             // improper input handling
	26: {A03Injection},             // HTTP response splitting
	31: {A03Injection},             // OS commanding
	38: {A01BrokenAccessControl},   // URL redirector abuse
	43: {A05Misconfiguration},      // XML external entities
}

// nameRules are the fallback substring heuristics against an alert's name,
// applied case-insensitively when neither identifier table matched.
var nameRules = []struct {
	substrings []string
	tag        string
}{
	{[]string{"sql injection", "sqli"}, A03Injection},
	{[]string{"xss", "cross-site scripting", "cross site scripting"}, A03Injection},
	{[]string{"csrf"}, A01BrokenAccessControl},
	{[]string{"ssrf"}, A10SSRF},
	{[]string{"authentication"}, A07AuthFailures},
	{[]string{"authorization", "access control"}, A01BrokenAccessControl},
	{[]string{"misconfiguration"}, A05Misconfiguration},
	{[]string{"crypto", "encryption", "ssl", "tls"}, A02CryptographicFailure},
}

// OWASPTags derives the set of OWASP Top 10 category codes for a raw alert.
// Precedence: CWE table, then WASC table, then name heuristics. The result
// is sorted and deduplicated; an empty set is a legitimate outcome and is
// never invented when no rule matches.
func OWASPTags(cweID, wascID int, name string) []string {
	if tags, ok := cweToOWASP[cweID]; ok {
		return dedupe(tags)
	}
	if tags, ok := wascToOWASP[wascID]; ok {
		return dedupe(tags)
	}

	lower := strings.ToLower(name)
	var tags []string
	for _, rule := range nameRules {
		for _, sub := range rule.substrings {
			if strings.Contains(lower, sub) {
				tags = append(tags, rule.tag)
				break
			}
		}
	}
	return dedupe(tags)
}

// DependencyTags is the fixed tag set for dependency and container findings,
// whose native payload carries no CWE/WASC identifiers.
func DependencyTags() []string {
	return []string{A06VulnerableComponents}
}

// AdvisoryTags is the fixed tag set for source-host advisory findings
func AdvisoryTags() []string {
	return []string{A06VulnerableComponents, A08IntegrityFailures}
}

func dedupe(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}
