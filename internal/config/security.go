package config

import (
	"regexp"
	"strings"
)

// SensitivePattern is a credential shape that must not be committed in a
// release config. CI jobs receive these through their secret store.
type SensitivePattern struct {
	Name        string
	Pattern     *regexp.Regexp
	Description string
}

// quotedValue matches the right-hand side of a Lua string assignment.
const quotedValue = `\s*=\s*['"]`

var sensitivePatterns = []SensitivePattern{
	{
		Name:        "Butler Key",
		Pattern:     regexp.MustCompile(`(?i)butler[_-]?(api[_-]?)?key` + quotedValue + `.+['"]`),
		Description: "butler API keys belong in BUTLER_API_KEY",
	},
	{
		Name:        "Password",
		Pattern:     regexp.MustCompile(`(?i)(password|passwd|pfx[_-]?pass|keychain[_-]?pass)` + quotedValue + `.+['"]`),
		Description: "certificate and keychain passwords belong in CI secrets",
	},
	{
		Name:        "URL Credentials",
		Pattern:     regexp.MustCompile(`https?://[^/\s:'"]+:[^@\s'"]+@`),
		Description: "URLs must not embed user:password",
	},
	{
		Name:        "Token",
		Pattern:     regexp.MustCompile(`(?i)(api[_-]?key|token|secret)` + quotedValue + `[a-zA-Z0-9_-]{15,}['"]`),
		Description: "long opaque value assigned to a token-like field",
	},
	{
		Name:        "GitHub Token",
		Pattern:     regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{36,}`),
		Description: "GitHub token",
	},
}

// SensitiveDataFinding is one suspicious line. Preview never contains the
// matched value.
type SensitiveDataFinding struct {
	PatternName string
	Description string
	Line        int
	Preview     string
}

// DetectSensitiveData scans config content for credentials that belong in
// CI secrets rather than release.lua. Each line reports its first match only.
func DetectSensitiveData(content string) []SensitiveDataFinding {
	var findings []SensitiveDataFinding

	for i, line := range strings.Split(content, "\n") {
		for _, p := range sensitivePatterns {
			loc := p.Pattern.FindStringIndex(line)
			if loc == nil {
				continue
			}
			findings = append(findings, SensitiveDataFinding{
				PatternName: p.Name,
				Description: p.Description,
				Line:        i + 1,
				Preview:     redactRange(line, loc[0], loc[1]),
			})
			break
		}
	}

	return findings
}

// redactRange keeps what precedes the match, plus the key of an assignment
// when the match starts with one.
func redactRange(line string, start, end int) string {
	kept := strings.TrimSpace(line[:start])
	match := line[start:end]
	if eq := strings.Index(match, "="); eq > 0 {
		kept = strings.TrimSpace(kept + " " + strings.TrimSpace(match[:eq]) + " =")
	}
	if kept == "" {
		return "[REDACTED]"
	}
	return kept + " [REDACTED]"
}
