package detectors

import (
	"fmt"

	"github.com/clawsec/clawsec/pkg/clawsec"
	"github.com/clawsec/clawsec/pkg/secretpatterns"
)

// SecretsConfig configures the Secrets detector. IncludeEmail controls
// whether bare email addresses count as a (low-confidence) secret signal;
// most deployments leave this off for the input-side detector since emails
// show up constantly in legitimate tool calls, and rely on the sanitizer's
// output-side scan (which defaults it on) instead.
type SecretsConfig struct {
	Severity     clawsec.Severity
	IncludeEmail bool
}

var secretSeverity = map[string]clawsec.Severity{
	"critical": clawsec.SeverityCritical,
	"high":     clawsec.SeverityHigh,
	"medium":   clawsec.SeverityMedium,
}

// NewSecretsDetector builds a Detector for the Secrets family. It scans
// every string value reachable from the call's input tree against the
// shared secretpatterns catalogue and reports the single highest-severity
// hit, folding any remaining hits into the reason text.
func NewSecretsDetector(cfg SecretsConfig) clawsec.Detector {
	return clawsec.DetectorFunc{
		Cat: clawsec.CategorySecrets,
		Fn: func(call clawsec.ToolCall) (clawsec.Detection, bool) {
			return detectSecrets(call, cfg)
		},
	}
}

func detectSecrets(call clawsec.ToolCall, cfg SecretsConfig) (clawsec.Detection, bool) {
	var matches []secretpatterns.Match
	walkStrings(call.Input, func(s string) {
		matches = append(matches, secretpatterns.ScanAll(s, cfg.IncludeEmail)...)
	})
	if call.URL != "" {
		matches = append(matches, secretpatterns.ScanAll(call.URL, cfg.IncludeEmail)...)
	}
	if len(matches) == 0 {
		return clawsec.Detection{}, false
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if severityRank(m.Severity) > severityRank(best.Severity) {
			best = m
		}
	}

	types := map[string]int{}
	for _, m := range matches {
		types[m.Type]++
	}
	reason := fmt.Sprintf("found %s", best.Type)
	if len(types) > 1 {
		reason = fmt.Sprintf("%s (and %d other secret-shaped value(s) across %d type(s))", reason, len(matches)-1, len(types))
	}

	sev, ok := secretSeverity[best.Severity]
	if !ok {
		sev = cfg.Severity
	}

	confidence := 0.75
	switch best.Type {
	case "aws-access-key", "aws-secret-key", "github-token", "stripe-key", "slack-token", "google-api-key", "openai-key", "anthropic-key", "npm-token", "private-key-pem", "jwt":
		confidence = 0.95
	case "ssn", "credit-card":
		confidence = 0.9
	case "bearer-token", "session-token", "refresh-token", "generic-credential":
		confidence = 0.8
	case "email":
		confidence = 0.5
	}

	return clawsec.Detection{
		Category:   clawsec.CategorySecrets,
		Severity:   sev,
		Confidence: confidence,
		Reason:     reason,
		Metadata: map[string]string{
			"secret_type": best.Type,
			"redacted":    best.Redacted,
			"match_count": fmt.Sprintf("%d", len(matches)),
		},
	}, true
}

func severityRank(s string) int {
	switch s {
	case "critical":
		return 3
	case "high":
		return 2
	case "medium":
		return 1
	default:
		return 0
	}
}
