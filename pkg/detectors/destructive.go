package detectors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/clawsec/clawsec/pkg/clawsec"
)

// DestructiveConfig configures the Destructive family's three sub-detectors.
type DestructiveConfig struct {
	Severity      clawsec.Severity
	ShellPatterns []string // user regex extensions, appended to the builtin set
	CloudPatterns []string
	CodePatterns  []string
	// Warnings receives one message per invalid user-supplied regex
	// encountered while building this detector (§4.2 "skipped with a
	// warning").
	Warnings *[]string
}

var dangerousPaths = []string{"/", "/etc", "/bin", "/usr", "/var", "/boot", "/sys", "/proc", "/home", "/root", "~", "/System", "/Library"}

var shellBuiltins = []struct {
	re         *regexp.Regexp
	confidence float64
	reason     string
}{
	{regexp.MustCompile(`\brm\s+(-[a-zA-Z]*r[a-zA-Z]*f[a-zA-Z]*|-[a-zA-Z]*f[a-zA-Z]*r[a-zA-Z]*)\s`), 0.95, "recursive force delete (rm -rf)"},
	{regexp.MustCompile(`\bmkfs(\.\w+)?\b`), 0.97, "filesystem format (mkfs)"},
	{regexp.MustCompile(`\bdd\s+if=.*\bof=/dev/`), 0.97, "raw disk write via dd"},
	{regexp.MustCompile(`(?i)\bdrop\s+(table|database|schema)\b`), 0.9, "SQL DROP statement"},
	{regexp.MustCompile(`(?i)\btruncate\s+table\b`), 0.85, "SQL TRUNCATE statement"},
	{regexp.MustCompile(`:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;`), 0.99, "fork bomb"},
	{regexp.MustCompile(`\bchmod\s+-R\s+000\b`), 0.8, "recursive chmod 000"},
	{regexp.MustCompile(`>\s*/dev/sd[a-z]\b`), 0.95, "direct write to block device"},
}

func detectShell(command string, cfg DestructiveConfig) (clawsec.Detection, bool) {
	for _, p := range shellBuiltins {
		if p.re.MatchString(command) {
			conf := p.confidence
			if hitDangerousPath(command) {
				conf = min1(conf + 0.02)
			}
			return clawsec.Detection{
				Category:   clawsec.CategoryDestructive,
				Severity:   cfg.Severity,
				Confidence: conf,
				Reason:     p.reason,
				Metadata:   map[string]string{"command": command, "subdetector": "shell"},
			}, true
		}
	}
	for _, pattern := range cfg.ShellPatterns {
		re, warn := compileSafe(pattern)
		if warn != "" {
			appendWarning(cfg.Warnings, warn)
			continue
		}
		if re.MatchString(command) {
			return clawsec.Detection{
				Category:   clawsec.CategoryDestructive,
				Severity:   cfg.Severity,
				Confidence: 0.8,
				Reason:     fmt.Sprintf("command matches configured shell pattern %q", pattern),
				Metadata:   map[string]string{"command": command, "subdetector": "shell"},
			}, true
		}
	}
	return clawsec.Detection{}, false
}

func hitDangerousPath(command string) bool {
	for _, p := range dangerousPaths {
		if strings.Contains(command, " "+p+" ") || strings.HasSuffix(strings.TrimSpace(command), p) {
			return true
		}
	}
	return false
}

type cloudRule struct {
	re         *regexp.Regexp
	confidence float64
	category   string
	reason     string
}

var cloudRules = []cloudRule{
	{regexp.MustCompile(`\baws\s+s3\s+rb\b.*--force`), 0.95, "aws", "aws s3 rb --force (bucket delete)"},
	{regexp.MustCompile(`\baws\s+ec2\s+terminate-instances\b`), 0.9, "aws", "aws ec2 terminate-instances"},
	{regexp.MustCompile(`\baws\s+rds\s+delete-db-instance\b`), 0.95, "aws", "aws rds delete-db-instance"},
	{regexp.MustCompile(`\baws\s+iam\s+delete-\w+\b`), 0.85, "aws", "aws iam delete-*"},
	{regexp.MustCompile(`\bgcloud\s+.*\bdelete\b`), 0.85, "gcp", "gcloud *delete*"},
	{regexp.MustCompile(`\bgcloud\s+projects\s+delete\b`), 0.97, "gcp", "gcloud projects delete"},
	{regexp.MustCompile(`\baz\s+group\s+delete\b`), 0.9, "azure", "az group delete"},
	{regexp.MustCompile(`\baz\s+vm\s+delete\b`), 0.85, "azure", "az vm delete"},
	{regexp.MustCompile(`\bkubectl\s+delete\s+(namespace|ns)\b`), 0.9, "kubernetes", "kubectl delete namespace"},
	{regexp.MustCompile(`\bkubectl\s+delete\s+.*--all\b`), 0.88, "kubernetes", "kubectl delete --all"},
	{regexp.MustCompile(`\bterraform\s+destroy\b`), 0.92, "terraform", "terraform destroy"},
	{regexp.MustCompile(`\bgit\s+push\s+.*--force`), 0.8, "git", "git push --force"},
	{regexp.MustCompile(`\bgit\s+reset\s+--hard\b`), 0.75, "git", "git reset --hard"},
	{regexp.MustCompile(`\bgit\s+branch\s+-D\b`), 0.7, "git", "git branch -D (force delete)"},
}

func detectCloud(command string, cfg DestructiveConfig) (clawsec.Detection, bool) {
	for _, r := range cloudRules {
		if r.re.MatchString(command) {
			return clawsec.Detection{
				Category:   clawsec.CategoryDestructive,
				Severity:   cfg.Severity,
				Confidence: r.confidence,
				Reason:     r.reason,
				Metadata:   map[string]string{"command": command, "subdetector": "cloud", "provider": r.category},
			}, true
		}
	}
	for _, pattern := range cfg.CloudPatterns {
		re, warn := compileSafe(pattern)
		if warn != "" {
			appendWarning(cfg.Warnings, warn)
			continue
		}
		if re.MatchString(command) {
			return clawsec.Detection{
				Category:   clawsec.CategoryDestructive,
				Severity:   cfg.Severity,
				Confidence: 0.8,
				Reason:     fmt.Sprintf("command matches configured cloud pattern %q", pattern),
				Metadata:   map[string]string{"command": command, "subdetector": "cloud"},
			}, true
		}
	}
	return clawsec.Detection{}, false
}

var codeRules = []struct {
	re         *regexp.Regexp
	confidence float64
	reason     string
}{
	{regexp.MustCompile(`shutil\.rmtree\s*\(`), 0.85, "Python shutil.rmtree"},
	{regexp.MustCompile(`os\.remove\s*\(.*\*`), 0.7, "Python os.remove with glob"},
	{regexp.MustCompile(`fs\.rmSync\s*\(.*recursive:\s*true`), 0.85, "Node fs.rmSync recursive"},
	{regexp.MustCompile(`os\.RemoveAll\s*\(`), 0.75, "Go os.RemoveAll"},
	{regexp.MustCompile(`FileUtils\.rm_rf\b`), 0.85, "Ruby FileUtils.rm_rf"},
	{regexp.MustCompile(`(?i)\bos\.kill\s*\(.*SIGKILL`), 0.7, "process kill with SIGKILL"},
	{regexp.MustCompile(`(?i)\bprocess\.kill\s*\(`), 0.6, "Node process.kill"},
	{regexp.MustCompile(`(?i)\bkillall\b|\bpkill\s+-9\b`), 0.65, "kill/pkill -9 idiom"},
}

func detectCode(text string, cfg DestructiveConfig) (clawsec.Detection, bool) {
	for _, r := range codeRules {
		if r.re.MatchString(text) {
			return clawsec.Detection{
				Category:   clawsec.CategoryDestructive,
				Severity:   cfg.Severity,
				Confidence: r.confidence,
				Reason:     r.reason,
				Metadata:   map[string]string{"subdetector": "code"},
			}, true
		}
	}
	for _, pattern := range cfg.CodePatterns {
		re, warn := compileSafe(pattern)
		if warn != "" {
			appendWarning(cfg.Warnings, warn)
			continue
		}
		if re.MatchString(text) {
			return clawsec.Detection{
				Category:   clawsec.CategoryDestructive,
				Severity:   cfg.Severity,
				Confidence: 0.8,
				Reason:     fmt.Sprintf("code matches configured pattern %q", pattern),
				Metadata:   map[string]string{"subdetector": "code"},
			}, true
		}
	}
	return clawsec.Detection{}, false
}

// NewDestructiveDetector builds the merged Destructive family detector.
func NewDestructiveDetector(cfg DestructiveConfig) clawsec.Detector {
	return clawsec.DetectorFunc{
		Cat: clawsec.CategoryDestructive,
		Fn: func(call clawsec.ToolCall) (clawsec.Detection, bool) {
			return detectDestructive(call, cfg)
		},
	}
}

func detectDestructive(call clawsec.ToolCall, cfg DestructiveConfig) (clawsec.Detection, bool) {
	text := destructiveText(call)
	if text == "" {
		return clawsec.Detection{}, false
	}

	var hits []clawsec.Detection
	if d, ok := detectShell(text, cfg); ok {
		hits = append(hits, d)
	}
	if d, ok := detectCloud(text, cfg); ok {
		hits = append(hits, d)
	}
	if d, ok := detectCode(text, cfg); ok {
		hits = append(hits, d)
	}
	return mergeSubResults(hits)
}

func destructiveText(call clawsec.ToolCall) string {
	if cmd, ok := stringField(call.Input, "command", "cmd", "script", "code"); ok {
		return cmd
	}
	var b strings.Builder
	walkStrings(call.Input, func(s string) { b.WriteString(s); b.WriteString("\n") })
	return b.String()
}

func min1(f float64) float64 {
	if f > 0.99 {
		return 0.99
	}
	return f
}

func appendWarning(sink *[]string, msg string) {
	if sink != nil {
		*sink = append(*sink, msg)
	}
}
