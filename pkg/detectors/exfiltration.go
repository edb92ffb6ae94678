package detectors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/clawsec/clawsec/pkg/clawsec"
)

// ExfiltrationConfig configures the Exfiltration family's three
// sub-detectors: HTTP egress, cloud upload, raw network.
type ExfiltrationConfig struct {
	Severity        clawsec.Severity
	TrustedUploadTo []string // glob patterns; hosts/buckets here never flag as egress
	Warnings        *[]string
}

var sensitivePathHints = regexp.MustCompile(`(?i)(\.ssh|\.aws|\.env|id_rsa|credentials|secrets?|\.pem|\.key|/etc/passwd|/etc/shadow|dump\.sql|\.netrc)`)

func detectHTTPEgress(call clawsec.ToolCall, cfg ExfiltrationConfig) (clawsec.Detection, bool) {
	for _, u := range extractURLs(call) {
		host := hostOf(u)
		if host == "" {
			continue
		}
		if trustedHost(host, cfg.TrustedUploadTo) {
			continue
		}
		hasBody := false
		for _, key := range []string{"body", "data", "payload", "content"} {
			if _, ok := call.Input[key]; ok {
				hasBody = true
				break
			}
		}
		sensitive := false
		walkStrings(call.Input, func(s string) {
			if sensitivePathHints.MatchString(s) {
				sensitive = true
			}
		})
		if !hasBody && !sensitive {
			continue
		}
		conf := 0.6
		reason := fmt.Sprintf("outbound request to untrusted host %q carries a request body", host)
		if sensitive {
			conf = 0.85
			reason = fmt.Sprintf("outbound request to %q references a sensitive file path", host)
		}
		return clawsec.Detection{
			Category:   clawsec.CategoryExfiltration,
			Severity:   cfg.Severity,
			Confidence: conf,
			Reason:     reason,
			Metadata:   map[string]string{"host": host, "url": u, "subdetector": "http-egress"},
		}, true
	}
	return clawsec.Detection{}, false
}

var cloudUploadRules = []struct {
	re         *regexp.Regexp
	confidence float64
	provider   string
}{
	{regexp.MustCompile(`\baws\s+s3\s+cp\b.*\bs3://`), 0.75, "aws-s3"},
	{regexp.MustCompile(`\baws\s+s3\s+sync\b.*\bs3://`), 0.75, "aws-s3"},
	{regexp.MustCompile(`\bgsutil\s+cp\b.*\bgs://`), 0.75, "gcs"},
	{regexp.MustCompile(`\baz\s+storage\s+blob\s+upload\b`), 0.75, "azure-blob"},
	{regexp.MustCompile(`\brclone\s+copy\b`), 0.7, "rclone"},
	{regexp.MustCompile(`\bcurl\s+.*-F\s+["']?file=@`), 0.65, "http-multipart"},
	{regexp.MustCompile(`\bscp\s+.+\s+\S+@\S+:`), 0.7, "scp"},
}

func detectCloudUpload(text string, cfg ExfiltrationConfig) (clawsec.Detection, bool) {
	for _, r := range cloudUploadRules {
		if loc := r.re.FindString(text); loc != "" {
			if trustedInText(text, cfg.TrustedUploadTo) {
				continue
			}
			return clawsec.Detection{
				Category:   clawsec.CategoryExfiltration,
				Severity:   cfg.Severity,
				Confidence: r.confidence,
				Reason:     fmt.Sprintf("cloud upload command targets %s", r.provider),
				Metadata:   map[string]string{"subdetector": "cloud-upload", "provider": r.provider},
			}, true
		}
	}
	return clawsec.Detection{}, false
}

var rawNetworkRules = []struct {
	re         *regexp.Regexp
	confidence float64
	reason     string
}{
	{regexp.MustCompile(`\bnc\s+-[a-zA-Z]*l?[a-zA-Z]*\s+\d{1,3}(\.\d{1,3}){3}\s+\d+`), 0.7, "raw netcat connection to an IP:port"},
	{regexp.MustCompile(`/dev/tcp/`), 0.8, "bash /dev/tcp pseudo-device network redirection"},
	{regexp.MustCompile(`\bbase64\s+.*\|\s*(curl|nc|wget)\b`), 0.75, "base64-encoded payload piped to a network tool"},
	{regexp.MustCompile(`\bxxd\s+-r.*\|\s*(curl|nc|wget)\b`), 0.75, "hex-decoded payload piped to a network tool"},
	{regexp.MustCompile(`\bsocket\.socket\s*\(.*SOCK_STREAM`), 0.5, "raw socket construction"},
}

func detectRawNetwork(text string, cfg ExfiltrationConfig) (clawsec.Detection, bool) {
	for _, r := range rawNetworkRules {
		if r.re.MatchString(text) {
			return clawsec.Detection{
				Category:   clawsec.CategoryExfiltration,
				Severity:   cfg.Severity,
				Confidence: r.confidence,
				Reason:     r.reason,
				Metadata:   map[string]string{"subdetector": "raw-network"},
			}, true
		}
	}
	return clawsec.Detection{}, false
}

// NewExfiltrationDetector builds the merged Exfiltration family detector.
func NewExfiltrationDetector(cfg ExfiltrationConfig) clawsec.Detector {
	return clawsec.DetectorFunc{
		Cat: clawsec.CategoryExfiltration,
		Fn: func(call clawsec.ToolCall) (clawsec.Detection, bool) {
			return detectExfiltration(call, cfg)
		},
	}
}

func detectExfiltration(call clawsec.ToolCall, cfg ExfiltrationConfig) (clawsec.Detection, bool) {
	var hits []clawsec.Detection
	if d, ok := detectHTTPEgress(call, cfg); ok {
		hits = append(hits, d)
	}

	text := destructiveText(call)
	if text != "" {
		if d, ok := detectCloudUpload(text, cfg); ok {
			hits = append(hits, d)
		}
		if d, ok := detectRawNetwork(text, cfg); ok {
			hits = append(hits, d)
		}
	}

	return mergeSubResults(hits)
}

func trustedHost(host string, trusted []string) bool {
	for _, pattern := range trusted {
		if matchGlob(pattern, host) {
			return true
		}
	}
	return false
}

func trustedInText(text string, trusted []string) bool {
	lower := strings.ToLower(text)
	for _, pattern := range trusted {
		p := strings.ToLower(strings.TrimPrefix(pattern, "*."))
		if p != "" && strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
