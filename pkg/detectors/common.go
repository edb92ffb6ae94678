// Package detectors implements the five pattern-detector threat families
// (§4.2): Purchase, Website, Destructive, Secrets, Exfiltration. Every
// detector is a pure, non-blocking function of (toolName, toolInput,
// optional URL) and its own immutable configuration, so the engine can run
// all five concurrently within one analyze() call.
package detectors

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/clawsec/clawsec/pkg/clawsec"
)

// extractURLs walks the input tree looking for string values that parse as
// absolute URLs, plus call.URL if the caller already populated it.
func extractURLs(call clawsec.ToolCall) []string {
	var out []string
	if call.URL != "" {
		out = append(out, call.URL)
	}
	walkStrings(call.Input, func(s string) {
		if u, err := url.Parse(s); err == nil && u.Scheme != "" && u.Host != "" {
			out = append(out, s)
		}
	})
	return out
}

func walkStrings(v interface{}, fn func(string)) {
	switch t := v.(type) {
	case string:
		fn(t)
	case map[string]interface{}:
		for _, vv := range t {
			walkStrings(vv, fn)
		}
	case []interface{}:
		for _, vv := range t {
			walkStrings(vv, fn)
		}
	}
}

func stringField(input map[string]interface{}, names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := input[name]; ok {
			if s, ok := v.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

func numberField(input map[string]interface{}, names ...string) (float64, bool) {
	for _, name := range names {
		v, ok := input[name]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		}
	}
	return 0, false
}

// compileSafe compiles a user-supplied regex, returning (nil, warning) on a
// bad pattern instead of aborting detection (§4.2: "Invalid user-supplied
// regex patterns are skipped with a warning; a bad pattern never aborts
// detection.").
func compileSafe(pattern string) (*regexp.Regexp, string) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Sprintf("invalid regex %q: %v", pattern, err)
	}
	return re, ""
}

// matchGlob implements the glob semantics §4.2 specifies for Website (and
// reused by Purchase's domain blocklist): "*.example.com" matches any
// subdomain but not the apex; "example.com" is exact; a bare "*" matches
// everything.
func matchGlob(pattern, host string) bool {
	host = strings.ToLower(host)
	pattern = strings.ToLower(pattern)
	if pattern == "*" {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		suffix := pattern[1:] // ".example.com"
		return strings.HasSuffix(host, suffix) && host != suffix[1:]
	}
	if ok, _ := path.Match(pattern, host); ok {
		return true
	}
	return pattern == host
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}

// mergeSubResults implements the shared Destructive/Exfiltration merge rule
// (§4.2): keep the highest-confidence sub-result as primary, append the
// others' reasons, boost confidence by 0.05*(n-1) capped at 0.99, preserve
// the primary's metadata.
func mergeSubResults(results []clawsec.Detection) (clawsec.Detection, bool) {
	if len(results) == 0 {
		return clawsec.Detection{}, false
	}
	primary := results[0]
	for _, r := range results[1:] {
		if r.Confidence > primary.Confidence || (r.Confidence == primary.Confidence && r.Severity > primary.Severity) {
			primary = r
		}
	}

	reasons := []string{primary.Reason}
	for _, r := range results {
		if r.Reason == primary.Reason {
			continue
		}
		reasons = append(reasons, r.Reason)
	}

	boosted := primary
	boosted.Reason = strings.Join(reasons, "; ")
	if len(results) > 1 {
		boost := 0.05 * float64(len(results)-1)
		boosted.Confidence += boost
		if boosted.Confidence > 0.99 {
			boosted.Confidence = 0.99
		}
	}
	return boosted, true
}
