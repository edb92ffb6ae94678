// Package secretpatterns is the single regex/validation catalogue for
// secret-shaped strings. It backs both detectors.Secrets (input-side)
// and sanitizer's secret filter (output-side) so the two can never
// drift apart: there is exactly one catalogue, not two copies that
// could fall out of sync.
package secretpatterns

import (
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"
)

// Match is one hit against the catalogue.
type Match struct {
	Type      string // short tag, e.g. "aws-secret-key", "jwt", "ssn", "credit-card"
	Start     int    // -1 if not a position in the original text (e.g. decoded content)
	End       int
	Value     string // the raw matched text
	Redacted  string // a redacted echo safe to log/display
	Severity  string // "critical" | "high" | "medium" suggested severity
}

// providerPattern is one vendor API key shape: prefix-anchored regex plus a
// total length bound, which is how real secret scanners (e.g. gitleaks)
// avoid false positives on merely prefix-shaped strings.
type providerPattern struct {
	typ     string
	re      *regexp.Regexp
	minLen  int
	maxLen  int
}

var providerPatterns = []providerPattern{
	{"aws-access-key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`), 20, 20},
	{"aws-secret-key", regexp.MustCompile(`(?i)aws(.{0,20})?(secret|access)[_-]?key(.{0,20})?[:=]\s*['"]?([A-Za-z0-9/+=]{40})['"]?`), 40, 200},
	{"github-token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36,}`), 40, 255},
	{"stripe-key", regexp.MustCompile(`(?:sk|pk|rk)_(?:live|test)_[A-Za-z0-9]{24,}`), 30, 120},
	{"slack-token", regexp.MustCompile(`xox[baprs]-[A-Za-z0-9-]{10,}`), 20, 200},
	{"google-api-key", regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`), 39, 39},
	{"openai-key", regexp.MustCompile(`sk-[A-Za-z0-9]{20,}T3BlbkFJ[A-Za-z0-9]{20,}|sk-proj-[A-Za-z0-9_-]{20,}`), 30, 200},
	{"anthropic-key", regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`), 30, 200},
	{"npm-token", regexp.MustCompile(`npm_[A-Za-z0-9]{36}`), 40, 40},
	{"private-key-pem", regexp.MustCompile(`-----BEGIN (RSA |EC |OPENSSH |DSA |)PRIVATE KEY-----`), 10, 60},
}

// ScanProviderKeys finds vendor API keys and private-key PEM headers.
func ScanProviderKeys(s string) []Match {
	var out []Match
	for _, p := range providerPatterns {
		for _, loc := range p.re.FindAllStringIndex(s, -1) {
			value := s[loc[0]:loc[1]]
			if len(value) < p.minLen || len(value) > p.maxLen {
				continue
			}
			out = append(out, Match{
				Type:     p.typ,
				Start:    loc[0],
				End:      loc[1],
				Value:    value,
				Redacted: redactEcho(p.typ, value),
				Severity: "critical",
			})
		}
	}
	return out
}

var (
	jwtRe     = regexp.MustCompile(`eyJ[A-Za-z0-9_-]{5,}\.eyJ[A-Za-z0-9_-]{5,}\.[A-Za-z0-9_-]{5,}`)
	bearerRe  = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/-]{10,}=*`)
	sessionRe = regexp.MustCompile(`(?i)(session|refresh)[_-]?token[\"']?\s*[:=]\s*[\"']?[A-Za-z0-9._-]{16,}`)
)

// ScanTokens finds JWTs (validated by decodable header/payload segments)
// and bearer/session/refresh token assignments.
func ScanTokens(s string) []Match {
	var out []Match
	for _, loc := range jwtRe.FindAllStringIndex(s, -1) {
		value := s[loc[0]:loc[1]]
		if !looksLikeJWT(value) {
			continue
		}
		out = append(out, Match{Type: "jwt", Start: loc[0], End: loc[1], Value: value, Redacted: redactEcho("jwt", value), Severity: "critical"})
	}
	for _, loc := range bearerRe.FindAllStringIndex(s, -1) {
		value := s[loc[0]:loc[1]]
		out = append(out, Match{Type: "bearer-token", Start: loc[0], End: loc[1], Value: value, Redacted: redactEcho("bearer-token", value), Severity: "critical"})
	}
	for _, loc := range sessionRe.FindAllStringIndex(s, -1) {
		value := s[loc[0]:loc[1]]
		typ := "session-token"
		if strings.Contains(strings.ToLower(value), "refresh") {
			typ = "refresh-token"
		}
		out = append(out, Match{Type: typ, Start: loc[0], End: loc[1], Value: value, Redacted: redactEcho(typ, value), Severity: "high"})
	}
	return out
}

// looksLikeJWT verifies the three-segment structure decodes to plausible
// base64url JSON header/payload, not just three dot-separated blobs.
func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts[:2] {
		if _, err := base64.RawURLEncoding.DecodeString(part); err != nil {
			// tolerate missing padding variants
			if _, err2 := base64.URLEncoding.DecodeString(padBase64(part)); err2 != nil {
				return false
			}
		}
	}
	return true
}

func padBase64(s string) string {
	if m := len(s) % 4; m != 0 {
		s += strings.Repeat("=", 4-m)
	}
	return s
}

var ssnRe = regexp.MustCompile(`\b(\d{3})-(\d{2})-(\d{4})\b`)

// ScanSSN finds US Social Security Numbers, rejecting area 000/666/900-999,
// group 00, and serial 0000 per the issuance rules the spec codifies (§8.7).
func ScanSSN(s string) []Match {
	var out []Match
	for _, loc := range ssnRe.FindAllStringSubmatchIndex(s, -1) {
		value := s[loc[0]:loc[1]]
		area, _ := strconv.Atoi(s[loc[2]:loc[3]])
		group, _ := strconv.Atoi(s[loc[4]:loc[5]])
		serial, _ := strconv.Atoi(s[loc[6]:loc[7]])
		if !ValidSSN(area, group, serial) {
			continue
		}
		out = append(out, Match{Type: "ssn", Start: loc[0], End: loc[1], Value: value, Redacted: "[REDACTED:ssn]", Severity: "high"})
	}
	return out
}

// ValidSSN applies the area/group/serial rules.
func ValidSSN(area, group, serial int) bool {
	if area == 0 || area == 666 || area >= 900 {
		return false
	}
	if group == 0 {
		return false
	}
	if serial == 0 {
		return false
	}
	return true
}

var ccRe = regexp.MustCompile(`\b(?:\d[ -]?){13,19}\b`)

// ScanCreditCard finds Luhn-valid 13-19 digit candidates, rejecting
// all-same-digit and monotonically ascending sequences (§8.6).
func ScanCreditCard(s string) []Match {
	var out []Match
	for _, loc := range ccRe.FindAllStringIndex(s, -1) {
		raw := s[loc[0]:loc[1]]
		digits := stripNonDigits(raw)
		if len(digits) < 13 || len(digits) > 19 {
			continue
		}
		if !ValidCreditCard(digits) {
			continue
		}
		out = append(out, Match{Type: "credit-card", Start: loc[0], End: loc[1], Value: raw, Redacted: "[REDACTED:credit-card]", Severity: "high"})
	}
	return out
}

// ValidCreditCard reports whether digits is a Luhn-valid candidate that is
// not all the same digit and not a monotonically ascending sequence.
func ValidCreditCard(digits string) bool {
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	if allSameDigit(digits) || isAscending(digits) {
		return false
	}
	return luhnValid(digits)
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allSameDigit(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

func isAscending(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[i-1]+1 {
			return false
		}
	}
	return true
}

func luhnValid(digits string) bool {
	sum := 0
	alt := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if alt {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		alt = !alt
	}
	return sum%10 == 0
}

var emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// ScanEmail finds email addresses. Redaction preserves the domain so a
// reviewer can still see which service leaked, e.g. "[REDACTED]@example.com".
func ScanEmail(s string) []Match {
	var out []Match
	for _, loc := range emailRe.FindAllStringIndex(s, -1) {
		value := s[loc[0]:loc[1]]
		at := strings.LastIndex(value, "@")
		redacted := "[REDACTED]" + value[at:]
		out = append(out, Match{Type: "email", Start: loc[0], End: loc[1], Value: value, Redacted: redacted, Severity: "medium"})
	}
	return out
}

var genericRe = regexp.MustCompile(`(?i)(password|passwd|pwd|api_key|apikey|secret|token)\s*[:=]\s*['"]?([^\s'"]{6,})['"]?`)

// ScanGenericAssignment finds password=/api_key=-shaped assignments the
// provider-specific patterns miss.
func ScanGenericAssignment(s string) []Match {
	var out []Match
	for _, loc := range genericRe.FindAllStringSubmatchIndex(s, -1) {
		out = append(out, Match{
			Type:     "generic-credential",
			Start:    loc[0],
			End:      loc[1],
			Value:    s[loc[0]:loc[1]],
			Redacted: s[loc[2]:loc[3]] + "=[REDACTED:generic-credential]",
			Severity: "high",
		})
	}
	return out
}

// ScanAll runs every sub-scanner and returns the union, unsorted.
func ScanAll(s string, includeEmail bool) []Match {
	var out []Match
	out = append(out, ScanProviderKeys(s)...)
	out = append(out, ScanTokens(s)...)
	out = append(out, ScanSSN(s)...)
	out = append(out, ScanCreditCard(s)...)
	out = append(out, ScanGenericAssignment(s)...)
	if includeEmail {
		out = append(out, ScanEmail(s)...)
	}
	return out
}

func redactEcho(typ, value string) string {
	if len(value) <= 8 {
		return "[REDACTED:" + typ + "]"
	}
	return value[:4] + "…[REDACTED:" + typ + "]"
}
