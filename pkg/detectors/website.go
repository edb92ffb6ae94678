package detectors

import (
	"fmt"
	"strings"

	"github.com/clawsec/clawsec/pkg/clawsec"
)

// WebsiteMode is the domain-matching policy for the Website detector.
type WebsiteMode string

const (
	WebsiteAllowlist WebsiteMode = "allowlist"
	WebsiteBlocklist WebsiteMode = "blocklist"
)

// WebsiteConfig configures the Website detector.
type WebsiteConfig struct {
	Mode      WebsiteMode
	Allowlist []string
	Blocklist []string
	Severity  clawsec.Severity // severity for a plain allow/blocklist match
	Warnings  *[]string        // optional sink for invalid-regex-style warnings (unused here, glob only)
}

// hostCategory classifies a host beyond plain allow/block matching.
// Malware/phishing are always critical regardless of mode; gambling/adult
// are medium warnings in blocklist mode only.
type hostCategory int

const (
	categoryNone hostCategory = iota
	categoryMalware
	categoryPhishing
	categoryGambling
	categoryAdult
)

// knownBadHosts is a small built-in seed list; operators extend via
// rules.website.blocklist in the real deployment, this is the "known
// categories" the detector ships with out of the box.
var knownBadHosts = map[string]hostCategory{
	"malware-test.example":     categoryMalware,
	"phishing-test.example":    categoryPhishing,
	"totally-not-phishing.biz": categoryPhishing,
	"casino.example":           categoryGambling,
	"bet365.example":           categoryGambling,
	"adult.example":            categoryAdult,
}

// NewWebsiteDetector builds a Detector for the Website family.
func NewWebsiteDetector(cfg WebsiteConfig) clawsec.Detector {
	return clawsec.DetectorFunc{
		Cat: clawsec.CategoryWebsite,
		Fn: func(call clawsec.ToolCall) (clawsec.Detection, bool) {
			return detectWebsite(call, cfg)
		},
	}
}

func detectWebsite(call clawsec.ToolCall, cfg WebsiteConfig) (clawsec.Detection, bool) {
	urls := extractURLs(call)
	if len(urls) == 0 {
		return clawsec.Detection{}, false
	}

	for _, u := range urls {
		host := hostOf(u)
		if host == "" {
			continue
		}

		if cat := classifyHost(host); cat == categoryMalware || cat == categoryPhishing {
			name := "malware"
			if cat == categoryPhishing {
				name = "phishing"
			}
			return clawsec.Detection{
				Category:   clawsec.CategoryWebsite,
				Severity:   clawsec.SeverityCritical,
				Confidence: 0.98,
				Reason:     fmt.Sprintf("host %q is a known %s site", host, name),
				Metadata:   map[string]string{"host": host, "url": u, "classification": name},
			}, true
		}

		blocked, reason := evaluateMode(host, cfg)
		if blocked {
			return clawsec.Detection{
				Category:   clawsec.CategoryWebsite,
				Severity:   cfg.Severity,
				Confidence: 0.85,
				Reason:     reason,
				Metadata:   map[string]string{"host": host, "url": u, "mode": string(cfg.Mode)},
			}, true
		}

		if cat := classifyHost(host); cfg.Mode == WebsiteBlocklist && (cat == categoryGambling || cat == categoryAdult) {
			name := "gambling"
			if cat == categoryAdult {
				name = "adult"
			}
			return clawsec.Detection{
				Category:   clawsec.CategoryWebsite,
				Severity:   clawsec.SeverityMedium,
				Confidence: 0.7,
				Reason:     fmt.Sprintf("host %q is classified %s", host, name),
				Metadata:   map[string]string{"host": host, "url": u, "classification": name},
			}, true
		}
	}
	return clawsec.Detection{}, false
}

func classifyHost(host string) hostCategory {
	host = strings.ToLower(host)
	if cat, ok := knownBadHosts[host]; ok {
		return cat
	}
	return categoryNone
}

func evaluateMode(host string, cfg WebsiteConfig) (bool, string) {
	switch cfg.Mode {
	case WebsiteAllowlist:
		for _, pattern := range cfg.Allowlist {
			if matchGlob(pattern, host) {
				return false, ""
			}
		}
		return true, fmt.Sprintf("host %q is not on the allowlist", host)
	case WebsiteBlocklist:
		for _, pattern := range cfg.Blocklist {
			if matchGlob(pattern, host) {
				return true, fmt.Sprintf("host %q matches blocklist pattern %q", host, pattern)
			}
		}
		return false, ""
	default:
		return false, ""
	}
}
