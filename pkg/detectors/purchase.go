package detectors

import (
	"fmt"
	"strings"

	"github.com/clawsec/clawsec/pkg/clawsec"
)

// DomainMode mirrors WebsiteMode for the Purchase detector's own domain
// matcher (§4.2: "Domain mode is allowlist or blocklist; allowlist mode
// blocks anything not allowlisted.").
type DomainMode string

const (
	DomainAllowlist DomainMode = "allowlist"
	DomainBlocklist DomainMode = "blocklist"
)

// SpendLimits are the numeric caps from rules.purchase.spendLimits.
type SpendLimits struct {
	PerTransaction float64
	Daily          float64
}

// PurchaseConfig configures the Purchase detector.
type PurchaseConfig struct {
	DomainMode     DomainMode
	PaymentDomains []string // known payment domains / glob blocklist
	Severity       clawsec.Severity
	SpendLimits    SpendLimits
}

// knownPaymentPaths are checkout/order/billing/api paths with tiered
// confidence, as §4.2 specifies.
var knownPaymentPaths = []struct {
	pattern    string
	confidence float64
}{
	{"/checkout", 0.9},
	{"/cart/checkout", 0.9},
	{"/order", 0.75},
	{"/orders", 0.75},
	{"/billing", 0.8},
	{"/pay", 0.85},
	{"/payment", 0.85},
	{"/api/charges", 0.9},
	{"/api/payment_intents", 0.9},
	{"/subscribe", 0.6},
}

var purchaseFormFields = []string{"card_number", "cardNumber", "cvv", "cvc", "card_cvc", "amount", "price", "total", "expiry", "exp_month", "exp_year"}

// NewPurchaseDetector builds a Detector for the Purchase family.
func NewPurchaseDetector(cfg PurchaseConfig) clawsec.Detector {
	return clawsec.DetectorFunc{
		Cat: clawsec.CategoryPurchase,
		Fn: func(call clawsec.ToolCall) (clawsec.Detection, bool) {
			return detectPurchase(call, cfg)
		},
	}
}

func detectPurchase(call clawsec.ToolCall, cfg PurchaseConfig) (clawsec.Detection, bool) {
	var best *clawsec.Detection

	consider := func(d clawsec.Detection) {
		if best == nil || d.Confidence > best.Confidence {
			dd := d
			best = &dd
		}
	}

	for _, u := range extractURLs(call) {
		host := hostOf(u)
		if host == "" {
			continue
		}
		if blocked, reason := evaluatePurchaseDomain(host, cfg); blocked {
			consider(clawsec.Detection{
				Category:   clawsec.CategoryPurchase,
				Severity:   cfg.Severity,
				Confidence: 0.92,
				Reason:     reason,
				Metadata:   map[string]string{"domain": host, "url": u},
			})
		}

		p := pathOf(u)
		for _, pp := range knownPaymentPaths {
			if strings.Contains(strings.ToLower(p), pp.pattern) {
				consider(clawsec.Detection{
					Category:   clawsec.CategoryPurchase,
					Severity:   cfg.Severity,
					Confidence: pp.confidence,
					Reason:     fmt.Sprintf("url path %q matches payment pattern %q", p, pp.pattern),
					Metadata:   map[string]string{"domain": host, "url": u, "path": p},
				})
			}
		}
	}

	for _, field := range purchaseFormFields {
		if _, ok := call.Input[field]; ok {
			consider(clawsec.Detection{
				Category:   clawsec.CategoryPurchase,
				Severity:   cfg.Severity,
				Confidence: 0.65,
				Reason:     fmt.Sprintf("input contains purchase form field %q", field),
				Metadata:   map[string]string{"field": field},
			})
		}
	}

	if amount, ok := numberField(call.Input, "amount", "price", "total"); ok {
		if d, hit := evaluateSpendLimit(amount, cfg.SpendLimits); hit {
			consider(d)
		}
	}

	if best == nil {
		return clawsec.Detection{}, false
	}
	return *best, true
}

func evaluatePurchaseDomain(host string, cfg PurchaseConfig) (bool, string) {
	switch cfg.DomainMode {
	case DomainAllowlist:
		for _, pattern := range cfg.PaymentDomains {
			if matchGlob(pattern, host) {
				return false, ""
			}
		}
		return true, fmt.Sprintf("domain %q is not on the payment allowlist", host)
	case DomainBlocklist:
		for _, pattern := range cfg.PaymentDomains {
			if matchGlob(pattern, host) {
				return true, fmt.Sprintf("domain %q matches payment domain pattern %q", host, pattern)
			}
		}
		return false, ""
	default:
		// No explicit mode: known payment domains are still a signal.
		for _, pattern := range cfg.PaymentDomains {
			if matchGlob(pattern, host) {
				return true, fmt.Sprintf("domain %q is a known payment domain", host)
			}
		}
		return false, ""
	}
}

func evaluateSpendLimit(amount float64, limits SpendLimits) (clawsec.Detection, bool) {
	if limits.PerTransaction > 0 && amount > limits.PerTransaction {
		return clawsec.Detection{
			Category:   clawsec.CategoryPurchase,
			Severity:   clawsec.SeverityHigh,
			Confidence: 0.9,
			Reason:     fmt.Sprintf("amount %.2f exceeds per-transaction limit %.2f", amount, limits.PerTransaction),
			Metadata:   map[string]string{"amount": fmt.Sprintf("%.2f", amount), "limit": "per_transaction"},
		}, true
	}
	if limits.Daily > 0 && amount > limits.Daily {
		return clawsec.Detection{
			Category:   clawsec.CategoryPurchase,
			Severity:   clawsec.SeverityMedium,
			Confidence: 0.7,
			Reason:     fmt.Sprintf("amount %.2f exceeds configured daily limit %.2f in a single call", amount, limits.Daily),
			Metadata:   map[string]string{"amount": fmt.Sprintf("%.2f", amount), "limit": "daily"},
		}, true
	}
	return clawsec.Detection{}, false
}
