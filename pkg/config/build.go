package config

import (
	"fmt"

	"github.com/clawsec/clawsec/pkg/clawsec"
	"github.com/clawsec/clawsec/pkg/detectors"
)

// Components is everything a Config compiles down to: the pieces an
// Engine.Reconfigure (or NewEngine) call needs. Building this is a pure
// function of Config — no I/O, so it can run on every watched reload
// without touching the filesystem again.
type Components struct {
	Enabled      bool
	Detectors    []clawsec.Detector
	Rules        map[clawsec.ThreatCategory]clawsec.RuleConfig
	ConfirmParam string
	Warnings     []string
}

// Build compiles a Config into Components: one Detector per enabled
// category, one RuleConfig per category carrying its explicit action and
// compiled CEL/Rego extension points.
func Build(cfg Config) (Components, error) {
	comps := Components{
		Enabled:      cfg.Global.Enabled,
		Rules:        make(map[clawsec.ThreatCategory]clawsec.RuleConfig),
		ConfirmParam: cfg.Approval.AgentConfirm.ParameterName,
	}
	if comps.ConfirmParam == "" {
		comps.ConfirmParam = "_clawsec_confirm"
	}

	warnings := &comps.Warnings

	if cfg.Rules.Purchase.Enabled {
		sev, _ := clawsec.ParseSeverity(cfg.Rules.Purchase.Severity)
		mode := detectors.DomainBlocklist
		if cfg.Rules.Purchase.DomainMode == "allowlist" {
			mode = detectors.DomainAllowlist
		}
		comps.Detectors = append(comps.Detectors, detectors.NewPurchaseDetector(detectors.PurchaseConfig{
			DomainMode:     mode,
			PaymentDomains: cfg.Rules.Purchase.PaymentDomains,
			Severity:       sev,
			SpendLimits: detectors.SpendLimits{
				PerTransaction: cfg.Rules.Purchase.SpendLimits.PerTransaction,
				Daily:          cfg.Rules.Purchase.SpendLimits.Daily,
			},
		}))
		if err := addRule(comps.Rules, clawsec.CategoryPurchase, cfg.Rules.Purchase.CommonRule); err != nil {
			return Components{}, err
		}
	}

	if cfg.Rules.Website.Enabled {
		sev, _ := clawsec.ParseSeverity(cfg.Rules.Website.Severity)
		mode := detectors.WebsiteBlocklist
		if cfg.Rules.Website.Mode == "allowlist" {
			mode = detectors.WebsiteAllowlist
		}
		comps.Detectors = append(comps.Detectors, detectors.NewWebsiteDetector(detectors.WebsiteConfig{
			Mode:      mode,
			Allowlist: cfg.Rules.Website.Allowlist,
			Blocklist: cfg.Rules.Website.Blocklist,
			Severity:  sev,
			Warnings:  warnings,
		}))
		if err := addRule(comps.Rules, clawsec.CategoryWebsite, cfg.Rules.Website.CommonRule); err != nil {
			return Components{}, err
		}
	}

	if cfg.Rules.Destructive.Enabled {
		sev, _ := clawsec.ParseSeverity(cfg.Rules.Destructive.Severity)
		comps.Detectors = append(comps.Detectors, detectors.NewDestructiveDetector(detectors.DestructiveConfig{
			Severity:      sev,
			ShellPatterns: cfg.Rules.Destructive.ShellPatterns,
			CloudPatterns: cfg.Rules.Destructive.CloudPatterns,
			CodePatterns:  cfg.Rules.Destructive.CodePatterns,
			Warnings:      warnings,
		}))
		if err := addRule(comps.Rules, clawsec.CategoryDestructive, cfg.Rules.Destructive.CommonRule); err != nil {
			return Components{}, err
		}
	}

	if cfg.Rules.Secrets.Enabled {
		sev, _ := clawsec.ParseSeverity(cfg.Rules.Secrets.Severity)
		comps.Detectors = append(comps.Detectors, detectors.NewSecretsDetector(detectors.SecretsConfig{
			Severity:     sev,
			IncludeEmail: cfg.Rules.Secrets.IncludeEmail,
		}))
		if err := addRule(comps.Rules, clawsec.CategorySecrets, cfg.Rules.Secrets.CommonRule); err != nil {
			return Components{}, err
		}
	}

	if cfg.Rules.Exfiltration.Enabled {
		sev, _ := clawsec.ParseSeverity(cfg.Rules.Exfiltration.Severity)
		comps.Detectors = append(comps.Detectors, detectors.NewExfiltrationDetector(detectors.ExfiltrationConfig{
			Severity:        sev,
			TrustedUploadTo: cfg.Rules.Exfiltration.TrustedUploadTo,
			Warnings:        warnings,
		}))
		if err := addRule(comps.Rules, clawsec.CategoryExfiltration, cfg.Rules.Exfiltration.CommonRule); err != nil {
			return Components{}, err
		}
	}

	return comps, nil
}

// addRule compiles one category's explicit action and CEL/Rego extension
// points into the RuleConfig map. A category absent from the result map
// means "no override, use the severity/confidence table" (§4.1.1).
func addRule(rules map[clawsec.ThreatCategory]clawsec.RuleConfig, cat clawsec.ThreatCategory, common CommonRule) error {
	sev, _ := clawsec.ParseSeverity(common.Severity)
	rc := clawsec.RuleConfig{Severity: sev}
	if common.Action != "" {
		rc.Action = clawsec.NormalizeAction(common.Action)
	}

	if common.Condition != "" {
		conditionAction := clawsec.NormalizeAction(common.ConditionAction)
		if conditionAction == "" {
			return fmt.Errorf("config: rules.%s.condition set without conditionAction", cat)
		}
		cel, err := clawsec.PrepareCELRule(cat, common.Condition, conditionAction)
		if err != nil {
			return fmt.Errorf("config: rules.%s.condition: %w", cat, err)
		}
		rc.CEL = cel
	}

	if common.Rego != "" {
		rego, err := clawsec.PrepareRegoRule(cat, common.Rego)
		if err != nil {
			return fmt.Errorf("config: rules.%s.rego: %w", cat, err)
		}
		rc.Rego = rego
	}

	if rc.Action != "" || rc.CEL != nil || rc.Rego != nil || common.Severity != "" {
		rules[cat] = rc
	}
	return nil
}
