package clawsec

import "context"

// RuleConfig is the per-category policy an operator may configure. Zero
// value means "no override, use the table" for every field.
type RuleConfig struct {
	Severity Severity
	// Action, if non-empty, wins over everything else (§4.1.1, "explicit
	// rule action wins over the confidence band").
	Action Action
	CEL    *CELRule
	Rego   *RegoRule
}

// ambiguousBand reports whether (severity, confidence) falls in the range
// that may be escalated to the oracle, per the §4.1.1 table.
func ambiguousBand(sev Severity, confidence float64) bool {
	switch sev {
	case SeverityCritical:
		return confidence >= 0.5 && confidence <= 0.8
	case SeverityHigh:
		return confidence >= 0.5 && confidence <= 0.7
	case SeverityMedium:
		return confidence >= 0.5 && confidence <= 0.8
	default:
		return false
	}
}

// tableAction implements the static severity/confidence table.
func tableAction(sev Severity, confidence float64) (Action, bool) {
	switch sev {
	case SeverityCritical:
		switch {
		case confidence > 0.8:
			return ActionBlock, false
		case confidence >= 0.5:
			return ActionConfirm, true
		default:
			return ActionConfirm, false
		}
	case SeverityHigh:
		switch {
		case confidence > 0.7:
			return ActionConfirm, false
		case confidence >= 0.5:
			return ActionWarn, true
		default:
			return ActionWarn, false
		}
	case SeverityMedium:
		if confidence >= 0.5 && confidence <= 0.8 {
			return ActionWarn, true
		}
		return ActionWarn, false
	default: // SeverityLow
		return ActionAllow, false
	}
}

// resolveAction implements §4.1.1: no detections -> allow; else explicit
// rule action, then CEL condition, then Rego condition, then the static
// table. Returns the action and whether oracle escalation should be
// attempted (still gated by oracle enabled+available at the call site).
func resolveAction(ctx context.Context, call ToolCall, detections []Detection, rules map[ThreatCategory]RuleConfig) (Action, bool) {
	if len(detections) == 0 {
		return ActionAllow, false
	}
	primary := detections[0]

	rule, hasRule := rules[primary.Category]
	if hasRule && rule.Action != "" {
		return NormalizeAction(string(rule.Action)), false
	}

	in := newRuleInput(call, primary)

	if hasRule && rule.CEL != nil {
		if rule.CEL.Evaluate(in) {
			return rule.CEL.ConditionAction, false
		}
	}

	if hasRule && rule.Rego != nil {
		if action, ok := rule.Rego.Evaluate(ctx, in); ok {
			return action, false
		}
	}

	return tableAction(primary.Severity, primary.Confidence)
}
