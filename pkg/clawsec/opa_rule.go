package clawsec

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// RegoRule is a per-category inline Rego override, prepared once at config
// load time (mirroring PreparedEvalQuery compile-once/evaluate-many) so the
// hot analyze() path never pays Rego's compile cost.
type RegoRule struct {
	category ThreatCategory
	prepared rego.PreparedEvalQuery
	source   string
}

// PrepareRegoRule compiles an inline Rego module for one category. The
// module must define data.clawsec.decision, an object with an "action"
// field drawn from {allow, log, warn, confirm, block}.
func PrepareRegoRule(category ThreatCategory, module string) (*RegoRule, error) {
	r := rego.New(
		rego.Query("data.clawsec.decision"),
		rego.Module(string(category)+".rego", module),
	)
	prepared, err := r.PrepareForEval(context.Background())
	if err != nil {
		return nil, newError(ErrKindConfig, "prepare rego rule for "+string(category), err)
	}
	return &RegoRule{category: category, prepared: prepared, source: module}, nil
}

// ruleInput is the structured value Rego and CEL rules see as `input`.
type ruleInput struct {
	ToolName   string            `json:"toolName"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Confidence float64           `json:"confidence"`
	Reason     string            `json:"reason"`
	Metadata   map[string]string `json:"metadata"`
}

func newRuleInput(call ToolCall, d Detection) ruleInput {
	return ruleInput{
		ToolName:   call.ToolName,
		Category:   string(d.Category),
		Severity:   d.Severity.String(),
		Confidence: d.Confidence,
		Reason:     d.Reason,
		Metadata:   d.Metadata,
	}
}

// Evaluate runs the prepared query and extracts {"action": "..."}. A missing
// or malformed result yields ("", false) so the resolver falls through to
// the next evaluation stage instead of erroring the whole call.
func (r *RegoRule) Evaluate(ctx context.Context, in ruleInput) (Action, bool) {
	results, err := r.prepared.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"toolName":   in.ToolName,
		"category":   in.Category,
		"severity":   in.Severity,
		"confidence": in.Confidence,
		"reason":     in.Reason,
		"metadata":   in.Metadata,
	}))
	if err != nil || len(results) == 0 || len(results[0].Expressions) == 0 {
		return "", false
	}
	obj, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return "", false
	}
	actionStr, ok := obj["action"].(string)
	if !ok {
		return "", false
	}
	switch NormalizeAction(actionStr) {
	case ActionAllow, ActionLog, ActionWarn, ActionConfirm, ActionBlock:
		return NormalizeAction(actionStr), true
	default:
		return "", false
	}
}

func (r *RegoRule) String() string {
	return fmt.Sprintf("rego-rule[%s]", r.category)
}
