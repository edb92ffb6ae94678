package clawsec

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// CELRule is a per-category boolean condition compiled once at config load
// time. When it evaluates true for a detection, ConditionAction is used
// verbatim instead of the severity/confidence table.
type CELRule struct {
	category        ThreatCategory
	program         cel.Program
	ConditionAction Action
	source          string
}

var celEnv *cel.Env

func init() {
	env, err := cel.NewEnv(
		cel.Variable("toolName", cel.StringType),
		cel.Variable("category", cel.StringType),
		cel.Variable("severity", cel.StringType),
		cel.Variable("confidence", cel.DoubleType),
		cel.Variable("reason", cel.StringType),
		cel.Variable("metadata", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		// The fixed variable set above is controlled entirely by this
		// package; a failure here means the build itself is broken.
		panic(fmt.Sprintf("clawsec: cel environment construction failed: %v", err))
	}
	celEnv = env
}

// PrepareCELRule compiles a boolean expression for one category, e.g.
// `confidence > 0.9 && metadata.domain.endsWith("stripe.com")`.
func PrepareCELRule(category ThreatCategory, expr string, conditionAction Action) (*CELRule, error) {
	ast, issues := celEnv.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, newError(ErrKindConfig, "compile cel condition for "+string(category), issues.Err())
	}
	program, err := celEnv.Program(ast)
	if err != nil {
		return nil, newError(ErrKindConfig, "build cel program for "+string(category), err)
	}
	return &CELRule{category: category, program: program, ConditionAction: conditionAction, source: expr}, nil
}

// Evaluate runs the compiled condition. A runtime error or non-boolean
// result is treated as false, not fatal — the resolver falls through to the
// next evaluation stage.
func (r *CELRule) Evaluate(in ruleInput) bool {
	metadata := in.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	out, _, err := r.program.Eval(map[string]interface{}{
		"toolName":   in.ToolName,
		"category":   in.Category,
		"severity":   in.Severity,
		"confidence": in.Confidence,
		"reason":     in.Reason,
		"metadata":   metadata,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

func (r *CELRule) String() string {
	return fmt.Sprintf("cel-rule[%s]=%q", r.category, r.source)
}
