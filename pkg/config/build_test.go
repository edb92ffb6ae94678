package config

import (
	"testing"

	"github.com/clawsec/clawsec/pkg/clawsec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProducesOneDetectorPerEnabledCategory(t *testing.T) {
	cfg := Default()
	comps, err := Build(cfg)
	require.NoError(t, err)
	assert.Len(t, comps.Detectors, 5)
	assert.True(t, comps.Enabled)
	assert.Equal(t, "_clawsec_confirm", comps.ConfirmParam)
}

func TestBuildSkipsDisabledCategories(t *testing.T) {
	cfg := Default()
	cfg.Rules.Website.Enabled = false
	comps, err := Build(cfg)
	require.NoError(t, err)
	assert.Len(t, comps.Detectors, 4)
}

func TestBuildDefaultsConfirmParamWhenUnset(t *testing.T) {
	cfg := Default()
	cfg.Approval.AgentConfirm.ParameterName = ""
	comps, err := Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, "_clawsec_confirm", comps.ConfirmParam)
}

func TestBuildCompilesExplicitActionOverride(t *testing.T) {
	cfg := Default()
	cfg.Rules.Purchase.Action = "block"
	comps, err := Build(cfg)
	require.NoError(t, err)
	rule, ok := comps.Rules[clawsec.CategoryPurchase]
	require.True(t, ok)
	assert.Equal(t, clawsec.ActionBlock, rule.Action)
}

func TestBuildCompilesCELCondition(t *testing.T) {
	cfg := Default()
	cfg.Rules.Website.Condition = "confidence > 0.9"
	cfg.Rules.Website.ConditionAction = "block"
	comps, err := Build(cfg)
	require.NoError(t, err)
	rule, ok := comps.Rules[clawsec.CategoryWebsite]
	require.True(t, ok)
	require.NotNil(t, rule.CEL)
}

func TestBuildRejectsConditionWithoutConditionAction(t *testing.T) {
	cfg := Default()
	cfg.Rules.Website.Condition = "confidence > 0.9"
	_, err := Build(cfg)
	assert.Error(t, err)
}

func TestBuildRejectsInvalidCELExpression(t *testing.T) {
	cfg := Default()
	cfg.Rules.Website.Condition = "this is not valid cel ((("
	cfg.Rules.Website.ConditionAction = "block"
	_, err := Build(cfg)
	assert.Error(t, err)
}

func TestBuildCompilesRegoRule(t *testing.T) {
	cfg := Default()
	cfg.Rules.Destructive.Rego = `
package clawsec

default decision = {"action": "warn"}
`
	comps, err := Build(cfg)
	require.NoError(t, err)
	rule, ok := comps.Rules[clawsec.CategoryDestructive]
	require.True(t, ok)
	require.NotNil(t, rule.Rego)
}

func TestBuildNoOverrideMeansNoRuleEntry(t *testing.T) {
	cfg := Default()
	cfg.Rules.Secrets.Severity = ""
	comps, err := Build(cfg)
	require.NoError(t, err)
	_, ok := comps.Rules[clawsec.CategorySecrets]
	assert.False(t, ok, "no explicit action/condition/severity means the table decides alone")
}
