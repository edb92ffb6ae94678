package clawsec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCELRuleEvaluateTrue(t *testing.T) {
	rule, err := PrepareCELRule(CategoryWebsite, `confidence > 0.5 && category == "website"`, ActionBlock)
	require.NoError(t, err)

	in := ruleInput{Category: "website", Confidence: 0.9}
	assert.True(t, rule.Evaluate(in))
}

func TestCELRuleEvaluateFalse(t *testing.T) {
	rule, err := PrepareCELRule(CategoryWebsite, `confidence > 0.5`, ActionBlock)
	require.NoError(t, err)

	in := ruleInput{Category: "website", Confidence: 0.1}
	assert.False(t, rule.Evaluate(in))
}

func TestCELRuleMetadataAccess(t *testing.T) {
	rule, err := PrepareCELRule(CategoryPurchase, `metadata["domain"] == "stripe.com"`, ActionWarn)
	require.NoError(t, err)

	in := ruleInput{Metadata: map[string]string{"domain": "stripe.com"}}
	assert.True(t, rule.Evaluate(in))

	in2 := ruleInput{Metadata: map[string]string{"domain": "evil.example"}}
	assert.False(t, rule.Evaluate(in2))
}

func TestCELRuleNilMetadataDoesNotPanic(t *testing.T) {
	rule, err := PrepareCELRule(CategoryPurchase, `confidence >= 0.0`, ActionWarn)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		rule.Evaluate(ruleInput{})
	})
}

func TestPrepareCELRuleRejectsInvalidExpression(t *testing.T) {
	_, err := PrepareCELRule(CategoryWebsite, `this is not valid cel (`, ActionBlock)
	assert.Error(t, err)
}

func TestPrepareCELRuleRejectsNonBooleanExpression(t *testing.T) {
	rule, err := PrepareCELRule(CategoryWebsite, `confidence`, ActionBlock)
	require.NoError(t, err, "compiles fine, only evaluation should treat this as not-boolean")
	assert.False(t, rule.Evaluate(ruleInput{Confidence: 1.0}))
}
