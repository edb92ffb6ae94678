package clawsec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveActionEmptyDetections(t *testing.T) {
	action, wantsOracle := resolveAction(context.Background(), ToolCall{}, nil, nil)
	assert.Equal(t, ActionAllow, action)
	assert.False(t, wantsOracle)
}

func TestResolveActionTableFallback(t *testing.T) {
	tests := []struct {
		name       string
		severity   Severity
		confidence float64
		wantAction Action
	}{
		{"critical high confidence blocks", SeverityCritical, 0.95, ActionBlock},
		{"critical ambiguous confirms", SeverityCritical, 0.6, ActionConfirm},
		{"critical low confidence still confirms", SeverityCritical, 0.2, ActionConfirm},
		{"high confidence confirms", SeverityHigh, 0.9, ActionConfirm},
		{"high ambiguous warns", SeverityHigh, 0.6, ActionWarn},
		{"medium ambiguous warns", SeverityMedium, 0.7, ActionWarn},
		{"low always allows", SeverityLow, 0.99, ActionAllow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detections := []Detection{{Category: CategoryDestructive, Severity: tt.severity, Confidence: tt.confidence}}
			action, _ := resolveAction(context.Background(), ToolCall{}, detections, nil)
			assert.Equal(t, tt.wantAction, action)
		})
	}
}

func TestResolveActionExplicitOverrideWinsOverTable(t *testing.T) {
	detections := []Detection{{Category: CategoryPurchase, Severity: SeverityLow, Confidence: 0.1}}
	rules := map[ThreatCategory]RuleConfig{
		CategoryPurchase: {Action: ActionBlock},
	}
	action, wantsOracle := resolveAction(context.Background(), ToolCall{}, detections, rules)
	assert.Equal(t, ActionBlock, action)
	assert.False(t, wantsOracle)
}

func TestResolveActionCELConditionBeatsTable(t *testing.T) {
	cel, err := PrepareCELRule(CategoryWebsite, `confidence > 0.9`, ActionBlock)
	require.NoError(t, err)

	detections := []Detection{{Category: CategoryWebsite, Severity: SeverityLow, Confidence: 0.95}}
	rules := map[ThreatCategory]RuleConfig{CategoryWebsite: {CEL: cel}}

	action, _ := resolveAction(context.Background(), ToolCall{}, detections, rules)
	assert.Equal(t, ActionBlock, action)
}

func TestResolveActionCELConditionFalseFallsThroughToTable(t *testing.T) {
	cel, err := PrepareCELRule(CategoryWebsite, `confidence > 0.9`, ActionBlock)
	require.NoError(t, err)

	detections := []Detection{{Category: CategoryWebsite, Severity: SeverityLow, Confidence: 0.1}}
	rules := map[ThreatCategory]RuleConfig{CategoryWebsite: {CEL: cel}}

	action, _ := resolveAction(context.Background(), ToolCall{}, detections, rules)
	assert.Equal(t, ActionAllow, action)
}
