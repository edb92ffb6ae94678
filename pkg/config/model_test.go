package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsEnabledAndSafe(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.Global.Enabled)
	assert.Equal(t, "1", cfg.Version)
	assert.True(t, cfg.Rules.Purchase.Enabled)
	assert.True(t, cfg.Rules.Website.Enabled)
	assert.True(t, cfg.Rules.Destructive.Enabled)
	assert.True(t, cfg.Rules.Secrets.Enabled)
	assert.True(t, cfg.Rules.Exfiltration.Enabled)
	assert.False(t, cfg.LLM.Enabled, "oracle escalation is opt-in")
}

func TestDefaultConfigApprovalParamSet(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "_clawsec_confirm", cfg.Approval.AgentConfirm.ParameterName)
	assert.True(t, cfg.Approval.Native.Enabled)
	assert.Equal(t, 300, cfg.Approval.Native.Timeout)
}
