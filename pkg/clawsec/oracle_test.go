package clawsec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnavailableOracleReturnsUncertainConfirm(t *testing.T) {
	o := UnavailableOracle{}
	assert.False(t, o.IsAvailable())

	resp, err := o.Analyze(context.Background(), OracleRequest{})
	require.NoError(t, err)
	assert.Equal(t, DeterminationUncertain, resp.Determination)
	assert.Equal(t, SuggestConfirm, resp.SuggestedAction)
}

func TestApplyOracleOverride(t *testing.T) {
	tests := []struct {
		name       string
		suggestion OracleSuggestion
		confidence float64
		want       Action
	}{
		{"block suggestion always blocks", SuggestBlock, 0.1, ActionBlock},
		{"confirm suggestion always confirms", SuggestConfirm, 0.1, ActionConfirm},
		{"allow with high confidence allows", SuggestAllow, 0.9, ActionAllow},
		{"allow with low confidence downgrades to warn", SuggestAllow, 0.2, ActionWarn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyOracleOverride(ActionWarn, OracleResponse{SuggestedAction: tt.suggestion, Confidence: tt.confidence})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyOracleOverrideUnknownSuggestionKeepsPatternAction(t *testing.T) {
	got := applyOracleOverride(ActionConfirm, OracleResponse{SuggestedAction: OracleSuggestion("nonsense")})
	assert.Equal(t, ActionConfirm, got)
}

func TestMemoryOracleCacheRoundTrip(t *testing.T) {
	cache := NewMemoryOracleCache(time.Minute)
	key := "purchase:high:deadbeef"

	_, ok := cache.Get(key)
	assert.False(t, ok)

	cache.Set(key, OracleResponse{Determination: DeterminationThreat, Confidence: 0.8})
	got, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, DeterminationThreat, got.Determination)
}

func TestMemoryOracleCacheExpires(t *testing.T) {
	cache := NewMemoryOracleCache(time.Millisecond)
	key := "k"
	cache.Set(key, OracleResponse{Determination: DeterminationSafe})

	time.Sleep(5 * time.Millisecond)
	_, ok := cache.Get(key)
	assert.False(t, ok)
}

func TestOracleCacheKeyIncludesCategorySeverityAndFingerprint(t *testing.T) {
	d := Detection{Category: CategoryPurchase, Severity: SeverityHigh}
	fp := CallFingerprint{1, 2, 3}

	key := OracleCacheKey(fp, d)
	assert.Contains(t, key, string(CategoryPurchase))
	assert.Contains(t, key, SeverityHigh.String())
	assert.Contains(t, key, fp.String())
}

func TestBuildOraclePromptTruncatesLongInput(t *testing.T) {
	req := OracleRequest{
		Call:      ToolCall{ToolName: "shell.exec", Input: map[string]interface{}{"cmd": string(make([]byte, 2000))}},
		Detection: Detection{Category: CategoryDestructive, Severity: SeverityHigh, Confidence: 0.7, Reason: "matched pattern"},
	}
	prompt := buildOraclePrompt(req)
	assert.Contains(t, prompt, "shell.exec")
	assert.Contains(t, prompt, "(truncated)")
}

func TestTruncateNoOpUnderLimit(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 100))
}

func TestTruncateAppendsSuffixOverLimit(t *testing.T) {
	got := truncate("0123456789", 5)
	assert.Equal(t, "01234...(truncated)", got)
}
