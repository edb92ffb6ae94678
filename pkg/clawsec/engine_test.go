package clawsec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysDetect(cat ThreatCategory, sev Severity, confidence float64) Detector {
	return DetectorFunc{Cat: cat, Fn: func(ToolCall) (Detection, bool) {
		return Detection{Category: cat, Severity: sev, Confidence: confidence, Reason: "test"}, true
	}}
}

func neverDetect(cat ThreatCategory) Detector {
	return DetectorFunc{Cat: cat, Fn: func(ToolCall) (Detection, bool) { return Detection{}, false }}
}

type fakeApprovals struct {
	created []Detection
	tickets map[string]bool
}

func newFakeApprovals() *fakeApprovals {
	return &fakeApprovals{tickets: map[string]bool{}}
}

func (f *fakeApprovals) Create(d Detection, call ToolCall) (PendingApproval, error) {
	f.created = append(f.created, d)
	id := "ticket-1"
	f.tickets[id] = true
	return PendingApproval{ID: id, ExpiresInSeconds: 300, Methods: []string{"agent-confirm"}}, nil
}

func (f *fakeApprovals) Approve(id string, by string) (ApprovalTicket, error) {
	if !f.tickets[id] {
		return ApprovalTicket{}, ErrApprovalNotFound
	}
	return ApprovalTicket{ID: id, Status: StatusApproved}, nil
}

func TestEngineAnalyzeAllowWhenNoDetections(t *testing.T) {
	engine := NewEngine(true, []Detector{neverDetect(CategoryDestructive)}, nil, "")
	result, err := engine.Analyze(context.Background(), ToolCall{ToolName: "noop"})
	require.NoError(t, err)
	assert.Equal(t, ActionAllow, result.Action)
	assert.Empty(t, result.Detections)
}

func TestEngineAnalyzeDisabledAlwaysAllows(t *testing.T) {
	engine := NewEngine(false, []Detector{alwaysDetect(CategoryDestructive, SeverityCritical, 0.99)}, nil, "")
	result, err := engine.Analyze(context.Background(), ToolCall{ToolName: "rm -rf /"})
	require.NoError(t, err)
	assert.Equal(t, ActionAllow, result.Action)
}

func TestEngineAnalyzeBlocksOnCriticalHighConfidence(t *testing.T) {
	engine := NewEngine(true, []Detector{alwaysDetect(CategoryDestructive, SeverityCritical, 0.99)}, nil, "")
	result, err := engine.Analyze(context.Background(), ToolCall{ToolName: "shell.exec", Input: map[string]interface{}{"cmd": "rm -rf /"}})
	require.NoError(t, err)
	assert.Equal(t, ActionBlock, result.Action)
	require.Len(t, result.Detections, 1)
	assert.Equal(t, CategoryDestructive, result.Detections[0].Category)
}

func TestEngineAnalyzeCachesRepeatCalls(t *testing.T) {
	calls := 0
	det := DetectorFunc{Cat: CategoryDestructive, Fn: func(ToolCall) (Detection, bool) {
		calls++
		return Detection{Category: CategoryDestructive, Severity: SeverityCritical, Confidence: 0.99}, true
	}}
	engine := NewEngine(true, []Detector{det}, nil, "")

	call := ToolCall{ToolName: "shell.exec", Input: map[string]interface{}{"cmd": "rm -rf /"}}
	first, err := engine.Analyze(context.Background(), call)
	require.NoError(t, err)
	second, err := engine.Analyze(context.Background(), call)
	require.NoError(t, err)

	assert.Equal(t, first.Action, second.Action)
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, calls)
}

func TestEngineAnalyzeConfirmCreatesTicket(t *testing.T) {
	approvals := newFakeApprovals()
	engine := NewEngine(true, []Detector{alwaysDetect(CategoryDestructive, SeverityHigh, 0.6)}, nil, "", WithApprovalHandler(approvals))

	result, err := engine.Analyze(context.Background(), ToolCall{ToolName: "shell.exec"})
	require.NoError(t, err)
	assert.Equal(t, ActionWarn, result.Action)

	engine2 := NewEngine(true, []Detector{alwaysDetect(CategoryDestructive, SeverityHigh, 0.9)}, nil, "", WithApprovalHandler(approvals))
	result2, err := engine2.Analyze(context.Background(), ToolCall{ToolName: "shell.exec"})
	require.NoError(t, err)
	assert.Equal(t, ActionConfirm, result2.Action)
	require.NotNil(t, result2.Pending)
	assert.NotEmpty(t, result2.Pending.ID)
	assert.Len(t, approvals.created, 1)
}

func TestEngineAgentConfirmFastPath(t *testing.T) {
	approvals := newFakeApprovals()
	approvals.tickets["ticket-1"] = true
	engine := NewEngine(true, []Detector{alwaysDetect(CategoryDestructive, SeverityCritical, 0.99)}, nil, "_clawsec_confirm", WithApprovalHandler(approvals))

	call := ToolCall{
		ToolName: "shell.exec",
		Input: map[string]interface{}{
			"cmd":              "rm -rf /",
			"_clawsec_confirm": "ticket-1",
		},
	}
	result, err := engine.Analyze(context.Background(), call)
	require.NoError(t, err)
	assert.Equal(t, ActionAllow, result.Action)
	_, hasConfirmParam := result.Input["_clawsec_confirm"]
	assert.False(t, hasConfirmParam, "confirm parameter should be stripped before execution")
}

func TestEngineAgentConfirmRejectsUnknownTicket(t *testing.T) {
	approvals := newFakeApprovals()
	engine := NewEngine(true, nil, nil, "_clawsec_confirm", WithApprovalHandler(approvals))

	call := ToolCall{Input: map[string]interface{}{"_clawsec_confirm": "does-not-exist"}}
	result, err := engine.Analyze(context.Background(), call)
	require.NoError(t, err)
	assert.Equal(t, ActionBlock, result.Action)
}

func TestEngineReconfigureSwapsDetectors(t *testing.T) {
	engine := NewEngine(true, []Detector{neverDetect(CategoryDestructive)}, nil, "")
	result, err := engine.Analyze(context.Background(), ToolCall{ToolName: "x"})
	require.NoError(t, err)
	assert.Equal(t, ActionAllow, result.Action)

	engine.Reconfigure(true, []Detector{alwaysDetect(CategoryDestructive, SeverityCritical, 0.99)}, nil, "")
	result, err = engine.Analyze(context.Background(), ToolCall{ToolName: "y"})
	require.NoError(t, err)
	assert.Equal(t, ActionBlock, result.Action)
}

type countingOracle struct {
	calls int
	resp  OracleResponse
}

func (o *countingOracle) Analyze(ctx context.Context, req OracleRequest) (OracleResponse, error) {
	o.calls++
	return o.resp, nil
}

func (o *countingOracle) IsAvailable() bool { return true }

func TestEngineCallsOracleAtMostOnceForAmbiguousBand(t *testing.T) {
	oracle := &countingOracle{resp: OracleResponse{SuggestedAction: SuggestConfirm}}
	// confidence 0.6 in the critical band (0.5-0.8) resolves to confirm +
	// wants-oracle, the one table cell that escalates.
	engine := NewEngine(true, []Detector{alwaysDetect(CategoryDestructive, SeverityCritical, 0.6)}, nil, "", WithOracle(oracle))

	result, err := engine.Analyze(context.Background(), ToolCall{ToolName: "shell.exec"})
	require.NoError(t, err)
	assert.Equal(t, ActionConfirm, result.Action)
	assert.Equal(t, 1, oracle.calls)
}

func TestEngineOracleNotCalledWhenUnambiguous(t *testing.T) {
	oracle := &countingOracle{resp: OracleResponse{SuggestedAction: SuggestBlock}}
	// confidence 0.99 resolves to a plain block with no oracle escalation.
	engine := NewEngine(true, []Detector{alwaysDetect(CategoryDestructive, SeverityCritical, 0.99)}, nil, "", WithOracle(oracle))

	result, err := engine.Analyze(context.Background(), ToolCall{ToolName: "shell.exec"})
	require.NoError(t, err)
	assert.Equal(t, ActionBlock, result.Action)
	assert.Equal(t, 0, oracle.calls)
}

func TestEngineOracleNotCalledOnExplicitConfigBlock(t *testing.T) {
	oracle := &countingOracle{resp: OracleResponse{SuggestedAction: SuggestAllow}}
	rules := map[ThreatCategory]RuleConfig{CategoryDestructive: {Action: ActionBlock}}
	engine := NewEngine(true, []Detector{alwaysDetect(CategoryDestructive, SeverityCritical, 0.6)}, rules, "", WithOracle(oracle))

	result, err := engine.Analyze(context.Background(), ToolCall{ToolName: "shell.exec"})
	require.NoError(t, err)
	assert.Equal(t, ActionBlock, result.Action)
	assert.Equal(t, 0, oracle.calls, "an explicit-config block must never be escalated to the oracle")
}

func TestEngineDetectorPanicIsRecovered(t *testing.T) {
	panicker := DetectorFunc{Cat: CategoryDestructive, Fn: func(ToolCall) (Detection, bool) {
		panic("boom")
	}}
	engine := NewEngine(true, []Detector{panicker}, nil, "")
	result, err := engine.Analyze(context.Background(), ToolCall{ToolName: "x"})
	require.NoError(t, err)
	assert.Equal(t, ActionAllow, result.Action)
}
