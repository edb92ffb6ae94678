// Package hooks implements the consumer-facing hook surface (§6.1): the
// three calls a host wires into its own agent loop. Every hook fails open —
// a panic anywhere inside is caught at the hook boundary and turned into
// the hook's no-op result, never propagated to the host.
package hooks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/clawsec/clawsec/pkg/clawsec"
	"github.com/clawsec/clawsec/pkg/config"
	"github.com/clawsec/clawsec/pkg/sanitizer"
)

// Analyzer is the capability a Handler needs from the decision engine.
type Analyzer interface {
	Analyze(ctx context.Context, call clawsec.ToolCall) (clawsec.AnalysisResult, error)
}

// SystemPromptResult is beforeAgentStart's return shape.
type SystemPromptResult struct {
	SystemPromptAddition string // empty means "nothing to add"
}

// ToolCallResult is beforeToolCall's return shape.
type ToolCallResult struct {
	Block       bool
	BlockReason string
	Params      map[string]interface{} // replaces the tool input when non-nil
	Metadata    map[string]string       // {category, severity, rule?, reason}
}

// PersistMessage is the content beforeToolCall's sibling hook may rewrite.
type PersistMessage struct {
	Content    interface{}
	Redactions []clawsec.Redaction
}

// ResultPersistResult is toolResultPersist's return shape. A zero value
// (nil Message) means "pass through unchanged."
type ResultPersistResult struct {
	Message *PersistMessage
}

// Handler wires the decision engine and sanitizer into the three hooks a
// host calls. It tracks which session ids have already received a
// beforeAgentStart system-prompt addition, per §6.1 ("emitted at most once
// per session").
type Handler struct {
	engine Analyzer
	audit  clawsec.AuditSink
	log    clawsec.Logger

	sanitizeCfg atomic.Pointer[sanitizer.Config]
	summary     atomic.Pointer[string]

	mu       sync.Mutex
	seenSess map[string]bool
}

// Option configures a Handler at construction time.
type Option func(*Handler)

func WithAuditSink(sink clawsec.AuditSink) Option {
	return func(h *Handler) { h.audit = sink }
}

func WithHookLogger(log clawsec.Logger) Option {
	return func(h *Handler) { h.log = log }
}

// NewHandler builds a Handler. cfg seeds the initial sanitizer tuning and
// system-prompt summary; call UpdateConfig after every reload so both stay
// in sync with the live engine state.
func NewHandler(engine Analyzer, cfg config.Config, opts ...Option) *Handler {
	h := &Handler{engine: engine, log: clawsec.NopLogger{}, seenSess: make(map[string]bool), audit: noopAuditSink{}}
	for _, opt := range opts {
		opt(h)
	}
	h.UpdateConfig(cfg)
	return h
}

type noopAuditSink struct{}

func (noopAuditSink) Emit(clawsec.AuditEvent) {}

// UpdateConfig recomputes the sanitizer tuning and system-prompt summary
// from a freshly loaded Config. Call this alongside every engine reload so
// beforeAgentStart and toolResultPersist reflect the live configuration.
func (h *Handler) UpdateConfig(cfg config.Config) {
	sc := sanitizer.Config{
		InjectionEnabled: true,
		Injection: sanitizer.ScanConfig{
			DecodeEncodedPayloads: cfg.Rules.Sanitization.DecodeEncoded,
		},
		BlockCategories: cfg.Rules.Sanitization.Categories,
		MinConfidence:   cfg.Rules.Sanitization.MinConfidence,
		SecretsEnabled:  cfg.Rules.Sanitization.SecretsEnabled,
		IncludeEmail:    cfg.Rules.Sanitization.IncludeEmail,
	}
	h.sanitizeCfg.Store(&sc)

	summary := buildSummary(cfg)
	h.summary.Store(&summary)
}

func buildSummary(cfg config.Config) string {
	if !cfg.Global.Enabled {
		return ""
	}
	var enabled []string
	for name, on := range map[string]bool{
		"purchase":     cfg.Rules.Purchase.Enabled,
		"website":      cfg.Rules.Website.Enabled,
		"destructive":  cfg.Rules.Destructive.Enabled,
		"secrets":      cfg.Rules.Secrets.Enabled,
		"exfiltration": cfg.Rules.Exfiltration.Enabled,
	} {
		if on {
			enabled = append(enabled, name)
		}
	}
	if len(enabled) == 0 {
		return ""
	}
	sort.Strings(enabled)

	param := cfg.Approval.AgentConfirm.ParameterName
	if param == "" {
		param = "_clawsec_confirm"
	}

	var b strings.Builder
	b.WriteString("Tool calls are screened by a policy engine for: ")
	b.WriteString(strings.Join(enabled, ", "))
	b.WriteString(". Calls needing human confirmation will be paused; if you receive approval out of band, ")
	b.WriteString("retry the call with the parameter \"")
	b.WriteString(param)
	b.WriteString("\" set to the approval ticket id to proceed without re-triggering review.")
	return b.String()
}

// BeforeAgentStart implements §6.1's first hook. sessionID identifies the
// conversation; the addition is suppressed on every call after the first
// for a given session.
func (h *Handler) BeforeAgentStart(ctx context.Context, sessionID string) (result SystemPromptResult) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Printf("clawsec: beforeAgentStart panicked: %v", r)
			result = SystemPromptResult{}
		}
	}()

	h.mu.Lock()
	already := h.seenSess[sessionID]
	if !already {
		h.seenSess[sessionID] = true
	}
	h.mu.Unlock()
	if already {
		return SystemPromptResult{}
	}

	summary := ""
	if p := h.summary.Load(); p != nil {
		summary = *p
	}
	return SystemPromptResult{SystemPromptAddition: summary}
}

// BeforeToolCall implements §6.1's second hook: runs the full decision
// pipeline and translates the verdict into the host's block/params/metadata
// contract.
func (h *Handler) BeforeToolCall(ctx context.Context, call clawsec.ToolCall) (result ToolCallResult) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Printf("clawsec: beforeToolCall panicked: %v", r)
			result = ToolCallResult{}
		}
	}()

	analysis, err := h.engine.Analyze(ctx, call)
	if err != nil {
		h.log.Printf("clawsec: analyze failed, failing open: %v", err)
		return ToolCallResult{}
	}

	primary, hasPrimary := analysis.PrimaryDetection()
	metadata := map[string]string{}
	if hasPrimary {
		metadata["category"] = string(primary.Category)
		metadata["severity"] = primary.Severity.String()
		metadata["reason"] = primary.Reason
	}

	h.emitAudit(call, analysis, primary, hasPrimary)

	switch analysis.Action {
	case clawsec.ActionBlock:
		reason := "blocked by policy"
		if hasPrimary {
			reason = primary.Reason
		}
		return ToolCallResult{Block: true, BlockReason: reason, Metadata: metadata}
	case clawsec.ActionConfirm:
		reason := "awaiting approval"
		if hasPrimary {
			reason = primary.Reason
		}
		if analysis.Pending != nil {
			metadata["rule"] = analysis.Pending.ID
		}
		return ToolCallResult{Block: true, BlockReason: reason, Metadata: metadata}
	default:
		// allow, log, and warn all let the call proceed; Input carries the
		// confirm-parameter-stripped params on the agent-confirm fast path.
		if analysis.Input != nil {
			return ToolCallResult{Params: analysis.Input, Metadata: metadata}
		}
		return ToolCallResult{Metadata: metadata}
	}
}

func (h *Handler) emitAudit(call clawsec.ToolCall, analysis clawsec.AnalysisResult, primary clawsec.Detection, hasPrimary bool) {
	if !hasPrimary {
		return
	}
	event := clawsec.AuditEvent{
		Kind:     clawsec.AuditDetection,
		ToolName: call.ToolName,
		Category: primary.Category,
		Severity: primary.Severity,
		Action:   analysis.Action,
		Reason:   primary.Reason,
	}
	if analysis.Pending != nil {
		event.TicketID = analysis.Pending.ID
	}
	h.audit.Emit(event)
}

// ToolResultPersist implements §6.1's third hook: sanitizes a tool result
// before it reaches conversation history. This hook is strictly
// synchronous by host contract (§9) — it must never be promoted to async.
func (h *Handler) ToolResultPersist(ctx context.Context, content interface{}) (result ResultPersistResult) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Printf("clawsec: toolResultPersist panicked: %v", r)
			result = ResultPersistResult{}
		}
	}()

	cfg := sanitizer.Config{}
	if p := h.sanitizeCfg.Load(); p != nil {
		cfg = *p
	}

	sanitized := sanitizer.Sanitize(content, cfg)
	if !sanitized.WasRedacted {
		return ResultPersistResult{}
	}

	for _, r := range sanitized.Redactions {
		h.audit.Emit(clawsec.AuditEvent{Kind: clawsec.AuditSanitized, Reason: r.Description, Redaction: &r})
	}

	return ResultPersistResult{Message: &PersistMessage{Content: sanitized.FilteredValue, Redactions: sanitized.Redactions}}
}
