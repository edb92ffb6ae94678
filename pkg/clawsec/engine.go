package clawsec

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"
)

// ApprovalHandler is the capability interface the engine uses to create
// tickets on `confirm` and to resolve the agent-confirm fast path. Its
// concrete implementation lives in pkg/approval, which imports this
// package — never the other way around.
type ApprovalHandler interface {
	Create(detection Detection, call ToolCall) (PendingApproval, error)
	Approve(id string, by string) (ApprovalTicket, error)
}

// engineState is everything live reconfiguration (§5) replaces atomically:
// detectors and rules derive entirely from on-disk configuration, so a
// config reload builds a fresh engineState and swaps the pointer rather
// than mutating fields in place.
type engineState struct {
	enabled      bool
	detectors    []Detector
	rules        map[ThreatCategory]RuleConfig
	confirmParam string
}

// Engine is the Decision Engine (§4.1). Detectors, rules, and the global
// switch are swapped atomically on reconfiguration; the cache, oracle,
// oracle cache, and approval handler are long-lived resources that survive
// a config reload.
type Engine struct {
	state atomic.Pointer[engineState]

	cache         *DecisionCache
	oracle        Oracle
	oracleCache   OracleCache
	oracleTimeout time.Duration
	approvals     ApprovalHandler
	log           Logger
}

// EngineOption configures an Engine at construction time.
type EngineOption func(*Engine)

func WithDecisionCache(c *DecisionCache) EngineOption {
	return func(e *Engine) { e.cache = c }
}

func WithOracle(o Oracle) EngineOption {
	return func(e *Engine) { e.oracle = o }
}

func WithOracleCache(c OracleCache) EngineOption {
	return func(e *Engine) { e.oracleCache = c }
}

func WithOracleTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.oracleTimeout = d }
}

func WithApprovalHandler(h ApprovalHandler) EngineOption {
	return func(e *Engine) { e.approvals = h }
}

func WithEngineLogger(l Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// NewEngine builds an Engine from its initial detector set, rule
// configuration, and the global enabled switch (§4.1 step 1).
func NewEngine(enabled bool, detectors []Detector, rules map[ThreatCategory]RuleConfig, confirmParam string, opts ...EngineOption) *Engine {
	if confirmParam == "" {
		confirmParam = "_clawsec_confirm"
	}
	e := &Engine{
		cache:         NewDecisionCache(5*time.Minute, DefaultCacheSize),
		oracle:        UnavailableOracle{},
		oracleCache:   NewMemoryOracleCache(2 * time.Minute),
		oracleTimeout: 500 * time.Millisecond,
		log:           NopLogger{},
	}
	for _, o := range opts {
		o(e)
	}
	e.state.Store(&engineState{enabled: enabled, detectors: detectors, rules: rules, confirmParam: confirmParam})
	return e
}

// Reconfigure atomically replaces the live detector set, rule
// configuration, and global switch without disturbing the cache, oracle,
// or approval store (§5, §9 "Global mutable state").
func (e *Engine) Reconfigure(enabled bool, detectors []Detector, rules map[ThreatCategory]RuleConfig, confirmParam string) {
	if confirmParam == "" {
		confirmParam = "_clawsec_confirm"
	}
	e.state.Store(&engineState{enabled: enabled, detectors: detectors, rules: rules, confirmParam: confirmParam})
}

// DecisionCache exposes the engine's cache for wiring into pkg/metrics.
func (e *Engine) DecisionCache() *DecisionCache { return e.cache }

// CacheStats exposes the decision cache's hit/miss counters for metrics.
func (e *Engine) CacheStats() (hits, misses uint64, hitRate float64) {
	return e.cache.Stats()
}

// Analyze runs the full decision pipeline (§4.1) for one tool call:
// agent-confirm fast path, cache probe, parallel detectors, sort, resolve,
// oracle escalation, ticket creation, cache write.
func (e *Engine) Analyze(ctx context.Context, call ToolCall) (AnalysisResult, error) {
	start := time.Now()
	state := e.state.Load()

	if !state.enabled {
		return AnalysisResult{Action: ActionAllow, Input: call.Input}, nil
	}

	if result, handled, err := e.tryAgentConfirm(call, state); handled {
		result.DurationMs = time.Since(start).Milliseconds()
		return result, err
	}

	fp, err := Fingerprint(call, state.confirmParam)
	if err != nil {
		return AnalysisResult{}, err
	}

	if cached, ok := e.cache.Get(fp); ok {
		cached.DurationMs = time.Since(start).Milliseconds()
		cached.Input = call.Input
		if cached.Action == ActionConfirm && cached.Pending != nil && e.approvals != nil {
			// A cached confirm result stores a decision, not a ticket: a
			// fresh ticket is minted on every serve (§4.1.3).
			primary, _ := cached.PrimaryDetection()
			if pending, err := e.approvals.Create(primary, call); err == nil {
				cached.Pending = &pending
			}
		}
		return cached, nil
	}

	detections := e.runDetectors(call, state.detectors)
	sortDetections(detections)

	action, wantsOracle := resolveAction(ctx, call, detections, state.rules)

	// RequiresOracle is transient by definition (§3): the oracle call below
	// is synchronous, so by the time analyze() returns a result it is
	// always cleared again.
	if wantsOracle && e.oracle != nil && e.oracle.IsAvailable() {
		primary := detections[0]
		if !(action == ActionBlock && ruleIsExplicit(state.rules, primary.Category)) {
			action = e.escalate(ctx, fp, call, primary, action)
		}
	}

	result := AnalysisResult{
		Action:     action,
		Detections: detections,
		Cached:     false,
		Input:      call.Input,
	}

	if action == ActionConfirm && e.approvals != nil {
		primary, _ := result.PrimaryDetection()
		pending, err := e.approvals.Create(primary, call)
		if err != nil {
			e.log.Printf("clawsec: failed to create approval ticket: %v", err)
		} else {
			result.Pending = &pending
		}
	}

	e.cache.Set(fp, result)

	result.DurationMs = time.Since(start).Milliseconds()
	return result, nil
}

// ruleIsExplicit reports whether the category's action came from explicit
// configuration rather than the confidence table — a block from explicit
// config is never downgraded by the oracle (§4.1 invariants).
func ruleIsExplicit(rules map[ThreatCategory]RuleConfig, category ThreatCategory) bool {
	r, ok := rules[category]
	return ok && r.Action != ""
}

func (e *Engine) escalate(ctx context.Context, fp CallFingerprint, call ToolCall, primary Detection, patternAction Action) Action {
	cacheKey := OracleCacheKey(fp, primary)
	if e.oracleCache != nil {
		if resp, ok := e.oracleCache.Get(cacheKey); ok {
			return applyOracleOverride(patternAction, resp)
		}
	}

	octx, cancel := context.WithTimeout(ctx, e.oracleTimeout)
	defer cancel()

	resp, err := e.oracle.Analyze(octx, OracleRequest{Call: call, Detection: primary})
	if err != nil {
		e.log.Printf("clawsec: oracle error, keeping pattern action: %v", err)
		return patternAction
	}

	if e.oracleCache != nil {
		e.oracleCache.Set(cacheKey, resp)
	}
	return applyOracleOverride(patternAction, resp)
}

// tryAgentConfirm implements §4.4's fast path. handled=true means Analyze
// should return immediately with the given result (which may itself be an
// error-free block).
func (e *Engine) tryAgentConfirm(call ToolCall, state *engineState) (AnalysisResult, bool, error) {
	raw, present := call.Input[state.confirmParam]
	if !present {
		return AnalysisResult{}, false, nil
	}

	id, ok := raw.(string)
	if !ok || id == "" {
		return AnalysisResult{Action: ActionBlock, Input: call.Input, Detections: []Detection{{
			Category: CategoryUnknown,
			Severity: SeverityHigh,
			Reason:   fmt.Sprintf("%s must be a non-empty ticket id string", state.confirmParam),
		}}}, true, nil
	}

	if e.approvals == nil {
		return AnalysisResult{Action: ActionBlock, Input: call.Input, Detections: []Detection{{
			Category: CategoryUnknown,
			Severity: SeverityHigh,
			Reason:   "no approval handler configured",
		}}}, true, nil
	}

	if _, err := e.approvals.Approve(id, "agent"); err != nil {
		return AnalysisResult{Action: ActionBlock, Input: call.Input, Detections: []Detection{{
			Category: CategoryUnknown,
			Severity: SeverityHigh,
			Reason:   fmt.Sprintf("agent-confirm rejected: %v", err),
		}}}, true, nil
	}

	stripped, _, _ := StripConfirmParam(call.Input, state.confirmParam)
	return AnalysisResult{Action: ActionAllow, Input: stripped}, true, nil
}

// runDetectors dispatches every detector concurrently, waits for all of
// them (§4.1 step 3: no short-circuiting), and recovers a panicking
// detector so one bad rule can never take down an entire analyze() call.
func (e *Engine) runDetectors(call ToolCall, detectors []Detector) []Detection {
	type result struct {
		d  Detection
		ok bool
	}
	results := make([]result, len(detectors))
	done := make(chan int, len(detectors))

	for i, det := range detectors {
		go func(i int, det Detector) {
			defer func() {
				if r := recover(); r != nil {
					e.log.Printf("clawsec: detector %s panicked: %v", det.Category(), r)
					results[i] = result{}
				}
				done <- i
			}()
			d, ok := det.Detect(call)
			results[i] = result{d: d, ok: ok}
		}(i, det)
	}
	for range detectors {
		<-done
	}

	out := make([]Detection, 0, len(detectors))
	for _, r := range results {
		if r.ok {
			out = append(out, r.d)
		}
	}
	return out
}

// sortDetections orders survivors by (severity desc, confidence desc),
// ties broken deterministically by category name (§4.1 step 4).
func sortDetections(detections []Detection) {
	sort.SliceStable(detections, func(i, j int) bool {
		a, b := detections[i], detections[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.Category < b.Category
	})
}
