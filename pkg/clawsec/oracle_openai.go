package clawsec

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"
)

// OpenAIOracle escalates ambiguous detections to a chat-completion model,
// rate-limited so a burst of ambiguous calls cannot exhaust an operator's
// LLM quota. It is additive to, not a replacement for, analyze()'s own
// per-call deadline.
type OpenAIOracle struct {
	client  openai.Client
	model   string
	limiter *rate.Limiter
	log     Logger
}

// OpenAIOracleOption configures an OpenAIOracle.
type OpenAIOracleOption func(*openAIOracleConfig)

type openAIOracleConfig struct {
	apiKey     string
	baseURL    string
	ratePerSec float64
	burst      int
	log        Logger
}

func WithOpenAIAPIKey(key string) OpenAIOracleOption {
	return func(c *openAIOracleConfig) { c.apiKey = key }
}

func WithOpenAIBaseURL(url string) OpenAIOracleOption {
	return func(c *openAIOracleConfig) { c.baseURL = url }
}

// WithOpenAIRateLimit caps sustained requests per second and burst size.
func WithOpenAIRateLimit(perSecond float64, burst int) OpenAIOracleOption {
	return func(c *openAIOracleConfig) { c.ratePerSec = perSecond; c.burst = burst }
}

func WithOpenAILogger(l Logger) OpenAIOracleOption {
	return func(c *openAIOracleConfig) { c.log = l }
}

// NewOpenAIOracle builds an Oracle backed by model (e.g. "gpt-4o-mini").
func NewOpenAIOracle(model string, opts ...OpenAIOracleOption) *OpenAIOracle {
	cfg := openAIOracleConfig{ratePerSec: 2, burst: 4, log: NopLogger{}}
	for _, o := range opts {
		o(&cfg)
	}

	var clientOpts []option.RequestOption
	if cfg.apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.apiKey))
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &OpenAIOracle{
		client:  openai.NewClient(clientOpts...),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(cfg.ratePerSec), cfg.burst),
		log:     cfg.log,
	}
}

func (o *OpenAIOracle) IsAvailable() bool { return o != nil }

type oracleModelResponse struct {
	Determination   string  `json:"determination"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
	SuggestedAction string  `json:"suggestedAction"`
}

// Analyze classifies the ambiguous detection. On rate-limit starvation,
// timeout, or a malformed model response it returns the uncertain/confirm
// fallback so the engine keeps the pattern-based action (§4.1.2).
func (o *OpenAIOracle) Analyze(ctx context.Context, req OracleRequest) (OracleResponse, error) {
	fallback := OracleResponse{Determination: DeterminationUncertain, Confidence: 0.5, SuggestedAction: SuggestConfirm}

	if err := o.limiter.Wait(ctx); err != nil {
		return fallback, nil
	}

	prompt := buildOraclePrompt(req)
	params := openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You classify whether an AI agent's tool call is a genuine security threat. Respond with a single JSON object: {\"determination\":\"threat|safe|uncertain\",\"confidence\":0.0-1.0,\"reasoning\":\"...\",\"suggestedAction\":\"block|confirm|allow\"}. No other text."),
			openai.UserMessage(prompt),
		},
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		o.log.Printf("clawsec: oracle call failed: %v", err)
		return fallback, nil
	}
	if len(completion.Choices) == 0 {
		return fallback, nil
	}

	var parsed oracleModelResponse
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &parsed); err != nil {
		o.log.Printf("clawsec: oracle returned malformed response: %v", err)
		return fallback, nil
	}

	resp := OracleResponse{
		Determination:   Determination(parsed.Determination),
		Confidence:      parsed.Confidence,
		Reasoning:       parsed.Reasoning,
		SuggestedAction: OracleSuggestion(parsed.SuggestedAction),
	}
	switch resp.Determination {
	case DeterminationThreat, DeterminationSafe, DeterminationUncertain:
	default:
		return fallback, nil
	}
	switch resp.SuggestedAction {
	case SuggestBlock, SuggestConfirm, SuggestAllow:
	default:
		return fallback, nil
	}
	return resp, nil
}

func buildOraclePrompt(req OracleRequest) string {
	return fmt.Sprintf(
		"Tool: %s\nDetected category: %s\nSeverity: %s\nPattern confidence: %.2f\nPattern reason: %s\nTool input (truncated): %s",
		req.Call.ToolName, req.Detection.Category, req.Detection.Severity, req.Detection.Confidence, req.Detection.Reason,
		truncate(fmt.Sprintf("%v", req.Call.Input), 1500),
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
