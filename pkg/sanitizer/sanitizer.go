package sanitizer

import (
	"sort"

	"github.com/clawsec/clawsec/pkg/clawsec"
	"github.com/clawsec/clawsec/pkg/secretpatterns"
)

// BlockPlaceholder replaces a string whose injection scan crosses the
// configured block threshold.
const BlockPlaceholder = "[BLOCKED: content removed by policy]"

// Config tunes one Sanitize invocation (§4.3, rules.sanitization.*).
type Config struct {
	InjectionEnabled bool
	Injection        ScanConfig
	// BlockCategories names injection categories configured to trigger a
	// full-value block-and-replace rather than a redaction.
	BlockCategories map[string]bool
	// MinConfidence is the configured minimum confidence for a block
	// category match to actually trigger the block.
	MinConfidence float64

	SecretsEnabled bool
	IncludeEmail   bool
}

// Result is the sanitizer's output for one value.
type Result struct {
	FilteredValue interface{}
	Redactions    []clawsec.Redaction
	WasRedacted   bool
}

// Sanitize recursively walks value, applying the injection scanner then the
// secret filter to every string leaf (§4.3). Mappings and sequences are
// rebuilt top-down; primitives pass through unchanged.
func Sanitize(value interface{}, cfg Config) Result {
	seenTypes := make(map[string]bool)
	filtered := walk(value, cfg, seenTypes)

	types := make([]string, 0, len(seenTypes))
	for t := range seenTypes {
		types = append(types, t)
	}
	sort.Strings(types)

	redactions := make([]clawsec.Redaction, 0, len(types))
	for _, t := range types {
		redactions = append(redactions, clawsec.Redaction{Type: t, Description: describeRedaction(t)})
	}

	return Result{FilteredValue: filtered, Redactions: redactions, WasRedacted: len(redactions) > 0}
}

func describeRedaction(typ string) string {
	switch typ {
	case CategoryInstructionOverride, CategorySystemPromptLeak, CategoryJailbreak, CategoryEncodedPayload:
		return "prompt-injection content removed (" + typ + ")"
	default:
		return "secret-shaped value redacted (" + typ + ")"
	}
}

func walk(value interface{}, cfg Config, seenTypes map[string]bool) interface{} {
	switch v := value.(type) {
	case string:
		return sanitizeString(v, cfg, seenTypes)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, vv := range v {
			out[k] = walk(vv, cfg, seenTypes)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, vv := range v {
			out[i] = walk(vv, cfg, seenTypes)
		}
		return out
	default:
		return value
	}
}

func sanitizeString(s string, cfg Config, seenTypes map[string]bool) string {
	if cfg.InjectionEnabled {
		result := Scan(s, cfg.Injection)
		for _, m := range result.Matches {
			if cfg.BlockCategories[m.Category] && m.Confidence >= cfg.MinConfidence {
				seenTypes[m.Category] = true
				return BlockPlaceholder
			}
		}
	}

	if !cfg.SecretsEnabled {
		return s
	}

	matches := secretpatterns.ScanAll(s, cfg.IncludeEmail)
	if len(matches) == 0 {
		return s
	}

	out := s
	// Replace right-to-left so earlier offsets stay valid across edits.
	ordered := append([]secretpatterns.Match(nil), matches...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start > ordered[j].Start })
	for _, m := range ordered {
		if m.End > len(out) || m.Start > m.End || m.Start < 0 {
			continue
		}
		out = out[:m.Start] + "[REDACTED:" + m.Type + "]" + out[m.End:]
		seenTypes[m.Type] = true
	}
	return out
}
