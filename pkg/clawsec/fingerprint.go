package clawsec

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/gowebpki/jcs"
)

// CallFingerprint is a deterministic 128-bit digest of (toolName,
// canonical-JSON(toolInput)). Two calls with the same fingerprint must
// yield the same cached decision until the cache entry's TTL elapses.
type CallFingerprint [16]byte

// String renders the fingerprint as hex, for cache keys and audit logs.
func (f CallFingerprint) String() string { return hex.EncodeToString(f[:]) }

// fingerprintEnvelope is the structure canonicalized before hashing. Field
// order does not matter — JCS canonicalizes object key order independent of
// Go's map iteration order or struct field order.
type fingerprintEnvelope struct {
	Tool  string                 `json:"tool"`
	Input map[string]interface{} `json:"input"`
}

// Fingerprint computes the call fingerprint. confirmParam, if non-empty, is
// stripped from the input copy before canonicalization: presenting a valid
// approval ticket is authorization, not identity (§9), so it must never
// participate in the cache key.
func Fingerprint(call ToolCall, confirmParam string) (CallFingerprint, error) {
	input := call.Input
	if confirmParam != "" {
		if _, present := call.Input[confirmParam]; present {
			input = make(map[string]interface{}, len(call.Input))
			for k, v := range call.Input {
				if k == confirmParam {
					continue
				}
				input[k] = v
			}
		}
	}

	raw, err := json.Marshal(fingerprintEnvelope{Tool: call.ToolName, Input: input})
	if err != nil {
		return CallFingerprint{}, newError(ErrKindConfig, "fingerprint: marshal call", err)
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		return CallFingerprint{}, newError(ErrKindConfig, "fingerprint: jcs canonicalize", err)
	}

	sum := sha256.Sum256(canonical)
	var fp CallFingerprint
	copy(fp[:], sum[:16])
	return fp, nil
}

// StripConfirmParam returns a copy of input with confirmParam removed, the
// raw value that was present under that key (nil if absent), and whether
// the key was present at all. Used by the agent-confirm fast path to
// produce the Input the caller should actually execute the tool with, and
// to distinguish "absent" from "present but not a string" per §4.4.
func StripConfirmParam(input map[string]interface{}, confirmParam string) (stripped map[string]interface{}, raw interface{}, present bool) {
	raw, present = input[confirmParam]
	if !present {
		return input, nil, false
	}
	stripped = make(map[string]interface{}, len(input))
	for k, v := range input {
		if k == confirmParam {
			continue
		}
		stripped[k] = v
	}
	return stripped, raw, true
}
