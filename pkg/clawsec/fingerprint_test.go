package clawsec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterministicRegardlessOfKeyOrder(t *testing.T) {
	a := ToolCall{ToolName: "http.post", Input: map[string]interface{}{"url": "https://example.com", "body": "x"}}
	b := ToolCall{ToolName: "http.post", Input: map[string]interface{}{"body": "x", "url": "https://example.com"}}

	fpA, err := Fingerprint(a, "")
	require.NoError(t, err)
	fpB, err := Fingerprint(b, "")
	require.NoError(t, err)

	assert.Equal(t, fpA, fpB)
}

func TestFingerprintStripsConfirmParam(t *testing.T) {
	withTicket := ToolCall{ToolName: "shell.exec", Input: map[string]interface{}{"cmd": "ls", "_clawsec_confirm": "ticket-1"}}
	withoutTicket := ToolCall{ToolName: "shell.exec", Input: map[string]interface{}{"cmd": "ls"}}

	fpA, err := Fingerprint(withTicket, "_clawsec_confirm")
	require.NoError(t, err)
	fpB, err := Fingerprint(withoutTicket, "_clawsec_confirm")
	require.NoError(t, err)

	assert.Equal(t, fpA, fpB, "the confirm parameter must never participate in the cache key")
}

func TestFingerprintDiffersOnDifferentInput(t *testing.T) {
	a := ToolCall{ToolName: "shell.exec", Input: map[string]interface{}{"cmd": "ls"}}
	b := ToolCall{ToolName: "shell.exec", Input: map[string]interface{}{"cmd": "rm -rf /"}}

	fpA, err := Fingerprint(a, "")
	require.NoError(t, err)
	fpB, err := Fingerprint(b, "")
	require.NoError(t, err)

	assert.NotEqual(t, fpA, fpB)
}

func TestStripConfirmParamAbsent(t *testing.T) {
	input := map[string]interface{}{"cmd": "ls"}
	stripped, raw, present := StripConfirmParam(input, "_clawsec_confirm")
	assert.False(t, present)
	assert.Nil(t, raw)
	assert.Equal(t, input, stripped)
}

func TestStripConfirmParamPresent(t *testing.T) {
	input := map[string]interface{}{"cmd": "ls", "_clawsec_confirm": "ticket-1"}
	stripped, raw, present := StripConfirmParam(input, "_clawsec_confirm")
	assert.True(t, present)
	assert.Equal(t, "ticket-1", raw)
	_, stillThere := stripped["_clawsec_confirm"]
	assert.False(t, stillThere)
	assert.Equal(t, "ls", stripped["cmd"])
}
