package detectors

import (
	"testing"

	"github.com/clawsec/clawsec/pkg/clawsec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseDetectorBlocklistMatch(t *testing.T) {
	det := NewPurchaseDetector(PurchaseConfig{
		DomainMode:     DomainBlocklist,
		PaymentDomains: []string{"*.stripe.com"},
		Severity:       clawsec.SeverityHigh,
	})
	d, ok := det.Detect(clawsec.ToolCall{URL: "https://checkout.stripe.com/session"})
	require.True(t, ok)
	assert.Equal(t, clawsec.CategoryPurchase, d.Category)
}

func TestPurchaseDetectorAllowlistBlocksUnlistedDomain(t *testing.T) {
	det := NewPurchaseDetector(PurchaseConfig{
		DomainMode:     DomainAllowlist,
		PaymentDomains: []string{"*.internal-pay.example"},
		Severity:       clawsec.SeverityHigh,
	})
	d, ok := det.Detect(clawsec.ToolCall{URL: "https://random-checkout.example/pay"})
	require.True(t, ok)
	assert.Contains(t, d.Reason, "not on the payment allowlist")
}

func TestPurchaseDetectorPaymentPathSignal(t *testing.T) {
	det := NewPurchaseDetector(PurchaseConfig{Severity: clawsec.SeverityMedium})
	d, ok := det.Detect(clawsec.ToolCall{URL: "https://shop.example/checkout"})
	require.True(t, ok)
	assert.Equal(t, 0.9, d.Confidence)
}

func TestPurchaseDetectorFormFieldSignal(t *testing.T) {
	det := NewPurchaseDetector(PurchaseConfig{Severity: clawsec.SeverityMedium})
	d, ok := det.Detect(clawsec.ToolCall{Input: map[string]interface{}{"card_number": "4111111111111111"}})
	require.True(t, ok)
	assert.Contains(t, d.Reason, "card_number")
}

func TestPurchaseDetectorPerTransactionSpendLimit(t *testing.T) {
	det := NewPurchaseDetector(PurchaseConfig{
		Severity:    clawsec.SeverityMedium,
		SpendLimits: SpendLimits{PerTransaction: 100},
	})
	d, ok := det.Detect(clawsec.ToolCall{Input: map[string]interface{}{"amount": 250.0}})
	require.True(t, ok)
	assert.Equal(t, clawsec.SeverityHigh, d.Severity)
}

func TestPurchaseDetectorDailySpendLimit(t *testing.T) {
	det := NewPurchaseDetector(PurchaseConfig{
		Severity:    clawsec.SeverityMedium,
		SpendLimits: SpendLimits{Daily: 50},
	})
	d, ok := det.Detect(clawsec.ToolCall{Input: map[string]interface{}{"amount": 75.0}})
	require.True(t, ok)
	assert.Equal(t, clawsec.SeverityMedium, d.Severity)
}

func TestPurchaseDetectorNoSignalNoDetection(t *testing.T) {
	det := NewPurchaseDetector(PurchaseConfig{Severity: clawsec.SeverityMedium})
	_, ok := det.Detect(clawsec.ToolCall{Input: map[string]interface{}{"note": "just chatting"}})
	assert.False(t, ok)
}
