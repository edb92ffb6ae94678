// Package config loads, validates, and hot-reloads the on-disk
// configuration (§6.2): a structured document with a schema version, a
// global switch, per-category rule overrides, and external-collaborator
// settings (approval, llm oracle).
package config

// Config is the parsed, merged (but not yet validated) configuration.
type Config struct {
	Version string   `yaml:"version"`
	Extends []string `yaml:"extends,omitempty"`

	Global     GlobalConfig              `yaml:"global"`
	Rules      RulesConfig               `yaml:"rules"`
	Approval   ApprovalConfig            `yaml:"approval"`
	LLM        LLMConfig                 `yaml:"llm"`
}

type GlobalConfig struct {
	Enabled  bool   `yaml:"enabled"`
	LogLevel string `yaml:"logLevel"`
}

// RulesConfig groups every rules.<category>.* key the spec recognizes.
type RulesConfig struct {
	Purchase     PurchaseRule     `yaml:"purchase"`
	Website      WebsiteRule      `yaml:"website"`
	Destructive  DestructiveRule  `yaml:"destructive"`
	Secrets      SecretsRule      `yaml:"secrets"`
	Exfiltration ExfiltrationRule `yaml:"exfiltration"`
	Sanitization SanitizationRule `yaml:"sanitization"`
}

// CommonRule holds the fields every rules.<category> entry shares.
type CommonRule struct {
	Enabled         bool   `yaml:"enabled"`
	Severity        string `yaml:"severity"`
	Action          string `yaml:"action"`
	Condition       string `yaml:"condition"`
	ConditionAction string `yaml:"conditionAction"`
	Rego            string `yaml:"rego"`
}

type PurchaseRule struct {
	CommonRule     `yaml:",inline"`
	DomainMode     string              `yaml:"domainMode"`
	PaymentDomains []string            `yaml:"paymentDomains"`
	SpendLimits    PurchaseSpendLimits `yaml:"spendLimits"`
}

type PurchaseSpendLimits struct {
	PerTransaction float64 `yaml:"perTransaction"`
	Daily          float64 `yaml:"daily"`
}

type WebsiteRule struct {
	CommonRule `yaml:",inline"`
	Mode       string   `yaml:"mode"`
	Allowlist  []string `yaml:"allowlist"`
	Blocklist  []string `yaml:"blocklist"`
}

type DestructiveRule struct {
	CommonRule    `yaml:",inline"`
	ShellPatterns []string `yaml:"shellPatterns"`
	CloudPatterns []string `yaml:"cloudPatterns"`
	CodePatterns  []string `yaml:"codePatterns"`
}

type SecretsRule struct {
	CommonRule   `yaml:",inline"`
	Patterns     []string `yaml:"patterns"`
	IncludeEmail bool     `yaml:"includeEmail"`
}

type ExfiltrationRule struct {
	CommonRule      `yaml:",inline"`
	TrustedUploadTo []string `yaml:"trustedUploadTo"`
}

// SanitizationRule tunes the injection scanner (§4.3, §4.3.1).
type SanitizationRule struct {
	MinConfidence  float64         `yaml:"minConfidence"`
	RedactMatches  bool            `yaml:"redactMatches"`
	Categories     map[string]bool `yaml:"categories"`
	Action         string          `yaml:"action"`
	DecodeEncoded  bool            `yaml:"decodeEncodedPayloads"`
	SecretsEnabled bool            `yaml:"secretsEnabled"`
	IncludeEmail   bool            `yaml:"includeEmail"`
}

type ApprovalConfig struct {
	Native       NativeApprovalConfig       `yaml:"native"`
	AgentConfirm AgentConfirmApprovalConfig `yaml:"agentConfirm"`
	Webhook      WebhookApprovalConfig      `yaml:"webhook"`
}

type NativeApprovalConfig struct {
	Enabled bool `yaml:"enabled"`
	Timeout int  `yaml:"timeout"` // seconds
}

type AgentConfirmApprovalConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ParameterName string `yaml:"parameterName"`
}

type WebhookApprovalConfig struct {
	Enabled bool              `yaml:"enabled"`
	URL     string            `yaml:"url"`
	Timeout int               `yaml:"timeout"` // seconds
	Headers map[string]string `yaml:"headers"`
}

type LLMConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

// Default returns the safe-by-default configuration: global switch on,
// every detector enabled at medium severity, no explicit action overrides,
// oracle disabled.
func Default() Config {
	return Config{
		Version: "1",
		Global:  GlobalConfig{Enabled: true, LogLevel: "info"},
		Rules: RulesConfig{
			Purchase:     PurchaseRule{CommonRule: CommonRule{Enabled: true, Severity: "high"}, DomainMode: "blocklist"},
			Website:      WebsiteRule{CommonRule: CommonRule{Enabled: true, Severity: "high"}, Mode: "blocklist"},
			Destructive:  DestructiveRule{CommonRule: CommonRule{Enabled: true, Severity: "critical"}},
			Secrets:      SecretsRule{CommonRule: CommonRule{Enabled: true, Severity: "high"}},
			Exfiltration: ExfiltrationRule{CommonRule: CommonRule{Enabled: true, Severity: "high"}},
			Sanitization: SanitizationRule{MinConfidence: 0.8, RedactMatches: true, Action: "block", DecodeEncoded: true, SecretsEnabled: true},
		},
		Approval: ApprovalConfig{
			Native:       NativeApprovalConfig{Enabled: true, Timeout: 300},
			AgentConfirm: AgentConfirmApprovalConfig{Enabled: true, ParameterName: "_clawsec_confirm"},
		},
		LLM: LLMConfig{Enabled: false},
	}
}
