package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// EDIT THIS FILE!  THIS IS SCAFFOLDING FOR YOU TO OWN!
// NOTE: json tags are required.  Any new fields you add must have json tags for the fields to be serialized.

// ============================================================================
// Shared enums
// ============================================================================

// RuleAction mirrors the resolver's Action type (§4.1.1) at the CRD boundary.
// +kubebuilder:validation:Enum=allow;log;warn;confirm;block;agent-confirm
type RuleAction string

// RuleSeverity mirrors clawsec.Severity at the CRD boundary.
// +kubebuilder:validation:Enum=low;medium;high;critical
type RuleSeverity string

// DomainMatchMode picks between allowlist and blocklist semantics.
// +kubebuilder:validation:Enum=allowlist;blocklist
type DomainMatchMode string

const (
	DomainMatchAllowlist DomainMatchMode = "allowlist"
	DomainMatchBlocklist DomainMatchMode = "blocklist"
)

// ============================================================================
// Per-category rule specs (§6.2)
// ============================================================================

// CommonRuleSpec holds the fields every rules.<category> entry shares.
type CommonRuleSpec struct {
	// +kubebuilder:default=true
	Enabled bool `json:"enabled"`

	// +optional
	Severity RuleSeverity `json:"severity,omitempty"`

	// Action, if set, wins unconditionally over the confidence-band table.
	// +optional
	Action RuleAction `json:"action,omitempty"`

	// Condition is a CEL expression; when it evaluates true, ConditionAction
	// is used instead of the table (but still loses to Action).
	// +optional
	Condition string `json:"condition,omitempty"`
	// +optional
	ConditionAction RuleAction `json:"conditionAction,omitempty"`

	// Rego is a custom-condition module returning {"action": "..."}.
	// +optional
	Rego string `json:"rego,omitempty"`
}

// SpendLimitsSpec caps purchase amounts (rules.purchase.spendLimits).
type SpendLimitsSpec struct {
	// +optional
	PerTransaction float64 `json:"perTransaction,omitempty"`
	// +optional
	Daily float64 `json:"daily,omitempty"`
}

type PurchaseRuleSpec struct {
	CommonRuleSpec `json:",inline"`
	// +optional
	DomainMode DomainMatchMode `json:"domainMode,omitempty"`
	// +optional
	// +listType=atomic
	PaymentDomains []string `json:"paymentDomains,omitempty"`
	// +optional
	SpendLimits SpendLimitsSpec `json:"spendLimits,omitempty"`
}

type WebsiteRuleSpec struct {
	CommonRuleSpec `json:",inline"`
	// +optional
	Mode DomainMatchMode `json:"mode,omitempty"`
	// +optional
	// +listType=atomic
	Allowlist []string `json:"allowlist,omitempty"`
	// +optional
	// +listType=atomic
	Blocklist []string `json:"blocklist,omitempty"`
}

type DestructiveRuleSpec struct {
	CommonRuleSpec `json:",inline"`
	// +optional
	// +listType=atomic
	ShellPatterns []string `json:"shellPatterns,omitempty"`
	// +optional
	// +listType=atomic
	CloudPatterns []string `json:"cloudPatterns,omitempty"`
	// +optional
	// +listType=atomic
	CodePatterns []string `json:"codePatterns,omitempty"`
}

type SecretsRuleSpec struct {
	CommonRuleSpec `json:",inline"`
	// +optional
	// +listType=atomic
	Patterns []string `json:"patterns,omitempty"`
	// +optional
	IncludeEmail bool `json:"includeEmail,omitempty"`
}

type ExfiltrationRuleSpec struct {
	CommonRuleSpec `json:",inline"`
	// +optional
	// +listType=atomic
	TrustedUploadTo []string `json:"trustedUploadTo,omitempty"`
}

type SanitizationRuleSpec struct {
	// +optional
	// +kubebuilder:default="0.8"
	MinConfidence string `json:"minConfidence,omitempty"`
	// +optional
	RedactMatches bool `json:"redactMatches,omitempty"`
	// +optional
	Categories map[string]bool `json:"categories,omitempty"`
	// +optional
	Action RuleAction `json:"action,omitempty"`
	// +optional
	DecodeEncodedPayloads bool `json:"decodeEncodedPayloads,omitempty"`
	// +optional
	SecretsEnabled bool `json:"secretsEnabled,omitempty"`
	// +optional
	IncludeEmail bool `json:"includeEmail,omitempty"`
}

// RulesSpec groups every rules.<category> the engine recognizes.
type RulesSpec struct {
	// +optional
	Purchase PurchaseRuleSpec `json:"purchase,omitempty"`
	// +optional
	Website WebsiteRuleSpec `json:"website,omitempty"`
	// +optional
	Destructive DestructiveRuleSpec `json:"destructive,omitempty"`
	// +optional
	Secrets SecretsRuleSpec `json:"secrets,omitempty"`
	// +optional
	Exfiltration ExfiltrationRuleSpec `json:"exfiltration,omitempty"`
	// +optional
	Sanitization SanitizationRuleSpec `json:"sanitization,omitempty"`
}

// ApprovalSpec configures the three approval methods (§4.4, §6.2).
type ApprovalSpec struct {
	// +optional
	NativeEnabled bool `json:"nativeEnabled,omitempty"`
	// +optional
	// +kubebuilder:default=300
	NativeTimeoutSeconds int `json:"nativeTimeoutSeconds,omitempty"`

	// +optional
	AgentConfirmEnabled bool `json:"agentConfirmEnabled,omitempty"`
	// +optional
	// +kubebuilder:default="_clawsec_confirm"
	AgentConfirmParameterName string `json:"agentConfirmParameterName,omitempty"`

	// +optional
	WebhookEnabled bool `json:"webhookEnabled,omitempty"`
	// +optional
	WebhookURL string `json:"webhookUrl,omitempty"`
	// +optional
	WebhookTimeoutSeconds int `json:"webhookTimeoutSeconds,omitempty"`
}

// LLMSpec toggles the oracle (§4.5).
type LLMSpec struct {
	// +optional
	Enabled bool `json:"enabled,omitempty"`
	// +optional
	Model string `json:"model,omitempty"`
}

// ============================================================================
// ClawsecPolicy Spec and Status
// ============================================================================

// ClawsecPolicySpec defines the desired state of ClawsecPolicy: the same
// rules/approval/llm shape as the on-disk configuration (§6.2), so a
// cluster can manage policy declaratively.
type ClawsecPolicySpec struct {
	// INSERT ADDITIONAL SPEC FIELDS - desired state of cluster
	// Important: Run "make" to regenerate code after modifying this file

	// +kubebuilder:default=true
	Enabled bool `json:"enabled"`

	// +optional
	LogLevel string `json:"logLevel,omitempty"`

	// +optional
	Rules RulesSpec `json:"rules,omitempty"`

	// +optional
	Approval ApprovalSpec `json:"approval,omitempty"`

	// +optional
	LLM LLMSpec `json:"llm,omitempty"`
}

// ClawsecPolicyStatus defines the observed state of ClawsecPolicy.
type ClawsecPolicyStatus struct {
	// INSERT ADDITIONAL STATUS FIELD - define observed state of cluster
	// Important: Run "make" to regenerate code after modifying this file

	// CompiledHash is the hash of the compiled rule set, used to detect
	// when the engine still needs a reload.
	// +optional
	CompiledHash string `json:"compiledHash,omitempty"`

	// LastUpdated is the timestamp of the last successful reconfiguration.
	// +optional
	LastUpdated *metav1.Time `json:"lastUpdated,omitempty"`

	// Conditions represent the latest available observations of the
	// policy's state.
	// +optional
	// +listType=map
	// +listMapKey=type
	Conditions []metav1.Condition `json:"conditions,omitempty"`

	// ObservedGeneration is the most recent generation observed by the
	// controller.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`
}

// ============================================================================
// ClawsecPolicy Resource Definition
// ============================================================================

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:shortName=cwsp
// +kubebuilder:printcolumn:name="Enabled",type="boolean",JSONPath=".spec.enabled"
// +kubebuilder:printcolumn:name="Hash",type="string",JSONPath=".status.compiledHash"
// +kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"

// ClawsecPolicy is the Schema for the clawsecpolicies API. It carries the
// same rules/approval/llm configuration the on-disk format does (§6.2), so
// a cluster can manage the engine's live policy as a CRD instead of (or in
// addition to) a file watched by pkg/config.Watcher.
type ClawsecPolicy struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ClawsecPolicySpec   `json:"spec,omitempty"`
	Status ClawsecPolicyStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// ClawsecPolicyList contains a list of ClawsecPolicy resources.
type ClawsecPolicyList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []ClawsecPolicy `json:"items"`
}

func init() {
	SchemeBuilder.Register(&ClawsecPolicy{}, &ClawsecPolicyList{})
}
