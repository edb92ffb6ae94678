//go:build !ignore_autogenerated

// Code generated by hand in lieu of controller-gen (not available in this
// build environment); mirrors what `make generate` would emit.

package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	runtime "k8s.io/apimachinery/pkg/runtime"
)

// DeepCopyInto copies the receiver into out.
func (in *CommonRuleSpec) DeepCopyInto(out *CommonRuleSpec) {
	*out = *in
}

// DeepCopy returns a deep copy.
func (in *CommonRuleSpec) DeepCopy() *CommonRuleSpec {
	if in == nil {
		return nil
	}
	out := new(CommonRuleSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *SpendLimitsSpec) DeepCopyInto(out *SpendLimitsSpec) {
	*out = *in
}

func (in *SpendLimitsSpec) DeepCopy() *SpendLimitsSpec {
	if in == nil {
		return nil
	}
	out := new(SpendLimitsSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *PurchaseRuleSpec) DeepCopyInto(out *PurchaseRuleSpec) {
	*out = *in
	if in.PaymentDomains != nil {
		out.PaymentDomains = append([]string(nil), in.PaymentDomains...)
	}
	out.SpendLimits = in.SpendLimits
}

func (in *PurchaseRuleSpec) DeepCopy() *PurchaseRuleSpec {
	if in == nil {
		return nil
	}
	out := new(PurchaseRuleSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *WebsiteRuleSpec) DeepCopyInto(out *WebsiteRuleSpec) {
	*out = *in
	if in.Allowlist != nil {
		out.Allowlist = append([]string(nil), in.Allowlist...)
	}
	if in.Blocklist != nil {
		out.Blocklist = append([]string(nil), in.Blocklist...)
	}
}

func (in *WebsiteRuleSpec) DeepCopy() *WebsiteRuleSpec {
	if in == nil {
		return nil
	}
	out := new(WebsiteRuleSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *DestructiveRuleSpec) DeepCopyInto(out *DestructiveRuleSpec) {
	*out = *in
	if in.ShellPatterns != nil {
		out.ShellPatterns = append([]string(nil), in.ShellPatterns...)
	}
	if in.CloudPatterns != nil {
		out.CloudPatterns = append([]string(nil), in.CloudPatterns...)
	}
	if in.CodePatterns != nil {
		out.CodePatterns = append([]string(nil), in.CodePatterns...)
	}
}

func (in *DestructiveRuleSpec) DeepCopy() *DestructiveRuleSpec {
	if in == nil {
		return nil
	}
	out := new(DestructiveRuleSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *SecretsRuleSpec) DeepCopyInto(out *SecretsRuleSpec) {
	*out = *in
	if in.Patterns != nil {
		out.Patterns = append([]string(nil), in.Patterns...)
	}
}

func (in *SecretsRuleSpec) DeepCopy() *SecretsRuleSpec {
	if in == nil {
		return nil
	}
	out := new(SecretsRuleSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *ExfiltrationRuleSpec) DeepCopyInto(out *ExfiltrationRuleSpec) {
	*out = *in
	if in.TrustedUploadTo != nil {
		out.TrustedUploadTo = append([]string(nil), in.TrustedUploadTo...)
	}
}

func (in *ExfiltrationRuleSpec) DeepCopy() *ExfiltrationRuleSpec {
	if in == nil {
		return nil
	}
	out := new(ExfiltrationRuleSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *SanitizationRuleSpec) DeepCopyInto(out *SanitizationRuleSpec) {
	*out = *in
	if in.Categories != nil {
		out.Categories = make(map[string]bool, len(in.Categories))
		for k, v := range in.Categories {
			out.Categories[k] = v
		}
	}
}

func (in *SanitizationRuleSpec) DeepCopy() *SanitizationRuleSpec {
	if in == nil {
		return nil
	}
	out := new(SanitizationRuleSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *RulesSpec) DeepCopyInto(out *RulesSpec) {
	*out = *in
	in.Purchase.DeepCopyInto(&out.Purchase)
	in.Website.DeepCopyInto(&out.Website)
	in.Destructive.DeepCopyInto(&out.Destructive)
	in.Secrets.DeepCopyInto(&out.Secrets)
	in.Exfiltration.DeepCopyInto(&out.Exfiltration)
	in.Sanitization.DeepCopyInto(&out.Sanitization)
}

func (in *RulesSpec) DeepCopy() *RulesSpec {
	if in == nil {
		return nil
	}
	out := new(RulesSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *ApprovalSpec) DeepCopyInto(out *ApprovalSpec) {
	*out = *in
}

func (in *ApprovalSpec) DeepCopy() *ApprovalSpec {
	if in == nil {
		return nil
	}
	out := new(ApprovalSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *LLMSpec) DeepCopyInto(out *LLMSpec) {
	*out = *in
}

func (in *LLMSpec) DeepCopy() *LLMSpec {
	if in == nil {
		return nil
	}
	out := new(LLMSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *ClawsecPolicySpec) DeepCopyInto(out *ClawsecPolicySpec) {
	*out = *in
	in.Rules.DeepCopyInto(&out.Rules)
	out.Approval = in.Approval
	out.LLM = in.LLM
}

func (in *ClawsecPolicySpec) DeepCopy() *ClawsecPolicySpec {
	if in == nil {
		return nil
	}
	out := new(ClawsecPolicySpec)
	in.DeepCopyInto(out)
	return out
}

func (in *ClawsecPolicyStatus) DeepCopyInto(out *ClawsecPolicyStatus) {
	*out = *in
	if in.LastUpdated != nil {
		out.LastUpdated = in.LastUpdated.DeepCopy()
	}
	if in.Conditions != nil {
		out.Conditions = make([]metav1.Condition, len(in.Conditions))
		for i := range in.Conditions {
			in.Conditions[i].DeepCopyInto(&out.Conditions[i])
		}
	}
}

func (in *ClawsecPolicyStatus) DeepCopy() *ClawsecPolicyStatus {
	if in == nil {
		return nil
	}
	out := new(ClawsecPolicyStatus)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver into out.
func (in *ClawsecPolicy) DeepCopyInto(out *ClawsecPolicy) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

// DeepCopy returns a deep copy.
func (in *ClawsecPolicy) DeepCopy() *ClawsecPolicy {
	if in == nil {
		return nil
	}
	out := new(ClawsecPolicy)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *ClawsecPolicy) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

func (in *ClawsecPolicyList) DeepCopyInto(out *ClawsecPolicyList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]ClawsecPolicy, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

func (in *ClawsecPolicyList) DeepCopy() *ClawsecPolicyList {
	if in == nil {
		return nil
	}
	out := new(ClawsecPolicyList)
	in.DeepCopyInto(out)
	return out
}

func (in *ClawsecPolicyList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}
