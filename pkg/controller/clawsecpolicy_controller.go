// Package controller implements the Kubernetes controller for clawsec.
// The ClawsecPolicyReconciler watches ClawsecPolicy CRDs and syncs them
// into the embedded decision engine, giving the "plugin host adapter"
// mentioned as out of core scope a real, optional implementation: a
// cluster-native alternative to pkg/config.Watcher's file-based reload.
//
// Architecture:
//
//	Kubernetes API ──watch──> ClawsecPolicyReconciler ──sync──> clawsec.Engine
//	     │                           │                              │
//	 ClawsecPolicy               Reconcile()                  Reconfigure()
//	    CRD                  (convert to config.Config)     (atomic state swap)
//
// The controller runs embedded in cmd/clawsecd, not as a separate pod, so
// policy changes take effect without a redeploy.
package controller

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	clawsecv1alpha1 "github.com/clawsec/clawsec/api/v1alpha1"
	"github.com/clawsec/clawsec/pkg/clawsec"
	"github.com/clawsec/clawsec/pkg/config"
)

// Engine is the capability the controller drives. *clawsec.Engine
// satisfies it directly.
type Engine interface {
	Reconfigure(enabled bool, detectors []clawsec.Detector, rules map[clawsec.ThreatCategory]clawsec.RuleConfig, confirmParam string)
}

// ClawsecPolicyReconciler reconciles ClawsecPolicy objects, converting the
// CRD spec into config.Config, compiling it with config.Build, and
// atomically swapping it into the engine.
type ClawsecPolicyReconciler struct {
	client.Client
	Scheme *runtime.Scheme

	// Engine is the embedded decision engine to sync policy into.
	Engine Engine

	// activeName tracks which ClawsecPolicy last won the swap, so deleting
	// it can be detected as "go back to disabled" rather than ignored.
	activeName string
}

// Reconcile handles ClawsecPolicy create/update/delete events.
//
// The reconciliation flow:
//  1. Fetch the ClawsecPolicy CRD
//  2. If deleted: disable enforcement (fail closed on policy absence would
//     surprise operators more than failing open here; the Non-goals section
//     already scopes this adapter as optional cluster convenience)
//  3. Convert ClawsecPolicySpec to config.Config
//  4. Build config.Components
//  5. Reconfigure the engine
//  6. Update CRD status
func (r *ClawsecPolicyReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	var policy clawsecv1alpha1.ClawsecPolicy
	if err := r.Get(ctx, req.NamespacedName, &policy); err != nil {
		if client.IgnoreNotFound(err) != nil {
			logger.Error(err, "unable to fetch ClawsecPolicy")
			return ctrl.Result{}, err
		}
		if r.activeName == req.Name {
			logger.Info("active ClawsecPolicy deleted, disabling enforcement", "name", req.Name)
			r.Engine.Reconfigure(false, nil, nil, "")
			r.activeName = ""
		}
		return ctrl.Result{}, nil
	}

	logger.Info("reconciling ClawsecPolicy", "name", policy.Name, "enabled", policy.Spec.Enabled)

	cfg := toConfig(&policy)
	comps, err := config.Build(cfg)
	if err != nil {
		logger.Error(err, "failed to compile policy")
		r.updateStatus(ctx, &policy, "", err)
		return ctrl.Result{RequeueAfter: time.Minute}, err
	}

	r.Engine.Reconfigure(comps.Enabled, comps.Detectors, comps.Rules, comps.ConfirmParam)
	r.activeName = policy.Name
	logger.Info("reconfigured engine", "name", policy.Name, "detectors", len(comps.Detectors))

	hash := computeHash(&policy)
	if err := r.updateStatus(ctx, &policy, hash, nil); err != nil {
		logger.Error(err, "failed to update status")
		return ctrl.Result{}, err
	}

	return ctrl.Result{}, nil
}

// toConfig converts a ClawsecPolicy CRD into config.Config, the same shape
// pkg/config.Load produces from the on-disk format (§6.2) — one conversion
// function is the only place CRD and file-config semantics need to agree.
func toConfig(p *clawsecv1alpha1.ClawsecPolicy) config.Config {
	cfg := config.Default()
	cfg.Global.Enabled = p.Spec.Enabled
	if p.Spec.LogLevel != "" {
		cfg.Global.LogLevel = p.Spec.LogLevel
	}

	cfg.Rules.Purchase = config.PurchaseRule{
		CommonRule:     toCommonRule(p.Spec.Rules.Purchase.CommonRuleSpec),
		DomainMode:     string(p.Spec.Rules.Purchase.DomainMode),
		PaymentDomains: p.Spec.Rules.Purchase.PaymentDomains,
		SpendLimits: config.PurchaseSpendLimits{
			PerTransaction: p.Spec.Rules.Purchase.SpendLimits.PerTransaction,
			Daily:          p.Spec.Rules.Purchase.SpendLimits.Daily,
		},
	}
	cfg.Rules.Website = config.WebsiteRule{
		CommonRule: toCommonRule(p.Spec.Rules.Website.CommonRuleSpec),
		Mode:       string(p.Spec.Rules.Website.Mode),
		Allowlist:  p.Spec.Rules.Website.Allowlist,
		Blocklist:  p.Spec.Rules.Website.Blocklist,
	}
	cfg.Rules.Destructive = config.DestructiveRule{
		CommonRule:    toCommonRule(p.Spec.Rules.Destructive.CommonRuleSpec),
		ShellPatterns: p.Spec.Rules.Destructive.ShellPatterns,
		CloudPatterns: p.Spec.Rules.Destructive.CloudPatterns,
		CodePatterns:  p.Spec.Rules.Destructive.CodePatterns,
	}
	cfg.Rules.Secrets = config.SecretsRule{
		CommonRule:   toCommonRule(p.Spec.Rules.Secrets.CommonRuleSpec),
		Patterns:     p.Spec.Rules.Secrets.Patterns,
		IncludeEmail: p.Spec.Rules.Secrets.IncludeEmail,
	}
	cfg.Rules.Exfiltration = config.ExfiltrationRule{
		CommonRule:      toCommonRule(p.Spec.Rules.Exfiltration.CommonRuleSpec),
		TrustedUploadTo: p.Spec.Rules.Exfiltration.TrustedUploadTo,
	}

	minConfidence := cfg.Rules.Sanitization.MinConfidence
	if p.Spec.Rules.Sanitization.MinConfidence != "" {
		if _, err := fmt.Sscanf(p.Spec.Rules.Sanitization.MinConfidence, "%f", &minConfidence); err != nil {
			minConfidence = cfg.Rules.Sanitization.MinConfidence
		}
	}
	cfg.Rules.Sanitization = config.SanitizationRule{
		MinConfidence:  minConfidence,
		RedactMatches:  p.Spec.Rules.Sanitization.RedactMatches,
		Categories:     p.Spec.Rules.Sanitization.Categories,
		Action:         string(p.Spec.Rules.Sanitization.Action),
		DecodeEncoded:  p.Spec.Rules.Sanitization.DecodeEncodedPayloads,
		SecretsEnabled: p.Spec.Rules.Sanitization.SecretsEnabled,
		IncludeEmail:   p.Spec.Rules.Sanitization.IncludeEmail,
	}

	cfg.Approval.Native = config.NativeApprovalConfig{
		Enabled: p.Spec.Approval.NativeEnabled,
		Timeout: p.Spec.Approval.NativeTimeoutSeconds,
	}
	cfg.Approval.AgentConfirm = config.AgentConfirmApprovalConfig{
		Enabled:       p.Spec.Approval.AgentConfirmEnabled,
		ParameterName: p.Spec.Approval.AgentConfirmParameterName,
	}
	cfg.Approval.Webhook = config.WebhookApprovalConfig{
		Enabled: p.Spec.Approval.WebhookEnabled,
		URL:     p.Spec.Approval.WebhookURL,
		Timeout: p.Spec.Approval.WebhookTimeoutSeconds,
	}

	cfg.LLM = config.LLMConfig{Enabled: p.Spec.LLM.Enabled, Model: p.Spec.LLM.Model}

	return cfg
}

func toCommonRule(c clawsecv1alpha1.CommonRuleSpec) config.CommonRule {
	return config.CommonRule{
		Enabled:         c.Enabled,
		Severity:        string(c.Severity),
		Action:          string(c.Action),
		Condition:       c.Condition,
		ConditionAction: string(c.ConditionAction),
		Rego:            c.Rego,
	}
}

// updateStatus updates the ClawsecPolicy status subresource.
func (r *ClawsecPolicyReconciler) updateStatus(ctx context.Context, p *clawsecv1alpha1.ClawsecPolicy, hash string, reconcileErr error) error {
	now := metav1.Now()
	p.Status.LastUpdated = &now
	p.Status.ObservedGeneration = p.Generation
	if hash != "" {
		p.Status.CompiledHash = hash
	}

	condition := metav1.Condition{
		Type:               "Ready",
		LastTransitionTime: now,
		ObservedGeneration: p.Generation,
	}
	if reconcileErr != nil {
		condition.Status = metav1.ConditionFalse
		condition.Reason = "CompilationFailed"
		condition.Message = reconcileErr.Error()
	} else {
		condition.Status = metav1.ConditionTrue
		condition.Reason = "PolicySynced"
		condition.Message = "policy compiled and loaded into the engine"
	}

	found := false
	for i, c := range p.Status.Conditions {
		if c.Type == "Ready" {
			p.Status.Conditions[i] = condition
			found = true
			break
		}
	}
	if !found {
		p.Status.Conditions = append(p.Status.Conditions, condition)
	}

	return r.Status().Update(ctx, p)
}

// computeHash fingerprints the spec so the status reflects whether the
// last reconcile actually changed anything observable.
func computeHash(p *clawsecv1alpha1.ClawsecPolicy) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%+v", p.Spec)))
	return fmt.Sprintf("%x", h[:8])
}

// SetupWithManager registers the controller to watch ClawsecPolicy CRDs.
func (r *ClawsecPolicyReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&clawsecv1alpha1.ClawsecPolicy{}).
		Complete(r)
}
