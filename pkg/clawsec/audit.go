package clawsec

import "time"

// AuditEventKind is the closed set of occurrences the core reports (§6.4).
type AuditEventKind string

const (
	AuditDetection AuditEventKind = "detection"
	AuditApproval  AuditEventKind = "approval"
	AuditDenial    AuditEventKind = "denial"
	AuditExpiry    AuditEventKind = "expiry"
	AuditSanitized AuditEventKind = "sanitized"
)

// AuditEvent is the push-only record the core hands to an AuditSink. It
// carries enough of a Detection/ApprovalTicket/Redaction to reconstruct
// what happened without the sink needing to reach back into the engine.
type AuditEvent struct {
	Kind      AuditEventKind
	Time      time.Time
	ToolName  string
	Category  ThreatCategory
	Severity  Severity
	Action    Action
	Reason    string
	TicketID  string
	ActorID   string // approver/denier, when Kind is Approval or Denial
	Redaction *Redaction
}

// AuditSink is the external-collaborator interface from §6.4: push-only,
// non-blocking, failures never propagate back into the decision path.
type AuditSink interface {
	Emit(event AuditEvent)
}
