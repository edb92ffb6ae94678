// Package audit implements the AuditSink external collaborator (§6.4):
// a push-only, non-blocking fan-out of clawsec.AuditEvent to one or more
// concrete sinks. Adapted from the teacher's SELinux AVC-style audit log.
package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/clawsec/clawsec/pkg/clawsec"
)

// Emitter fans one event out to every registered sink. A sink panic or
// slow sink never blocks the decision path: Emit is fire-and-forget from
// the caller's perspective, sinks run synchronously in emit order but
// each is wrapped to recover from its own panic.
type Emitter struct {
	mu    sync.RWMutex
	sinks []clawsec.AuditSink

	statsMu sync.RWMutex
	total   uint64
	byKind  map[clawsec.AuditEventKind]uint64
}

// NewEmitter builds an Emitter with the given sinks. Events are silently
// dropped if none are registered.
func NewEmitter(sinks ...clawsec.AuditSink) *Emitter {
	return &Emitter{sinks: sinks, byKind: make(map[clawsec.AuditEventKind]uint64)}
}

// AddSink registers an additional sink.
func (e *Emitter) AddSink(sink clawsec.AuditSink) {
	e.mu.Lock()
	e.sinks = append(e.sinks, sink)
	e.mu.Unlock()
}

// Emit implements clawsec.AuditSink, fanning the event to every sink.
func (e *Emitter) Emit(event clawsec.AuditEvent) {
	e.statsMu.Lock()
	e.total++
	e.byKind[event.Kind]++
	e.statsMu.Unlock()

	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, sink := range e.sinks {
		emitSafely(sink, event)
	}
}

func emitSafely(sink clawsec.AuditSink, event clawsec.AuditEvent) {
	defer func() { recover() }()
	sink.Emit(event)
}

// Stats returns the total event count and the count for each kind seen.
func (e *Emitter) Stats() (total uint64, byKind map[clawsec.AuditEventKind]uint64) {
	e.statsMu.RLock()
	defer e.statsMu.RUnlock()
	out := make(map[clawsec.AuditEventKind]uint64, len(e.byKind))
	for k, v := range e.byKind {
		out[k] = v
	}
	return e.total, out
}

// StdoutAuditSink writes events to stdout in an AVC-style line, the same
// terse format used for SELinux access-vector-cache denial logs.
type StdoutAuditSink struct {
	OnlyDenials bool
}

func NewStdoutAuditSink(onlyDenials bool) *StdoutAuditSink {
	return &StdoutAuditSink{OnlyDenials: onlyDenials}
}

func (s *StdoutAuditSink) Emit(event clawsec.AuditEvent) {
	if s.OnlyDenials && event.Action != clawsec.ActionBlock {
		return
	}
	fmt.Fprintln(os.Stdout, formatAVC(event))
}

// formatAVC renders an event like: type=AVC msg=audit(ts): avc: block {
// tool_call } for tool="run_shell" category="destructive" severity="critical"
// reason="rm -rf /"
func formatAVC(event clawsec.AuditEvent) string {
	return fmt.Sprintf(
		"type=AVC msg=audit(%d.%03d): avc: %s { tool_call } for tool=%q category=%q severity=%q ticket=%q reason=%q",
		event.Time.Unix(), event.Time.Nanosecond()/1e6,
		event.Action, event.ToolName, event.Category, event.Severity, event.TicketID, event.Reason,
	)
}

// jsonAuditEvent is the wire representation for JSONAuditSink/FileAuditSink.
type jsonAuditEvent struct {
	Kind     string `json:"kind"`
	Time     string `json:"time"`
	Tool     string `json:"tool"`
	Category string `json:"category,omitempty"`
	Severity string `json:"severity,omitempty"`
	Action   string `json:"action,omitempty"`
	Reason   string `json:"reason,omitempty"`
	TicketID string `json:"ticket_id,omitempty"`
	ActorID  string `json:"actor_id,omitempty"`
	Redacted string `json:"redacted_type,omitempty"`
}

func toJSONEvent(event clawsec.AuditEvent) jsonAuditEvent {
	out := jsonAuditEvent{
		Kind:     string(event.Kind),
		Time:     event.Time.Format(time.RFC3339Nano),
		Tool:     event.ToolName,
		Category: string(event.Category),
		Severity: event.Severity.String(),
		Action:   string(event.Action),
		Reason:   event.Reason,
		TicketID: event.TicketID,
		ActorID:  event.ActorID,
	}
	if event.Redaction != nil {
		out.Redacted = event.Redaction.Type
	}
	return out
}

// JSONAuditSink writes one JSON line per event to an arbitrary writer —
// suitable for shipping to a log aggregator.
type JSONAuditSink struct {
	writer      io.Writer
	mu          sync.Mutex
	OnlyDenials bool
}

func NewJSONAuditSink(w io.Writer, onlyDenials bool) *JSONAuditSink {
	return &JSONAuditSink{writer: w, OnlyDenials: onlyDenials}
}

func (s *JSONAuditSink) Emit(event clawsec.AuditEvent) {
	if s.OnlyDenials && event.Action != clawsec.ActionBlock {
		return
	}
	data, err := json.Marshal(toJSONEvent(event))
	if err != nil {
		return
	}
	s.mu.Lock()
	s.writer.Write(data)
	s.writer.Write([]byte("\n"))
	s.mu.Unlock()
}

// FileAuditSink appends events to a file, in either AVC or JSON-line format.
type FileAuditSink struct {
	file        *os.File
	mu          sync.Mutex
	onlyDenials bool
	format      string // "avc" or "json"
}

// NewFileAuditSink opens (creating/appending) path for audit logging.
func NewFileAuditSink(path, format string, onlyDenials bool) (*FileAuditSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("audit: open log file: %w", err)
	}
	if format != "avc" && format != "json" {
		format = "avc"
	}
	return &FileAuditSink{file: f, onlyDenials: onlyDenials, format: format}, nil
}

func (s *FileAuditSink) Emit(event clawsec.AuditEvent) {
	if s.onlyDenials && event.Action != clawsec.ActionBlock {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.format == "json" {
		data, err := json.Marshal(toJSONEvent(event))
		if err != nil {
			return
		}
		s.file.Write(data)
		s.file.Write([]byte("\n"))
		return
	}
	fmt.Fprintln(s.file, formatAVC(event))
}

func (s *FileAuditSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// NullAuditSink discards every event.
type NullAuditSink struct{}

func (NullAuditSink) Emit(clawsec.AuditEvent) {}

// ChannelAuditSink hands events to a buffered channel for async
// consumption; a full channel drops the event rather than blocking.
type ChannelAuditSink struct {
	events chan clawsec.AuditEvent
}

func NewChannelAuditSink(bufferSize int) *ChannelAuditSink {
	return &ChannelAuditSink{events: make(chan clawsec.AuditEvent, bufferSize)}
}

func (s *ChannelAuditSink) Emit(event clawsec.AuditEvent) {
	select {
	case s.events <- event:
	default:
	}
}

func (s *ChannelAuditSink) Events() <-chan clawsec.AuditEvent { return s.events }

func (s *ChannelAuditSink) Close() { close(s.events) }
