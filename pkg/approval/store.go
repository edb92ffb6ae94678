// Package approval implements the Approval Store and Agent-Confirm fast
// path (§4.4): a ticket state machine that lets a previously-blocked tool
// call be unblocked out of band by presenting a one-time token.
package approval

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/clawsec/clawsec/pkg/clawsec"
)

// Store is the Approval Store. It owns tickets exclusively; the engine
// never mutates a ticket directly, only through Create/Approve/Deny.
type Store struct {
	mu      sync.Mutex
	tickets map[string]*clawsec.ApprovalTicket

	ttl     time.Duration
	methods []string

	sweepStop chan struct{}
	sweepOnce sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets how long a created ticket remains pending before it lazily
// expires. Default 5 minutes.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithMethods sets the non-empty subset of {native, agent-confirm, webhook}
// advertised in PendingApproval.Methods.
func WithMethods(methods ...string) Option {
	return func(s *Store) { s.methods = methods }
}

// NewStore builds an empty Approval Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		tickets: make(map[string]*clawsec.ApprovalTicket),
		ttl:     5 * time.Minute,
		methods: []string{"native", "agent-confirm"},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create mints a new pending ticket for detection/call and returns its
// client-facing view. Implements clawsec.ApprovalHandler.
func (s *Store) Create(detection clawsec.Detection, call clawsec.ToolCall) (clawsec.PendingApproval, error) {
	id, err := newTicketID()
	if err != nil {
		return clawsec.PendingApproval{}, &clawsec.Error{Kind: clawsec.ErrKindApproval, Op: "approval: generate ticket id", Err: err}
	}

	now := time.Now()
	ticket := &clawsec.ApprovalTicket{
		ID:               id,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.ttl),
		Detection:        detection,
		ToolCallSnapshot: call,
		Status:           clawsec.StatusPending,
	}

	s.mu.Lock()
	s.tickets[id] = ticket
	s.mu.Unlock()

	return clawsec.PendingApproval{
		ID:               id,
		ExpiresInSeconds: int(s.ttl.Seconds()),
		Methods:          append([]string(nil), s.methods...),
	}, nil
}

// Pending returns a snapshot of every ticket still awaiting a decision, for
// hosts that poll the store to drive an out-of-band approval flow (e.g. the
// native terminal prompt in cmd/clawsecd).
func (s *Store) Pending() []clawsec.ApprovalTicket {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []clawsec.ApprovalTicket
	for _, ticket := range s.tickets {
		s.promoteExpiredLocked(ticket)
		if ticket.Status == clawsec.StatusPending {
			pending = append(pending, *ticket)
		}
	}
	return pending
}

// Get returns a ticket, lazily promoting pending to expired if the wall
// clock has passed ExpiresAt.
func (s *Store) Get(id string) (clawsec.ApprovalTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

func (s *Store) getLocked(id string) (clawsec.ApprovalTicket, error) {
	ticket, ok := s.tickets[id]
	if !ok {
		return clawsec.ApprovalTicket{}, clawsec.ErrApprovalNotFound
	}
	s.promoteExpiredLocked(ticket)
	return *ticket, nil
}

func (s *Store) promoteExpiredLocked(ticket *clawsec.ApprovalTicket) {
	if ticket.Status == clawsec.StatusPending && time.Now().After(ticket.ExpiresAt) {
		ticket.Status = clawsec.StatusExpired
	}
}

// Approve transitions a pending ticket to approved. The first transition
// wins: approving an already-terminal ticket returns an error and makes no
// change, race-free under concurrent Approve/Deny calls on the same id
// because the whole operation holds s.mu.
func (s *Store) Approve(id string, by string) (clawsec.ApprovalTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return clawsec.ApprovalTicket{}, clawsec.ErrApprovalNotFound
	}
	s.promoteExpiredLocked(ticket)

	switch ticket.Status {
	case clawsec.StatusExpired:
		return *ticket, clawsec.ErrApprovalExpired
	case clawsec.StatusPending:
		ticket.Status = clawsec.StatusApproved
		ticket.ApprovedBy = by
		ticket.ApprovedAt = time.Now()
		return *ticket, nil
	default:
		return *ticket, clawsec.ErrApprovalWrongStatus
	}
}

// Deny transitions a pending ticket to denied. Same first-transition-wins
// semantics as Approve.
func (s *Store) Deny(id string, by string) (clawsec.ApprovalTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return clawsec.ApprovalTicket{}, clawsec.ErrApprovalNotFound
	}
	s.promoteExpiredLocked(ticket)

	switch ticket.Status {
	case clawsec.StatusExpired:
		return *ticket, clawsec.ErrApprovalExpired
	case clawsec.StatusPending:
		ticket.Status = clawsec.StatusDenied
		ticket.ApprovedBy = by
		ticket.ApprovedAt = time.Now()
		return *ticket, nil
	default:
		return *ticket, clawsec.ErrApprovalWrongStatus
	}
}

// StartSweep runs the optional background sweep (§4.4, default 60s) that
// lazily promotes expired tickets and, if removeTerminal is set, deletes
// terminal ones. It must not keep the process alive: Stop releases the
// goroutine deterministically.
func (s *Store) StartSweep(interval time.Duration, removeTerminal bool) {
	s.sweepOnce.Do(func() {
		s.sweepStop = make(chan struct{})
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					s.sweep(removeTerminal)
				case <-s.sweepStop:
					return
				}
			}
		}()
	})
}

// Stop halts the background sweep started by StartSweep. Safe to call even
// if the sweep was never started.
func (s *Store) Stop() {
	s.mu.Lock()
	stop := s.sweepStop
	s.mu.Unlock()
	if stop != nil {
		close(stop)
	}
}

func (s *Store) sweep(removeTerminal bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ticket := range s.tickets {
		s.promoteExpiredLocked(ticket)
		if removeTerminal && ticket.Status != clawsec.StatusPending {
			delete(s.tickets, id)
		}
	}
}

func newTicketID() (string, error) {
	buf := make([]byte, 16) // 128-bit, unguessable (§3)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
