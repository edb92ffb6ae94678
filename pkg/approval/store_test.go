package approval

import (
	"testing"
	"time"

	"github.com/clawsec/clawsec/pkg/clawsec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreateAndGet(t *testing.T) {
	s := NewStore()
	pending, err := s.Create(clawsec.Detection{Category: clawsec.CategoryDestructive}, clawsec.ToolCall{ToolName: "shell.exec"})
	require.NoError(t, err)
	assert.NotEmpty(t, pending.ID)
	assert.Contains(t, pending.Methods, "native")

	ticket, err := s.Get(pending.ID)
	require.NoError(t, err)
	assert.Equal(t, clawsec.StatusPending, ticket.Status)
}

func TestStoreGetUnknownTicket(t *testing.T) {
	s := NewStore()
	_, err := s.Get("does-not-exist")
	assert.ErrorIs(t, err, clawsec.ErrApprovalNotFound)
}

func TestStoreApproveTransitionsOnce(t *testing.T) {
	s := NewStore()
	pending, err := s.Create(clawsec.Detection{}, clawsec.ToolCall{})
	require.NoError(t, err)

	ticket, err := s.Approve(pending.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, clawsec.StatusApproved, ticket.Status)
	assert.Equal(t, "alice", ticket.ApprovedBy)

	_, err = s.Approve(pending.ID, "bob")
	assert.ErrorIs(t, err, clawsec.ErrApprovalWrongStatus)
}

func TestStoreDenyTransitionsOnce(t *testing.T) {
	s := NewStore()
	pending, err := s.Create(clawsec.Detection{}, clawsec.ToolCall{})
	require.NoError(t, err)

	ticket, err := s.Deny(pending.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, clawsec.StatusDenied, ticket.Status)

	_, err = s.Approve(pending.ID, "alice")
	assert.ErrorIs(t, err, clawsec.ErrApprovalWrongStatus)
}

func TestStoreExpiredTicketCannotBeApproved(t *testing.T) {
	s := NewStore(WithTTL(time.Millisecond))
	pending, err := s.Create(clawsec.Detection{}, clawsec.ToolCall{})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = s.Approve(pending.ID, "alice")
	assert.ErrorIs(t, err, clawsec.ErrApprovalExpired)
}

func TestStorePendingOnlyListsPendingTickets(t *testing.T) {
	s := NewStore()
	p1, err := s.Create(clawsec.Detection{}, clawsec.ToolCall{})
	require.NoError(t, err)
	p2, err := s.Create(clawsec.Detection{}, clawsec.ToolCall{})
	require.NoError(t, err)
	_, err = s.Approve(p2.ID, "alice")
	require.NoError(t, err)

	pending := s.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, p1.ID, pending[0].ID)
}

func TestStorePendingExcludesExpired(t *testing.T) {
	s := NewStore(WithTTL(time.Millisecond))
	_, err := s.Create(clawsec.Detection{}, clawsec.ToolCall{})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	assert.Empty(t, s.Pending())
}

func TestStoreSweepRemovesTerminalTickets(t *testing.T) {
	s := NewStore()
	pending, err := s.Create(clawsec.Detection{}, clawsec.ToolCall{})
	require.NoError(t, err)
	_, err = s.Deny(pending.ID, "alice")
	require.NoError(t, err)

	s.StartSweep(5*time.Millisecond, true)
	defer s.Stop()

	assert.Eventually(t, func() bool {
		_, err := s.Get(pending.ID)
		return err == clawsec.ErrApprovalNotFound
	}, time.Second, 5*time.Millisecond)
}

func TestStoreStopIsSafeWithoutSweep(t *testing.T) {
	s := NewStore()
	assert.NotPanics(t, func() { s.Stop() })
}
