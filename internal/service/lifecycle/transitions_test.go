package lifecycle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-expense/internal/domain"
)

var (
	allRoles     = []domain.UserRole{domain.RoleEmployee, domain.RoleApprover, domain.RoleChecker, domain.RoleAdmin}
	allDecisions = []domain.Decision{domain.DecisionApproved, domain.DecisionRejected, domain.DecisionSubmitExpenses}
	allFlows     = []domain.Flow{domain.FlowSinglePhase, domain.FlowTwoPhase}
)

type edge struct {
	from     domain.RequestStatus
	role     domain.UserRole
	decision domain.Decision
	flow     domain.Flow
}

// legal lists every allowed move with its target status and recipients.
var legal = map[edge]struct {
	to     domain.RequestStatus
	notify Recipients
}{
	{domain.StatusPending, domain.RoleApprover, domain.DecisionApproved, domain.FlowSinglePhase}:                  {domain.StatusPendingVerification, NotifyEmployee | NotifyCheckers},
	{domain.StatusPending, domain.RoleApprover, domain.DecisionApproved, domain.FlowTwoPhase}:                     {domain.StatusTravelApproved, NotifyEmployee},
	{domain.StatusPending, domain.RoleApprover, domain.DecisionRejected, domain.FlowSinglePhase}:                  {domain.StatusRejected, NotifyEmployee},
	{domain.StatusPending, domain.RoleApprover, domain.DecisionRejected, domain.FlowTwoPhase}:                     {domain.StatusRejected, NotifyEmployee},
	{domain.StatusTravelApproved, domain.RoleEmployee, domain.DecisionSubmitExpenses, domain.FlowTwoPhase}:        {domain.StatusPendingVerification, NotifyCheckers},
	{domain.StatusPendingVerification, domain.RoleChecker, domain.DecisionApproved, domain.FlowSinglePhase}:       {domain.StatusApproved, NotifyEmployee},
	{domain.StatusPendingVerification, domain.RoleChecker, domain.DecisionApproved, domain.FlowTwoPhase}:          {domain.StatusApproved, NotifyEmployee},
	{domain.StatusPendingVerification, domain.RoleChecker, domain.DecisionRejected, domain.FlowSinglePhase}:       {domain.StatusRejectedByChecker, NotifyEmployee},
	{domain.StatusPendingVerification, domain.RoleChecker, domain.DecisionRejected, domain.FlowTwoPhase}:          {domain.StatusRejectedByChecker, NotifyEmployee},
}

func TestNext_ExhaustiveGrid(t *testing.T) {
	checked := 0
	for _, from := range domain.AllStatuses {
		for _, role := range allRoles {
			for _, decision := range allDecisions {
				for _, flow := range allFlows {
					e := edge{from, role, decision, flow}
					name := fmt.Sprintf("%s/%s/%s/%s", from, role, decision, flow)

					t.Run(name, func(t *testing.T) {
						got, err := Next(from, role, decision, flow)

						want, ok := legal[e]
						if !ok {
							assert.ErrorIs(t, err, domain.ErrInvalidTransition)
							return
						}
						require.NoError(t, err)
						assert.Equal(t, want.to, got.To)
						assert.Equal(t, want.notify, got.Notify)
					})
					checked++
				}
			}
		}
	}
	assert.Equal(t, len(domain.AllStatuses)*len(allRoles)*len(allDecisions)*len(allFlows), checked)
}

func TestNext_TerminalStatesHaveNoExits(t *testing.T) {
	for _, from := range domain.AllStatuses {
		if !from.IsTerminal() {
			continue
		}
		for _, tr := range Transitions() {
			assert.NotEqual(t, from, tr.From, "terminal status %s has an outgoing row", from)
		}
	}
}

func TestTransitions_ReturnsCopy(t *testing.T) {
	rows := Transitions()
	rows[0].To = domain.StatusApproved

	got, err := Next(domain.StatusPending, domain.RoleApprover, domain.DecisionApproved, domain.FlowSinglePhase)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingVerification, got.To)
}

func TestRecipients_Has(t *testing.T) {
	both := NotifyEmployee | NotifyCheckers
	assert.True(t, both.Has(NotifyEmployee))
	assert.True(t, both.Has(NotifyCheckers))
	assert.False(t, NotifyEmployee.Has(NotifyCheckers))
}
