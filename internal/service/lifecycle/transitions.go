package lifecycle

import (
	"fmt"

	"travel-expense/internal/domain"
)

// Recipients is the set of users a transition notifies.
type Recipients uint8

const (
	NotifyEmployee Recipients = 1 << iota
	NotifyCheckers
)

func (r Recipients) Has(target Recipients) bool {
	return r&target != 0
}

// Transition is one row of the request state machine. Flow FlowAny matches
// both single-phase and two-phase requests.
type Transition struct {
	From     domain.RequestStatus
	Role     domain.UserRole
	Decision domain.Decision
	Flow     domain.Flow
	To       domain.RequestStatus
	Notify   Recipients
}

var transitions = []Transition{
	{
		From:     domain.StatusPending,
		Role:     domain.RoleApprover,
		Decision: domain.DecisionApproved,
		Flow:     domain.FlowSinglePhase,
		To:       domain.StatusPendingVerification,
		Notify:   NotifyEmployee | NotifyCheckers,
	},
	{
		From:     domain.StatusPending,
		Role:     domain.RoleApprover,
		Decision: domain.DecisionApproved,
		Flow:     domain.FlowTwoPhase,
		To:       domain.StatusTravelApproved,
		Notify:   NotifyEmployee,
	},
	{
		From:     domain.StatusPending,
		Role:     domain.RoleApprover,
		Decision: domain.DecisionRejected,
		Flow:     domain.FlowAny,
		To:       domain.StatusRejected,
		Notify:   NotifyEmployee,
	},
	{
		From:     domain.StatusTravelApproved,
		Role:     domain.RoleEmployee,
		Decision: domain.DecisionSubmitExpenses,
		Flow:     domain.FlowTwoPhase,
		To:       domain.StatusPendingVerification,
		Notify:   NotifyCheckers,
	},
	{
		From:     domain.StatusPendingVerification,
		Role:     domain.RoleChecker,
		Decision: domain.DecisionApproved,
		Flow:     domain.FlowAny,
		To:       domain.StatusApproved,
		Notify:   NotifyEmployee,
	},
	{
		From:     domain.StatusPendingVerification,
		Role:     domain.RoleChecker,
		Decision: domain.DecisionRejected,
		Flow:     domain.FlowAny,
		To:       domain.StatusRejectedByChecker,
		Notify:   NotifyEmployee,
	},
}

// Transitions returns a copy of the state machine table.
func Transitions() []Transition {
	out := make([]Transition, len(transitions))
	copy(out, transitions)
	return out
}

// Next looks up the row for the given state, actor role, decision and flow.
// Any combination without a row is an invalid transition.
func Next(from domain.RequestStatus, role domain.UserRole, decision domain.Decision, flow domain.Flow) (Transition, error) {
	for _, t := range transitions {
		if t.From != from || t.Role != role || t.Decision != decision {
			continue
		}
		if t.Flow == domain.FlowAny || t.Flow == flow {
			return t, nil
		}
	}
	return Transition{}, fmt.Errorf("%w: %s cannot %s a request in status %s", domain.ErrInvalidTransition, role, decision, from)
}
